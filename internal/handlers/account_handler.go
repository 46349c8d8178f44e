package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/authz"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

type AccountHandler struct {
	recordHandler[models.Account, models.AccountPatch]
	Service *services.AccountService
}

func NewAccountHandler(service *services.AccountService) *AccountHandler {
	return &AccountHandler{
		recordHandler: recordHandler[models.Account, models.AccountPatch]{
			filters: repositories.AccountFilters,
			create:  service.Create,
			get:     service.Get,
			list:    service.List,
			update: func(ctx context.Context, p authz.Principal, id string, patch models.AccountPatch) (*models.Account, error) {
				return service.Update(ctx, p, id, patch)
			},
			remove: service.Delete,
		},
		Service: service,
	}
}

// @Summary      Create account
// @Tags         Accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        account  body      models.Account  true  "Account"
// @Success      201  {object}  models.Account
// @Failure      400  {object}  map[string]string
// @Router       /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) { h.handleCreate(c) }

// @Summary      List accounts
// @Tags         Accounts
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page (>=1)"
// @Param        limit   query  int     false  "Page size (1-100)"
// @Param        search  query  string  false  "Search term"
// @Success      200  {object}  models.Page[models.Account]
// @Router       /accounts [get]
func (h *AccountHandler) List(c *gin.Context) { h.handleList(c) }

// @Summary      Get account
// @Tags         Accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  models.Account
// @Failure      404  {object}  map[string]string
// @Router       /accounts/{id} [get]
func (h *AccountHandler) GetByID(c *gin.Context) { h.handleGet(c) }

// @Summary      Update account
// @Tags         Accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string  true  "ID"
// @Param        patch  body      models.AccountPatch  true  "Fields to change"
// @Success      200    {object}  models.Account
// @Router       /accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) { h.handleUpdate(c) }

// @Summary      Delete account
// @Tags         Accounts
// @Security     BearerAuth
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  map[string]string
// @Router       /accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) { h.handleDelete(c) }
