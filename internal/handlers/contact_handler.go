package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/authz"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

type ContactHandler struct {
	recordHandler[models.Contact, models.ContactPatch]
	Service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{
		recordHandler: recordHandler[models.Contact, models.ContactPatch]{
			filters: repositories.ContactFilters,
			create:  service.Create,
			get:     service.Get,
			list:    service.List,
			update: func(ctx context.Context, p authz.Principal, id string, patch models.ContactPatch) (*models.Contact, error) {
				return service.Update(ctx, p, id, patch)
			},
			remove: service.Delete,
		},
		Service: service,
	}
}

// @Summary      Create contact
// @Tags         Contacts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        contact  body      models.Contact  true  "Contact"
// @Success      201  {object}  models.Contact
// @Failure      400  {object}  map[string]string
// @Router       /contacts [post]
func (h *ContactHandler) Create(c *gin.Context) { h.handleCreate(c) }

// @Summary      List contacts
// @Tags         Contacts
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page (>=1)"
// @Param        limit   query  int     false  "Page size (1-100)"
// @Param        search  query  string  false  "Search term"
// @Success      200  {object}  models.Page[models.Contact]
// @Router       /contacts [get]
func (h *ContactHandler) List(c *gin.Context) { h.handleList(c) }

// @Summary      Get contact
// @Tags         Contacts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  models.Contact
// @Failure      404  {object}  map[string]string
// @Router       /contacts/{id} [get]
func (h *ContactHandler) GetByID(c *gin.Context) { h.handleGet(c) }

// @Summary      Update contact
// @Tags         Contacts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string  true  "ID"
// @Param        patch  body      models.ContactPatch  true  "Fields to change"
// @Success      200    {object}  models.Contact
// @Router       /contacts/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) { h.handleUpdate(c) }

// @Summary      Delete contact
// @Tags         Contacts
// @Security     BearerAuth
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  map[string]string
// @Router       /contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) { h.handleDelete(c) }
