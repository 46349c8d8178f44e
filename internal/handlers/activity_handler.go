package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/authz"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

type ActivityHandler struct {
	recordHandler[models.Activity, models.ActivityPatch]
	Service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		recordHandler: recordHandler[models.Activity, models.ActivityPatch]{
			filters: repositories.ActivityFilters,
			create:  service.Create,
			get:     service.Get,
			list:    service.List,
			update: func(ctx context.Context, p authz.Principal, id string, patch models.ActivityPatch) (*models.Activity, error) {
				return service.Update(ctx, p, id, patch)
			},
			remove: service.Delete,
		},
		Service: service,
	}
}

// @Summary      Create activity
// @Tags         Activities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        activity  body      models.Activity  true  "Activity"
// @Success      201  {object}  models.Activity
// @Failure      400  {object}  map[string]string
// @Router       /activities [post]
func (h *ActivityHandler) Create(c *gin.Context) { h.handleCreate(c) }

// @Summary      List activities
// @Tags         Activities
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page (>=1)"
// @Param        limit   query  int     false  "Page size (1-100)"
// @Param        search  query  string  false  "Search term"
// @Success      200  {object}  models.Page[models.Activity]
// @Router       /activities [get]
func (h *ActivityHandler) List(c *gin.Context) { h.handleList(c) }

// @Summary      Get activity
// @Tags         Activities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  models.Activity
// @Failure      404  {object}  map[string]string
// @Router       /activities/{id} [get]
func (h *ActivityHandler) GetByID(c *gin.Context) { h.handleGet(c) }

// @Summary      Update activity
// @Tags         Activities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string  true  "ID"
// @Param        patch  body      models.ActivityPatch  true  "Fields to change"
// @Success      200    {object}  models.Activity
// @Router       /activities/{id} [put]
func (h *ActivityHandler) Update(c *gin.Context) { h.handleUpdate(c) }

// @Summary      Delete activity
// @Tags         Activities
// @Security     BearerAuth
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  map[string]string
// @Router       /activities/{id} [delete]
func (h *ActivityHandler) Delete(c *gin.Context) { h.handleDelete(c) }
