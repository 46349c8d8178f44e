package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/authz"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

type LeadHandler struct {
	recordHandler[models.Lead, models.LeadPatch]
	Service *services.LeadService
}

func NewLeadHandler(service *services.LeadService) *LeadHandler {
	return &LeadHandler{
		recordHandler: recordHandler[models.Lead, models.LeadPatch]{
			filters: repositories.LeadFilters,
			create:  service.Create,
			get:     service.Get,
			list:    service.List,
			update: func(ctx context.Context, p authz.Principal, id string, patch models.LeadPatch) (*models.Lead, error) {
				return service.Update(ctx, p, id, patch)
			},
			remove: service.Delete,
		},
		Service: service,
	}
}

// @Summary      Create lead
// @Tags         Leads
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        lead  body      models.Lead  true  "Lead"
// @Success      201   {object}  models.Lead
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /leads [post]
func (h *LeadHandler) Create(c *gin.Context) { h.handleCreate(c) }

// @Summary      List leads
// @Description  Non-admins only see leads they own or are assigned to.
// @Tags         Leads
// @Security     BearerAuth
// @Produce      json
// @Param        page        query  int     false  "Page (>=1)"
// @Param        limit       query  int     false  "Page size (1-100)"
// @Param        search      query  string  false  "Name, company, email or phone"
// @Param        status      query  string  false  "Status"
// @Param        leadSource  query  string  false  "Source"
// @Param        ownerId     query  string  false  "Owner"
// @Param        assignedTo  query  string  false  "Assignee"
// @Success      200  {object}  models.Page[models.Lead]
// @Router       /leads [get]
func (h *LeadHandler) List(c *gin.Context) { h.handleList(c) }

// @Summary      Get lead
// @Tags         Leads
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Lead ID"
// @Success      200  {object}  models.Lead
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /leads/{id} [get]
func (h *LeadHandler) GetByID(c *gin.Context) { h.handleGet(c) }

// @Summary      Update lead
// @Description  Only supplied fields change; customFields are merged into the stored map.
// @Tags         Leads
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string            true  "Lead ID"
// @Param        patch  body      models.LeadPatch  true  "Fields to change"
// @Success      200    {object}  models.Lead
// @Router       /leads/{id} [put]
func (h *LeadHandler) Update(c *gin.Context) { h.handleUpdate(c) }

// @Summary      Delete lead
// @Tags         Leads
// @Security     BearerAuth
// @Param        id   path  string  true  "Lead ID"
// @Success      200  {object}  map[string]string
// @Router       /leads/{id} [delete]
func (h *LeadHandler) Delete(c *gin.Context) { h.handleDelete(c) }

// @Summary      Convert lead
// @Description  Creates a contact and an account from the lead and marks it converted.
// @Tags         Leads
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Lead ID"
// @Success      200  {object}  services.ConversionResult
// @Failure      404  {object}  map[string]string
// @Router       /leads/{id}/convert [post]
func (h *LeadHandler) Convert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p := getPrincipal(c)
	res, err := h.Service.Convert(c.Request.Context(), p, id)
	if err != nil {
		log.Printf("[lead][convert] leadID=%s userID=%s failed: %v", id, p.UserID, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Lead converted successfully", "contact": res.Contact, "account": res.Account})
}

// @Summary      Lead statistics
// @Tags         Leads
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  models.LeadStats
// @Router       /leads/stats [get]
func (h *LeadHandler) Stats(c *gin.Context) {
	stats, err := h.Service.Stats(c.Request.Context(), getPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
