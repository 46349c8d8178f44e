package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/models"
	"abetcrm/internal/pdf"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

type OpportunityHandler struct {
	recordHandler[models.Opportunity, models.OpportunityPatch]
	Service *services.OpportunityService
	Reports pdf.Generator
}

func NewOpportunityHandler(service *services.OpportunityService, reports pdf.Generator) *OpportunityHandler {
	return &OpportunityHandler{
		recordHandler: recordHandler[models.Opportunity, models.OpportunityPatch]{
			filters: repositories.OpportunityFilters,
			create:  service.Create,
			get:     service.Get,
			list:    service.List,
			update:  service.Update,
			remove:  service.Delete,
		},
		Service: service,
		Reports: reports,
	}
}

// @Summary      Create opportunity
// @Tags         Opportunities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        opportunity  body      models.Opportunity  true  "Opportunity"
// @Success      201  {object}  models.Opportunity
// @Failure      400  {object}  map[string]string
// @Router       /opportunities [post]
func (h *OpportunityHandler) Create(c *gin.Context) { h.handleCreate(c) }

// @Summary      List opportunities
// @Tags         Opportunities
// @Security     BearerAuth
// @Produce      json
// @Param        page    query  int     false  "Page (>=1)"
// @Param        limit   query  int     false  "Page size (1-100)"
// @Param        search  query  string  false  "Search term"
// @Success      200  {object}  models.Page[models.Opportunity]
// @Router       /opportunities [get]
func (h *OpportunityHandler) List(c *gin.Context) { h.handleList(c) }

// @Summary      Get opportunity
// @Tags         Opportunities
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "ID"
// @Success      200  {object}  models.Opportunity
// @Failure      404  {object}  map[string]string
// @Router       /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(c *gin.Context) { h.handleGet(c) }

// @Summary      Update opportunity
// @Tags         Opportunities
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string  true  "ID"
// @Param        patch  body      models.OpportunityPatch  true  "Fields to change"
// @Success      200    {object}  models.Opportunity
// @Router       /opportunities/{id} [put]
func (h *OpportunityHandler) Update(c *gin.Context) { h.handleUpdate(c) }

// @Summary      Delete opportunity
// @Tags         Opportunities
// @Security     BearerAuth
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  map[string]string
// @Router       /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(c *gin.Context) { h.handleDelete(c) }

// @Summary      Pipeline by stage
// @Tags         Opportunities
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  models.StageSummary
// @Router       /opportunities/pipeline [get]
func (h *OpportunityHandler) Pipeline(c *gin.Context) {
	stages, err := h.Service.Pipeline(c.Request.Context(), getPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stages": stages})
}

// @Summary      Weighted forecast
// @Tags         Opportunities
// @Security     BearerAuth
// @Produce      json
// @Param        months  query  int  false  "Months ahead (1-24, default 6)"
// @Success      200  {array}  models.ForecastMonth
// @Router       /opportunities/forecast [get]
func (h *OpportunityHandler) Forecast(c *gin.Context) {
	months, ok := forecastMonths(c)
	if !ok {
		return
	}
	forecast, err := h.Service.Forecast(c.Request.Context(), getPrincipal(c), months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"months": months, "forecast": forecast})
}

// @Summary      Pipeline report (PDF)
// @Tags         Opportunities
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        months  query  int  false  "Forecast months (1-24, default 6)"
// @Success      200  {file}  file
// @Router       /opportunities/report.pdf [get]
func (h *OpportunityHandler) Report(c *gin.Context) {
	months, ok := forecastMonths(c)
	if !ok {
		return
	}
	ctx, p := c.Request.Context(), getPrincipal(c)
	stages, err := h.Service.Pipeline(ctx, p)
	if err != nil {
		respondError(c, err)
		return
	}
	forecast, err := h.Service.Forecast(ctx, p, months)
	if err != nil {
		respondError(c, err)
		return
	}
	now := time.Now()
	body, err := h.Reports.PipelineReport(pdf.PipelineData{
		Title:       "Sales pipeline",
		GeneratedAt: now,
		Stages:      stages,
		Forecast:    forecast,
		Months:      months,
	})
	if err != nil {
		log.Printf("[opportunity][report] userID=%s render failed: %v", p.UserID, err)
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="pipeline-%s.pdf"`, now.Format("2006-01-02")))
	c.Data(http.StatusOK, "application/pdf", body)
}

func forecastMonths(c *gin.Context) (int, bool) {
	months, ok := queryInt(c, "months", services.DefaultForecastMonths)
	if !ok || months < 1 || months > services.MaxForecastMonths {
		badRequest(c, fmt.Sprintf("months must be between 1 and %d", services.MaxForecastMonths))
		return 0, false
	}
	return months, true
}
