package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/audit"
	"abetcrm/internal/services"
)

type AuditLogHandler struct {
	Service *services.AuditService
}

func NewAuditLogHandler(service *services.AuditService) *AuditLogHandler {
	return &AuditLogHandler{Service: service}
}

// @Summary      Read the audit trail
// @Description  Filter by user, by entity (+entityId), by action, or none. Newest first.
// @Tags         AuditLogs
// @Security     BearerAuth
// @Produce      json
// @Param        userId    query  string  false  "Actor"
// @Param        entity    query  string  false  "Entity type"
// @Param        entityId  query  string  false  "Entity ID (requires entity)"
// @Param        action    query  string  false  "CREATE, UPDATE, DELETE, CONVERT, LOGIN, LOGOUT"
// @Param        page      query  int     false  "Page"
// @Param        limit     query  int     false  "Page size (1-100)"
// @Success      200  {object}  models.Page[audit.Entry]
// @Router       /audit-logs [get]
func (h *AuditLogHandler) List(c *gin.Context) {
	lq, ok := parseListQuery(c, nil)
	if !ok {
		return
	}
	q := audit.Query{
		UserID:   strings.TrimSpace(c.Query("userId")),
		Entity:   audit.Entity(strings.ToLower(strings.TrimSpace(c.Query("entity")))),
		EntityID: strings.TrimSpace(c.Query("entityId")),
		Action:   audit.ParseAction(c.Query("action")),
		Page:     lq.Page,
		Limit:    lq.Limit,
	}
	page, err := h.Service.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
