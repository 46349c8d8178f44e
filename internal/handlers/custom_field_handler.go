package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/customfields"
	"abetcrm/internal/services"
)

type CustomFieldHandler struct {
	Service *services.CustomFieldService
}

func NewCustomFieldHandler(service *services.CustomFieldService) *CustomFieldHandler {
	return &CustomFieldHandler{Service: service}
}

// @Summary      Create custom field definition
// @Tags         CustomFields
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        definition  body      customfields.Definition  true  "Definition"
// @Success      201  {object}  customfields.Definition
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /custom-fields [post]
func (h *CustomFieldHandler) Create(c *gin.Context) {
	var d customfields.Definition
	if err := c.ShouldBindJSON(&d); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.Service.Create(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      List definitions of an entity type
// @Tags         CustomFields
// @Security     BearerAuth
// @Produce      json
// @Param        entity  path  string  true  "lead, contact, account, opportunity, activity or user"
// @Success      200  {object}  map[string]interface{}
// @Router       /custom-fields/{entity} [get]
func (h *CustomFieldHandler) ListByEntity(c *gin.Context) {
	defs, err := h.Service.ListByEntity(c.Request.Context(), c.Param("entity"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customFields": defs, "total": len(defs)})
}

// @Summary      Get custom field definition
// @Tags         CustomFields
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Definition ID"
// @Success      200  {object}  customfields.Definition
// @Failure      404  {object}  map[string]string
// @Router       /custom-fields/id/{id} [get]
func (h *CustomFieldHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// @Summary      Update custom field definition
// @Description  entity and fieldName are immutable.
// @Tags         CustomFields
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string                        true  "Definition ID"
// @Param        patch  body      customfields.DefinitionPatch  true  "Fields to change"
// @Success      200    {object}  customfields.Definition
// @Failure      400    {object}  map[string]string
// @Router       /custom-fields/{id} [put]
func (h *CustomFieldHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err.Error())
		return
	}
	if _, ok := raw["entity"]; ok {
		badRequest(c, "Cannot change entity or fieldName of existing custom field")
		return
	}
	if _, ok := raw["fieldName"]; ok {
		badRequest(c, "Cannot change entity or fieldName of existing custom field")
		return
	}
	body, _ := json.Marshal(raw)
	var patch customfields.DefinitionPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	updated, err := h.Service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary      Delete custom field definition
// @Tags         CustomFields
// @Security     BearerAuth
// @Param        id   path  string  true  "Definition ID"
// @Success      200  {object}  map[string]string
// @Router       /custom-fields/{id} [delete]
func (h *CustomFieldHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
