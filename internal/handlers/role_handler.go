package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/models"
	"abetcrm/internal/services"
)

type RoleHandler struct {
	Service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{Service: service}
}

// @Summary      Create role
// @Tags         Roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        role  body      models.Role  true  "Role"
// @Success      201   {object}  models.Role
// @Router       /roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var r models.Role
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.Service.Create(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary      List roles
// @Tags         Roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  models.Role
// @Router       /roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	roles, err := h.Service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

// @Summary      Get role
// @Tags         Roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  models.Role
// @Router       /roles/{id} [get]
func (h *RoleHandler) GetRoleByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary      Update role
// @Tags         Roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string            true  "Role ID"
// @Param        patch  body      models.RolePatch  true  "Fields to change"
// @Success      200    {object}  models.Role
// @Router       /roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch models.RolePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.Service.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary      Delete role
// @Tags         Roles
// @Security     BearerAuth
// @Param        id   path  string  true  "Role ID"
// @Success      200  {object}  map[string]string
// @Router       /roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
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
