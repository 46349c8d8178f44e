package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// @Summary      Create user (admin)
// @Tags         Users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        user  body      models.CreateUserRequest  true  "User"
// @Success      201   {object}  models.User
// @Failure      409   {object}  map[string]string
// @Router       /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary      List users (admin)
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page"
// @Param        limit     query  int     false  "Page size (1-100)"
// @Param        search    query  string  false  "Name or email"
// @Param        role      query  string  false  "Role"
// @Param        isActive  query  bool    false  "Active flag"
// @Success      200  {object}  models.Page[models.User]
// @Router       /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	q, ok := parseListQuery(c, repositories.UserFilters)
	if !ok {
		return
	}
	page, err := h.service.ListUsers(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary      Get user
// @Description  Users may read their own profile; admins any.
// @Tags         Users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.User
// @Router       /users/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), getPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Update user
// @Description  Role and isActive are admin-only.
// @Tags         Users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id     path      string            true  "User ID"
// @Param        patch  body      models.UserPatch  true  "Fields to change"
// @Success      200    {object}  models.User
// @Router       /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.service.UpdateUser(c.Request.Context(), getPrincipal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Delete user (admin)
// @Tags         Users
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      200  {object}  map[string]string
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), getPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
