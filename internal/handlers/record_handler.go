package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/authz"
	"abetcrm/internal/models"
)

// recordHandler serves the CRUD endpoints shared by every owned entity.
// T is the stored model and P its partial-update body.
type recordHandler[T any, P any] struct {
	filters map[string]string

	create func(ctx context.Context, p authz.Principal, item T) (*T, error)
	get    func(ctx context.Context, p authz.Principal, id string) (*T, error)
	list   func(ctx context.Context, p authz.Principal, q models.ListQuery) (models.Page[T], error)
	update func(ctx context.Context, p authz.Principal, id string, patch P) (*T, error)
	remove func(ctx context.Context, p authz.Principal, id string) error
}

func (h *recordHandler[T, P]) handleCreate(c *gin.Context) {
	var item T
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err.Error())
		return
	}
	created, err := h.create(c.Request.Context(), getPrincipal(c), item)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *recordHandler[T, P]) handleGet(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.get(c.Request.Context(), getPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *recordHandler[T, P]) handleList(c *gin.Context) {
	q, ok := parseListQuery(c, h.filters)
	if !ok {
		return
	}
	page, err := h.list(c.Request.Context(), getPrincipal(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *recordHandler[T, P]) handleUpdate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch P
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	updated, err := h.update(c.Request.Context(), getPrincipal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *recordHandler[T, P]) handleDelete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.remove(c.Request.Context(), getPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
