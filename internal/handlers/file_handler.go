package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"abetcrm/internal/services"
)

type FileHandler struct {
	Service *services.FileService
}

func NewFileHandler(service *services.FileService) *FileHandler {
	return &FileHandler{Service: service}
}

// @Summary      Upload file
// @Tags         Files
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file           formData  file    true   "File"
// @Param        relatedToType  formData  string  false  "Entity type"
// @Param        relatedToId    formData  string  false  "Entity ID"
// @Success      201  {object}  models.FileAttachment
// @Router       /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := h.Service.Upload(c.Request.Context(), getPrincipal(c), fh,
		strings.TrimSpace(c.PostForm("relatedToType")), strings.TrimSpace(c.PostForm("relatedToId")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// @Summary      File metadata
// @Tags         Files
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  models.FileAttachment
// @Router       /files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	f, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// @Summary      Download file
// @Tags         Files
// @Security     BearerAuth
// @Produce      octet-stream
// @Param        id   path  string  true  "File ID"
// @Success      200  {file}  file
// @Router       /files/{id}/download [get]
func (h *FileHandler) Download(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	f, abs, err := h.Service.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Type", f.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(f.OriginalName, `"`, "")))
	c.File(abs)
}

// @Summary      Delete file
// @Description  Uploader or admin only.
// @Tags         Files
// @Security     BearerAuth
// @Param        id   path  string  true  "File ID"
// @Success      200  {object}  map[string]string
// @Router       /files/{id} [delete]
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Service.Delete(c.Request.Context(), getPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
