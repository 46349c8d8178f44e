package handlers

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/authz"
	"abetcrm/internal/models"
)

// exposeErrors adds the underlying error to 500 responses; off in production.
var exposeErrors = true

func SetProduction(prod bool) {
	exposeErrors = !prod
}

func getUserAndRole(c *gin.Context) (userID, role string) {
	if v, ok := c.Get("user_id"); ok {
		userID, _ = v.(string)
	}
	if v, ok := c.Get("role"); ok {
		role, _ = v.(string)
	}
	return
}

func getPrincipal(c *gin.Context) authz.Principal {
	userID, role := getUserAndRole(c)
	return authz.Principal{UserID: userID, Role: role}
}

// respondError maps domain errors to HTTP status codes. Storage failures are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Error(), "errors": ve.Errors})
		return
	}

	status, fallback := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		status, fallback = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, apperr.ErrForbidden):
		status, fallback = http.StatusForbidden, "Forbidden"
	case errors.Is(err, apperr.ErrNotFound):
		status, fallback = http.StatusNotFound, "Not found"
	case errors.Is(err, apperr.ErrConflict):
		status, fallback = http.StatusConflict, "Record already exists"
	case errors.Is(err, apperr.ErrInvalidInput):
		status, fallback = http.StatusBadRequest, "Invalid input"
	}

	if status == http.StatusInternalServerError {
		log.Printf("[http][%s %s] internal error: %v", c.Request.Method, c.FullPath(), err)
		body := gin.H{"message": fallback}
		if exposeErrors {
			body["error"] = err.Error()
		}
		c.JSON(status, body)
		return
	}
	msg := apperr.Message(err)
	if msg == "" {
		msg = fallback
	}
	c.JSON(status, gin.H{"message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// parseID reads the :id path parameter; ids are UUIDs.
func parseID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		badRequest(c, "invalid id")
		return "", false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func queryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// parseListQuery reads page, limit, search, from/to and the whitelisted
// equality filters. It writes the 400 response itself.
func parseListQuery(c *gin.Context, filters map[string]string) (models.ListQuery, bool) {
	q := models.ListQuery{Search: strings.TrimSpace(c.Query("search"))}

	page, ok := queryInt(c, "page", 1)
	if !ok || page < 1 {
		badRequest(c, "page must be a positive integer")
		return q, false
	}
	limit, ok := queryInt(c, "limit", models.DefaultLimit)
	if !ok || limit < 1 || limit > models.MaxLimit {
		badRequest(c, "limit must be between 1 and 100")
		return q, false
	}
	q.Page, q.Limit = page, limit

	if q.From, ok = queryTime(c, "from"); !ok {
		badRequest(c, "invalid from date")
		return q, false
	}
	if q.To, ok = queryTime(c, "to"); !ok {
		badRequest(c, "invalid to date")
		return q, false
	}

	// stable order keeps placeholder numbering deterministic
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			q.Conditions = append(q.Conditions, models.Condition{Column: filters[k], Value: v})
		}
	}
	return q, true
}
