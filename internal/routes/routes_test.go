package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"abetcrm/internal/audit"
	"abetcrm/internal/customfields"
	"abetcrm/internal/handlers"
	"abetcrm/internal/middleware"
	"abetcrm/internal/pdf"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

var secret = []byte("routes-test")

func token(t *testing.T, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: "55555555-5555-5555-5555-555555555555",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfRepo := repositories.NewCustomFieldRepository(db)
	v := customfields.NewValidator(cfRepo)
	auditRepo := repositories.NewAuditLogRepository(db)
	rec := audit.NewRecorder(auditRepo)
	users := services.NewUserService(db, nil, services.NewAuthService(string(secret), time.Minute, time.Hour), v, rec)

	h := Handlers{
		Auth:        handlers.NewAuthHandler(users),
		User:        handlers.NewUserHandler(users),
		Role:        handlers.NewRoleHandler(services.NewRoleService(repositories.NewRoleRepository(db))),
		Lead:        handlers.NewLeadHandler(services.NewLeadService(db, v, rec)),
		Contact:     handlers.NewContactHandler(services.NewContactService(db, v, rec)),
		Account:     handlers.NewAccountHandler(services.NewAccountService(db, v, rec)),
		Opportunity: handlers.NewOpportunityHandler(services.NewOpportunityService(db, v, rec), pdf.NewReportGenerator("")),
		Activity:    handlers.NewActivityHandler(services.NewActivityService(db, v, rec)),
		CustomField: handlers.NewCustomFieldHandler(services.NewCustomFieldService(cfRepo)),
		AuditLog:    handlers.NewAuditLogHandler(services.NewAuditService(auditRepo)),
		File:        handlers.NewFileHandler(services.NewFileService(repositories.NewFileRepository(db), t.TempDir(), 1<<20)),
		Health:      handlers.NewHealthHandler(db),
	}
	return SetupRoutes(gin.New(), secret, h)
}

func TestRouteGuards(t *testing.T) {
	r := newRouter(t)
	user, admin := token(t, "user"), token(t, "admin")

	cases := []struct {
		method, path, token string
		code                int
	}{
		{http.MethodGet, "/leads", "", http.StatusUnauthorized},
		{http.MethodGet, "/auth/me", "garbage", http.StatusUnauthorized},
		{http.MethodGet, "/audit-logs", user, http.StatusForbidden},
		{http.MethodGet, "/roles", user, http.StatusForbidden},
		{http.MethodPost, "/custom-fields", user, http.StatusForbidden},
		{http.MethodDelete, "/users/55555555-5555-5555-5555-555555555555", user, http.StatusForbidden},
		// reaches the handler, which rejects the query before any SQL
		{http.MethodGet, "/audit-logs?action=EXPLODE", admin, http.StatusBadRequest},
		{http.MethodGet, "/opportunities/forecast?months=25", user, http.StatusBadRequest},
		{http.MethodGet, "/custom-fields/deal", user, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.code {
			t.Fatalf("%s %s: status = %d, want %d (%s)", tc.method, tc.path, w.Code, tc.code, w.Body.String())
		}
	}
}
