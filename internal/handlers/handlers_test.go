package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"abetcrm/internal/apperr"
	"abetcrm/internal/audit"
	"abetcrm/internal/customfields"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
	"abetcrm/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return body
}

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{apperr.Invalid("name is required"), http.StatusBadRequest, "name is required"},
		{apperr.Unauthorized("Invalid email or password"), http.StatusUnauthorized, "Invalid email or password"},
		{apperr.ErrForbidden, http.StatusForbidden, "Forbidden"},
		{fmt.Errorf("update lead: %w", apperr.NotFound("lead not found")), http.StatusNotFound, "lead not found"},
		{fmt.Errorf("insert: %w", apperr.ErrConflict), http.StatusConflict, "Record already exists"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, tc.err)
		if w.Code != tc.code {
			t.Fatalf("%v: status = %d, want %d", tc.err, w.Code, tc.code)
		}
		if got := decode(t, w)["message"]; got != tc.msg {
			t.Fatalf("%v: message = %v, want %q", tc.err, got, tc.msg)
		}
	}
}

func TestRespondErrorHidesDetailInProduction(t *testing.T) {
	defer SetProduction(false)
	for _, prod := range []bool{false, true} {
		SetProduction(prod)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, errors.New("pq: relation does not exist"))
		_, has := decode(t, w)["error"]
		if has == prod {
			t.Fatalf("production=%v: error detail present=%v", prod, has)
		}
	}
}

func TestParseListQuery(t *testing.T) {
	filters := map[string]string{"status": "status", "ownerId": "owner_id"}
	cases := []struct {
		query string
		ok    bool
	}{
		{"", true},
		{"page=2&limit=100", true},
		{"limit=0", false},
		{"limit=101", false},
		{"page=0", false},
		{"page=abc", false},
		{"from=yesterday", false},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/leads?"+tc.query, nil)
		_, ok := parseListQuery(c, filters)
		if ok != tc.ok {
			t.Fatalf("%q: ok = %v, want %v", tc.query, ok, tc.ok)
		}
		if !ok && w.Code != http.StatusBadRequest {
			t.Fatalf("%q: status = %d", tc.query, w.Code)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/leads?status=new&ownerId=u-1&color=red&search=+acme+&from=2024-01-01", nil)
	q, ok := parseListQuery(c, filters)
	if !ok {
		t.Fatalf("expected ok")
	}
	want := []models.Condition{{Column: "owner_id", Value: "u-1"}, {Column: "status", Value: "new"}}
	if len(q.Conditions) != 2 || q.Conditions[0] != want[0] || q.Conditions[1] != want[1] {
		t.Fatalf("unexpected conditions %+v", q.Conditions)
	}
	if q.Search != "acme" || q.Page != 1 || q.Limit != models.DefaultLimit || q.From == nil {
		t.Fatalf("unexpected query %+v", q)
	}
}

func newLeadRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	svc := services.NewLeadService(db, customfields.NewValidator(repositories.NewCustomFieldRepository(db)),
		audit.NewRecorder(repositories.NewAuditLogRepository(db)))
	h := NewLeadHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("role", "user")
		c.Next()
	})
	r.GET("/leads", h.List)
	r.GET("/leads/:id", h.GetByID)
	r.POST("/leads", h.Create)
	r.POST("/leads/:id/convert", h.Convert)
	return r, mock
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLeadHandlerRejectsBadInputBeforeStorage(t *testing.T) {
	r, _ := newLeadRouter(t)

	if w := serve(r, http.MethodGet, "/leads/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/leads?limit=500", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: status = %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/leads", `{"firstName":`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: status = %d", w.Code)
	}
	w := serve(r, http.MethodPost, "/leads", `{"firstName":"Ada"}`)
	if w.Code != http.StatusBadRequest || decode(t, w)["message"] != "firstName and lastName are required" {
		t.Fatalf("missing last name: %d %s", w.Code, w.Body.String())
	}
}

func TestLeadConvertMissingLead(t *testing.T) {
	r, mock := newLeadRouter(t)
	id := "22222222-2222-2222-2222-222222222222"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(id).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	w := serve(r, http.MethodPost, "/leads/"+id+"/convert", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
	if decode(t, w)["message"] != "Lead not found" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestLeadGetForbiddenForStranger(t *testing.T) {
	r, mock := newLeadRouter(t)
	id := "33333333-3333-3333-3333-333333333333"

	cols := []string{
		"id", "first_name", "last_name", "company", "email", "phone", "job_title", "lead_source", "status", "lead_score",
		"owner_id", "assigned_to", "description", "address", "city", "state", "zip_code", "country",
		"converted_to_contact", "converted_to_contact_id", "converted_to_account", "converted_to_account_id", "converted_date",
		"custom_fields", "created_at", "updated_at", "deleted_at",
	}
	now := time.Now()
	rows := sqlmock.NewRows(cols).AddRow(
		id, "Ada", "Lovelace", "", "", "", "", "web", "new", 0,
		"owner-9", "rep-9", "", "", "", "", "", "",
		false, nil, false, nil, nil,
		[]byte(`{}`), now, now, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1 AND deleted_at IS NULL")).
		WithArgs(id).
		WillReturnRows(rows)

	if w := serve(r, http.MethodGet, "/leads/"+id, ""); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d (%s)", w.Code, w.Body.String())
	}
}

func TestCustomFieldUpdateRejectsImmutableKeys(t *testing.T) {
	h := NewCustomFieldHandler(nil)
	r := gin.New()
	r.PUT("/custom-fields/:id", h.Update)

	for _, body := range []string{`{"entity":"contact"}`, `{"fieldName":"x","displayName":"X"}`} {
		w := serve(r, http.MethodPut, "/custom-fields/44444444-4444-4444-4444-444444444444", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", body, w.Code)
		}
	}
}

func TestUserPayloadsAreCheckedOnBind(t *testing.T) {
	r := gin.New()
	auth := NewAuthHandler(nil)
	users := NewUserHandler(nil)
	r.POST("/auth/register", auth.Register)
	r.POST("/users", users.CreateUser)
	r.PUT("/users/:id", users.UpdateUser)
	const userID = "55555555-5555-5555-5555-555555555555"

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/auth/register", `{"email":"not-an-email","password":"secret1","firstName":"A","lastName":"B"}`},
		{http.MethodPost, "/auth/register", `{"email":"a@example.com","password":"123","firstName":"A","lastName":"B"}`},
		{http.MethodPost, "/users", `{"email":"a@example.com","password":"secret1","firstName":"A","lastName":"B","role":"root"}`},
		{http.MethodPut, "/users/" + userID, `{"email":"nope"}`},
		{http.MethodPut, "/users/" + userID, `{"password":"abc"}`},
	}
	for _, tc := range cases {
		w := serve(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s %s: status = %d, want 400", tc.method, tc.path, tc.body, w.Code)
		}
	}
}
