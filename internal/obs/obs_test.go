package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestLoggerWritesJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l := Logger()
	original := l.Writer()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	defer l.SetOutput(original)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/leads/:id", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads/abc", nil))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v (%q)", err, buf.String())
	}
	if entry["path"] != "/leads/:id" {
		t.Fatalf("unexpected path: %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusNoContent) {
		t.Fatalf("unexpected status: %v", entry["status"])
	}
	if entry["user_id"] != "user-1" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
}

func TestInstrumentCountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Init()
	Init()

	r := gin.New()
	r.Use(Instrument())
	r.GET("/accounts/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/accounts/:id", "200"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/accounts/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/accounts/:id", "200"))
	if after-before != 2 {
		t.Fatalf("expected 2 requests counted, got %v", after-before)
	}

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "crm_http_requests_total") {
		t.Fatalf("metrics output missing counter")
	}
}
