package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"abetcrm/internal/audit"
)

var testSecret = []byte("test-secret")

func signed(t *testing.T, c Claims, secret []byte) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/leads", func(c *gin.Context) {
		a := audit.ActorFrom(c.Request.Context())
		role, _ := c.Get("role")
		c.JSON(http.StatusOK, gin.H{"actor": a.UserID, "role": role})
	})
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(testSecret), Actor())
	valid := signed(t, Claims{UserID: "u-1", Role: "user", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, testSecret)
	expired := signed(t, Claims{UserID: "u-1", Role: "user", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}, testSecret)
	foreign := signed(t, Claims{UserID: "u-1", Role: "admin", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, []byte("other"))
	noExpiry := signed(t, Claims{UserID: "u-1", Role: "user"}, testSecret)

	cases := []struct {
		name  string
		path  string
		token string
		code  int
	}{
		{"missing header", "/leads", "", http.StatusUnauthorized},
		{"valid", "/leads", valid, http.StatusOK},
		{"expired", "/leads", expired, http.StatusUnauthorized},
		{"wrong secret", "/leads", foreign, http.StatusUnauthorized},
		{"no expiry", "/leads", noExpiry, http.StatusUnauthorized},
		{"public path", "/healthz", "", http.StatusOK},
	}
	for _, tc := range cases {
		if w := do(r, tc.path, tc.token); w.Code != tc.code {
			t.Fatalf("%s: status = %d, want %d (%s)", tc.name, w.Code, tc.code, w.Body.String())
		}
	}

	w := do(r, "/leads", valid)
	if body := w.Body.String(); body != `{"actor":"u-1","role":"user"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("role", c.GetHeader("X-Role")); c.Next() })
	r.GET("/admin", RequireRoles("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for role, want := range map[string]int{"admin": http.StatusOK, "user": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-Role", role)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != want {
			t.Fatalf("role %s: status = %d, want %d", role, w.Code, want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newRouter(RateLimit(ctx, 1, 2))
	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, do(r, "/healthz", "").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newRouter(RateLimit(ctx, 1, 1))
	if err := r.SetTrustedProxies(nil); err != nil {
		t.Fatalf("SetTrustedProxies: %v", err)
	}

	var last int
	for i, xff := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if i == 0 && w.Code != http.StatusOK {
			t.Fatalf("first request: status = %d", w.Code)
		}
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("spoofed header reset the bucket: status = %d", last)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newRouter(CORS([]string{"https://app.example.com"}))
	req := httptest.NewRequest(http.MethodOptions, "/leads", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow origin = %q", got)
	}
}
