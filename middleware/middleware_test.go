package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/htmlfilter/config"
	"github.com/cppla/htmlfilter/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.Set(config.AppConfig{})
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp utils.JSONResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp.Code
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(2) // burst of 1
	r := gin.New()
	r.GET("/x", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("203.0.113.1:1000"); w.Code != http.StatusNoContent {
		t.Fatalf("first request status = %d", w.Code)
	}
	w := do("203.0.113.1:1001")
	if w.Code != http.StatusTooManyRequests || decodeCode(t, w) != 42901 {
		t.Errorf("second request status = %d body = %s", w.Code, w.Body.String())
	}
	if w := do("203.0.113.2:1000"); w.Code != http.StatusNoContent {
		t.Errorf("other ip was limited: %d", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "203.0.113.9"},
		{"cloudflare", map[string]string{"CF-Connecting-IP": "198.51.100.1"}, "198.51.100.1"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "198.51.100.2, 10.0.0.1"}, "198.51.100.2"},
		{"private cloudflare ignored", map[string]string{"CF-Connecting-IP": "10.1.1.1"}, "203.0.113.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = "203.0.113.9:5555"
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			if got := ClientIP(c); got != tc.want {
				t.Errorf("ClientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(utils.RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := w.Header().Get(utils.RequestIDHeader)
	if id == "" || id != w.Body.String() {
		t.Errorf("generated id header=%q context=%q", id, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(utils.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(utils.RequestIDHeader); got != "abc-123" {
		t.Errorf("client id not reused: %q", got)
	}
}

func TestAdminRequired(t *testing.T) {
	config.Set(config.AppConfig{JWTSecret: "s3cret", AdminPasswordHash: "x"})
	defer config.Set(config.AppConfig{})

	r := gin.New()
	r.GET("/x", AdminRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSubjectKey))
	})

	valid, _, err := utils.GenerateToken("ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	revoked, _, err := utils.GenerateToken("ops", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := utils.ParseToken(revoked)
	if err != nil {
		t.Fatal(err)
	}
	utils.RevokeToken(context.Background(), claims.ID, claims.ExpiresAt.Time)

	cases := []struct {
		name   string
		header string
		status int
		code   int
	}{
		{"missing", "", http.StatusUnauthorized, 40101},
		{"wrong scheme", "Token abc", http.StatusUnauthorized, 40102},
		{"empty bearer", "Bearer  ", http.StatusUnauthorized, 40103},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized, 40104},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized, 40105},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.status || decodeCode(t, w) != tc.code {
				t.Errorf("status=%d body=%s, want %d/%d", w.Code, w.Body.String(), tc.status, tc.code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "ops" {
		t.Errorf("valid token: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestAdminRequiredDisabled(t *testing.T) {
	config.Set(config.AppConfig{})
	r := gin.New()
	r.GET("/x", AdminRequired(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusForbidden || decodeCode(t, w) != 40310 {
		t.Errorf("status=%d body=%s", w.Code, w.Body.String())
	}
}
