package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/malagaclima/lluviabet/internal/api/middleware"
	"github.com/malagaclima/lluviabet/internal/domain"
)

func identityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.IdentityMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetUserID(c))
	})
	return r
}

func whoami(t *testing.T, header string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set(middleware.UserIDHeader, header)
	}
	rr := httptest.NewRecorder()
	identityRouter().ServeHTTP(rr, req)
	return rr.Body.String()
}

func TestIdentityFromHeader(t *testing.T) {
	if got := whoami(t, "device-abc-123"); got != "device-abc-123" {
		t.Errorf("identity = %q, want device-abc-123", got)
	}
}

func TestIdentityAnonymousFallback(t *testing.T) {
	if got := whoami(t, ""); got != domain.AnonymousUserID {
		t.Errorf("identity without header = %q, want %q", got, domain.AnonymousUserID)
	}
	// Whitespace-only is as good as missing.
	if got := whoami(t, "   "); got != domain.AnonymousUserID {
		t.Errorf("identity with blank header = %q, want %q", got, domain.AnonymousUserID)
	}
}

func TestIdentityRejectsOversizedHeader(t *testing.T) {
	long := strings.Repeat("x", 200)
	if got := whoami(t, long); got != domain.AnonymousUserID {
		t.Errorf("oversized identity should fall back to anonymous, got %q", got)
	}
}

func TestGetUserIDWithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := middleware.GetUserID(c); got != domain.AnonymousUserID {
		t.Errorf("GetUserID without middleware = %q, want %q", got, domain.AnonymousUserID)
	}
}
