package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/config"
)

func newTestEngine(v *ServiceKeyValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/guarded", v.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	return engine
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	v := NewServiceKeyValidator(&config.Config{ServiceKey: "secret"}, zerolog.Nop())
	engine := newTestEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareRejectsWrongToken(t *testing.T) {
	v := NewServiceKeyValidator(&config.Config{ServiceKey: "secret"}, zerolog.Nop())
	engine := newTestEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareAcceptsCorrectToken(t *testing.T) {
	v := NewServiceKeyValidator(&config.Config{ServiceKey: "secret"}, zerolog.Nop())
	engine := newTestEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestMiddlewareSkippedWhenServiceKeyUnset(t *testing.T) {
	v := NewServiceKeyValidator(&config.Config{}, zerolog.Nop())
	engine := newTestEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 when SERVICE_KEY unset", rec.Code)
	}
}

func TestMiddlewareRejectsNonBearerScheme(t *testing.T) {
	v := NewServiceKeyValidator(&config.Config{ServiceKey: "secret"}, zerolog.Nop())
	engine := newTestEngine(v)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Basic secret")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
