// Package routes registers the bare, unversioned route surface spec.md
// §6 lists — unlike the teacher's /v1-prefixed session routes, the
// external interface table here commits to flat paths (/websocket,
// /status, /usage, /api-keys), so no version subpackage is kept.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/google/wire"

	"github.com/janhq/roombus/internal/infrastructure/auth"
	"github.com/janhq/roombus/internal/interfaces/httpserver/handlers"
)

// RouteProvider provides the route provider for wire.
var RouteProvider = wire.NewSet(NewProvider)

// Provider wires handlers onto the gin engine.
type Provider struct {
	handlers      *handlers.Provider
	authValidator *auth.ServiceKeyValidator
}

// NewProvider creates a new route provider.
func NewProvider(handlerProvider *handlers.Provider, authValidator *auth.ServiceKeyValidator) *Provider {
	return &Provider{handlers: handlerProvider, authValidator: authValidator}
}

// Register registers every route on the engine. Room-scoped endpoints are
// public (a valid apiKey, where required, is enough); /api-keys sits
// behind the service-key bearer check.
func (p *Provider) Register(engine *gin.Engine) {
	engine.GET("/websocket", p.handlers.Room.Upgrade)
	engine.GET("/status", p.handlers.Room.Status)
	engine.GET("/health", p.handlers.Room.Health)
	engine.GET("/usage", p.handlers.Room.Usage)

	keys := engine.Group("/api-keys")
	if p.authValidator != nil {
		keys.Use(p.authValidator.Middleware())
	}
	keys.POST("", p.handlers.Credential.CreateKey)
	keys.GET("", p.handlers.Credential.ListKeys)
	keys.GET("/:projectId", p.handlers.Credential.DescribeKey)
	keys.DELETE("/:projectId", p.handlers.Credential.RevokeKey)
}
