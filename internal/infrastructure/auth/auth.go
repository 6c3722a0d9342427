// Package auth guards the Credential Gateway's admin endpoints with a
// constant-time bearer-secret compare against the configured SERVICE_KEY —
// this spec has no JWT/OIDC concept, so the teacher's Keycloak validator is
// replaced by the simpler equality check it falls back to for Kong API keys.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/config"
)

// ServiceKeyValidator enforces "Authorization: Bearer <SERVICE_KEY>" on the
// routes it guards.
type ServiceKeyValidator struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewServiceKeyValidator constructs a ServiceKeyValidator.
func NewServiceKeyValidator(cfg *config.Config, log zerolog.Logger) *ServiceKeyValidator {
	return &ServiceKeyValidator{cfg: cfg, log: log.With().Str("component", "auth").Logger()}
}

// Middleware rejects requests whose bearer token does not match
// SERVICE_KEY. If SERVICE_KEY is unset (non-production convenience), the
// check is skipped entirely.
func (v *ServiceKeyValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil || strings.TrimSpace(v.cfg.ServiceKey) == "" {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(v.cfg.ServiceKey)) != 1 {
			v.log.Debug().Str("path", c.Request.URL.Path).Msg("service key mismatch")
			abortUnauthorized(c, "invalid service key")
			return
		}

		c.Next()
	}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": message,
	})
}
