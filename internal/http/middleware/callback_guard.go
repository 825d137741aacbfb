package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type CallbackGuardConfig struct {
	// Token is the shared secret the provider is configured to send, either
	// as a bearer token or as a ?token= query parameter. Empty means the
	// deployment has not configured one.
	Token string
	// RequireHTTPS rejects plaintext callbacks. Enabled in production.
	RequireHTTPS bool
}

// CallbackGuard protects the payment-provider callback route. It never
// touches the response body on success; rejections here may return non-200
// because they never reach the provider-facing acknowledgment contract —
// the provider is talking to the wrong endpoint or with the wrong secret.
func CallbackGuard(l *slog.Logger, cfg CallbackGuardConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.RequireHTTPS && !isHTTPS(c) {
			l.WarnContext(c.Request.Context(), "callback rejected: plaintext transport",
				"client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "HTTPS required"})
			return
		}

		if cfg.Token == "" {
			l.WarnContext(c.Request.Context(), "callback token not configured, skipping validation (unsafe for production)")
			c.Next()
			return
		}

		provided := c.Query("token")
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			provided = strings.TrimPrefix(header, "Bearer ")
		}

		if provided != cfg.Token {
			l.WarnContext(c.Request.Context(), "callback rejected: invalid token",
				"client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized callback"})
			return
		}

		c.Next()
	}
}

func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return c.GetHeader("X-Forwarded-Proto") == "https"
}
