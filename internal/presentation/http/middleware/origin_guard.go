package middleware

import (
	"net/http"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// OriginGuardMiddleware rejects state-changing requests whose Origin header
// names a site outside allowed. Requests without an Origin (same-origin
// navigations, server-to-server callers) pass through.
func OriginGuardMiddleware(allowed []string, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" || OriginAllowed(allowed, origin) {
			c.Next()
			return
		}

		logger.Auth().Warn("Rejected cross-origin request", "origin", origin, "path", c.Request.URL.Path)
		c.JSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
		c.Abort()
	}
}
