// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

// VisitorCookieName holds the signed visitor token.
const VisitorCookieName = "vibecheck_visitor"

const visitorKey = "visitorId"

// VisitorConfig controls the visitor cookie.
type VisitorConfig struct {
	JWTSecret string
	TTL       time.Duration
	Secure    bool
}

// VisitorMiddleware resolves the visitor from the signed cookie, issuing a new
// visitor id and cookie when it is missing or invalid.
func VisitorMiddleware(cfg VisitorConfig, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(VisitorCookieName); err == nil && token != "" {
			visitorID, err := security.ValidateVisitorToken(token, cfg.JWTSecret)
			if err == nil {
				c.Set(visitorKey, visitorID)
				c.Next()
				return
			}
			logger.Auth().Debug("Discarding invalid visitor cookie", "path", c.Request.URL.Path, "error", err.Error())
		}

		marker := perfTracker.StartOperation("middleware_issue_visitor")
		defer marker.Complete()

		visitorID := security.NewVisitorID()
		token, err := security.GenerateVisitorToken(visitorID, cfg.JWTSecret, time.Now(), cfg.TTL)
		if err != nil {
			marker.SetError(err)
			logger.LogError(logging.ChannelAuth, "issue_visitor", err, nil)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to issue visitor token"})
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(VisitorCookieName, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
		c.Set(visitorKey, visitorID)
		marker.SetSuccess(true)
		logger.Auth().Debug("Issued visitor cookie", "visitorId", logging.SanitizeID(visitorID))

		c.Next()
	}
}

// GetVisitorID retrieves the visitor id set by VisitorMiddleware.
func GetVisitorID(c *gin.Context) (string, bool) {
	v, exists := c.Get(visitorKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
