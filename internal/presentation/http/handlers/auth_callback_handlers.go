package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/services"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>VibeCheck AI</title></head>
<body style="font-family:system-ui,sans-serif;text-align:center;padding:3rem">
<h1>{{if .Success}}Connected to Instagram{{else}}Instagram connection failed{{end}}</h1>
<p>{{.Message}}</p>
<script>setTimeout(function(){window.close()},{{.CloseAfterMS}});</script>
</body>
</html>
`))

type callbackView struct {
	Success      bool
	Message      string
	CloseAfterMS int
}

// AuthCallbackHandlers serves the OAuth redirect target loaded in the popup
type AuthCallbackHandlers struct {
	oauth       *services.OAuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthCallbackHandlers creates auth callback handlers with injected dependencies
func NewAuthCallbackHandlers(oauth *services.OAuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthCallbackHandlers {
	return &AuthCallbackHandlers{
		oauth:       oauth,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetAuthCallback handles GET /auth-callback?code=&state= (or error=&error_reason=)
func (h *AuthCallbackHandlers) GetAuthCallback(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("get_auth_callback_request")
	defer marker.Complete()
	h.logger.Auth().Debug("Received auth callback", "method", c.Request.Method, "path", c.Request.URL.Path)

	reason := c.Query("error_reason")
	if reason == "" {
		reason = c.Query("error")
	}

	_, err := h.oauth.HandleCallback(c.Request.Context(), c.Query("state"), c.Query("code"), reason)
	if err != nil {
		marker.SetError(err)
		status := http.StatusOK
		if errorStatus(err) == http.StatusBadRequest {
			status = http.StatusBadRequest
		}
		h.renderCallback(c, status, callbackView{Success: false, Message: "Please close this window and try again.", CloseAfterMS: 4000})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for AuthCallback request", "duration", time.Since(start), "success", true)
	h.renderCallback(c, http.StatusOK, callbackView{Success: true, Message: "You can close this window.", CloseAfterMS: 1000})
}

func (h *AuthCallbackHandlers) renderCallback(c *gin.Context, status int, view callbackView) {
	var buf bytes.Buffer
	if err := callbackPage.Execute(&buf, view); err != nil {
		h.logger.LogError(logging.ChannelAuth, "render_callback", err, nil)
		c.String(http.StatusInternalServerError, "internal error")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
