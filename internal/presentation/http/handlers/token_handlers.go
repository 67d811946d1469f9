package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/services"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// TokenHandlers relays authorization codes to Instagram for browser clients
type TokenHandlers struct {
	tokens             *services.TokenExchangeService
	defaultRedirectURI string
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

// NewTokenHandlers creates token handlers. defaultRedirectURI is used when a
// request omits redirect_uri.
func NewTokenHandlers(tokens *services.TokenExchangeService, defaultRedirectURI string, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *TokenHandlers {
	return &TokenHandlers{
		tokens:             tokens,
		defaultRedirectURI: defaultRedirectURI,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// TokenRequest is the body of POST /api/instagram/token
type TokenRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// HandleTokenExchange handles /api/instagram/token. Only POST is accepted.
func (h *TokenHandlers) HandleTokenExchange(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_token_exchange_request")
	defer marker.Complete()
	h.logger.Auth().Debug("Received token exchange request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Auth().Debug("Token exchange body unreadable", "error", err.Error())
	}
	redirectURI := req.RedirectURI
	if redirectURI == "" {
		redirectURI = h.defaultRedirectURI
	}

	grant, err := h.tokens.Exchange(c.Request.Context(), req.Code, redirectURI)
	if err != nil {
		marker.SetError(err)
		if apperrors.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is required"})
			return
		}
		h.logger.Auth().Error("Token exchange failed", "error", err.Error(), "duration", time.Since(start))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to exchange authorization code for access token",
			"details": err.Error(),
		})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for TokenExchange request", "duration", time.Since(start), "success", true)
	c.JSON(http.StatusOK, gin.H{
		"access_token": grant.AccessToken,
		"expires_in":   grant.ExpiresIn,
		"token_type":   grant.TokenType,
	})
}
