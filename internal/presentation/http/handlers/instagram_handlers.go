package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/services"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// InstagramHandlers contains the per-visitor Instagram connection handlers
type InstagramHandlers struct {
	oauth       *services.OAuthService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewInstagramHandlers creates instagram handlers with injected dependencies
func NewInstagramHandlers(oauth *services.OAuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *InstagramHandlers {
	return &InstagramHandlers{
		oauth:       oauth,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// InstagramShareRequest is the body of POST /api/v1/instagram/share
type InstagramShareRequest struct {
	Text     string            `json:"text"`
	ImageURL string            `json:"image_url"`
	Kind     session.ShareKind `json:"kind"`
}

func (h *InstagramHandlers) client(c *gin.Context) (*services.OAuthClient, bool) {
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor not resolved"})
		return nil, false
	}
	return h.oauth.Client(visitorID), true
}

// PostConnect handles POST /api/v1/instagram/connect - opens the authorization popup
func (h *InstagramHandlers) PostConnect(c *gin.Context) {
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor not resolved"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_instagram_connect_request")
	defer marker.Complete()
	h.logger.Auth().Debug("Received instagram connect request", "method", c.Request.Method, "path", c.Request.URL.Path)

	attempt, err := h.oauth.BeginConnect(c.Request.Context(), visitorID)
	if err != nil {
		marker.SetError(err)
		h.logger.Auth().Warn("Instagram connect refused", "error", err.Error(), "duration", time.Since(start))
		respondError(c, err, "Failed to start instagram connection")
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostConnect request", "duration", time.Since(start), "success", true)
	c.JSON(http.StatusOK, gin.H{"authUrl": attempt.AuthURL, "state": session.StateConnecting})
}

// GetStatus handles GET /api/v1/instagram/status
func (h *InstagramHandlers) GetStatus(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("get_instagram_status_request")
	defer marker.Complete()

	connected, err := client.IsConnected(c.Request.Context())
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to read connection status")
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"connected": connected, "state": client.State()})
}

// PostLogout handles POST /api/v1/instagram/logout
func (h *InstagramHandlers) PostLogout(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("post_instagram_logout_request")
	defer marker.Complete()
	h.logger.Auth().Debug("Received instagram logout request", "method", c.Request.Method, "path", c.Request.URL.Path)

	if err := client.Logout(c.Request.Context()); err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to disconnect instagram")
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"success": true, "connected": false})
}

// PostShare handles POST /api/v1/instagram/share
func (h *InstagramHandlers) PostShare(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("post_instagram_share_request")
	defer marker.Complete()

	var req InstagramShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Kind == "" {
		req.Kind = session.ShareStory
	}

	shareURL, err := client.Share(c.Request.Context(), session.ShareContent{Text: req.Text, ImageURL: req.ImageURL}, req.Kind)
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to share to instagram")
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"url": shareURL})
}

// GetMedia handles GET /api/v1/instagram/media?limit=N
func (h *InstagramHandlers) GetMedia(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("get_instagram_media_request")
	defer marker.Complete()

	limit := services.DefaultMediaLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	media, err := client.FetchMedia(c.Request.Context(), limit)
	if err != nil {
		marker.SetError(err)
		h.logger.Auth().Warn("Instagram media fetch failed", "error", err.Error(), "duration", time.Since(start))
		respondError(c, err, "Failed to fetch instagram media")
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetMedia request", "duration", time.Since(start), "count", len(media), "success", true)
	c.JSON(http.StatusOK, gin.H{"data": media, "count": len(media)})
}

// GetProfile handles GET /api/v1/instagram/profile
func (h *InstagramHandlers) GetProfile(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("get_instagram_profile_request")
	defer marker.Complete()

	profile, err := client.FetchProfile(c.Request.Context())
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to fetch instagram profile")
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"user": profile})
}
