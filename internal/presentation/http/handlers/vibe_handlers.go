package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/services"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// VibeHandlers contains the content analysis and recommendation handlers
type VibeHandlers struct {
	analysis        *services.AnalysisService
	profiles        *services.ProfileService
	recommendations *services.RecommendationService
	share           *services.ShareService
	oauth           *services.OAuthService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewVibeHandlers creates vibe handlers with injected dependencies
func NewVibeHandlers(
	analysis *services.AnalysisService,
	profiles *services.ProfileService,
	recommendations *services.RecommendationService,
	share *services.ShareService,
	oauth *services.OAuthService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *VibeHandlers {
	return &VibeHandlers{
		analysis:        analysis,
		profiles:        profiles,
		recommendations: recommendations,
		share:           share,
		oauth:           oauth,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// AnalyzeRequest is the body of POST /api/v1/vibe/analyze
type AnalyzeRequest struct {
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
}

// ShareRequest is the body of POST /api/v1/vibe/share
type ShareRequest struct {
	Platform string `json:"platform" binding:"required"`
}

// GetPersonas handles GET /api/v1/vibe/personas
func (h *VibeHandlers) GetPersonas(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_personas_request")
	defer marker.Complete()
	h.logger.Analysis().Debug("Received get personas request", "method", c.Request.Method, "path", c.Request.URL.Path)

	personas := h.recommendations.Personas()

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"tribes": personas, "count": len(personas)})
}

// PostAnalyze handles POST /api/v1/vibe/analyze
func (h *VibeHandlers) PostAnalyze(c *gin.Context) {
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor not resolved"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_analyze_request")
	defer marker.Complete()
	h.logger.Analysis().Debug("Received analyze request", "method", c.Request.Method, "path", c.Request.URL.Path, "visitorId", logging.SanitizeID(visitorID))

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Analysis().Warn("Analyze request JSON binding failed", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.MediaURL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content or media_url is required"})
		return
	}

	result, err := h.analysis.AnalyzeSubmission(c.Request.Context(), req.Content, strings.TrimSpace(req.MediaURL))
	if err != nil {
		marker.SetError(err)
		h.logger.Analysis().Error("Analysis failed", "error", err.Error(), "duration", time.Since(start))
		respondError(c, err, "Failed to analyze content")
		return
	}

	record, err := h.profiles.Record(c.Request.Context(), visitorID, result)
	if err != nil {
		// the result is still useful without history
		h.logger.Analysis().Warn("Failed to record analysis", "error", err.Error(), "analysisId", result.ID)
	}

	top, _ := result.TopPersona()

	h.logger.Analysis().Info("Analyze request completed", "analysisId", result.ID, "topPersona", top.ID, "duration", time.Since(start))
	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for PostAnalyze request", "duration", time.Since(start), "success", true)

	c.JSON(http.StatusOK, gin.H{
		"result":          result,
		"record":          record,
		"recommendations": h.recommendations.For(top.ID),
		"shareText":       h.share.ShareText(result),
	})
}

// GetProfile handles GET /api/v1/vibe/profile
func (h *VibeHandlers) GetProfile(c *gin.Context) {
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor not resolved"})
		return
	}

	marker := h.perfTracker.StartOperation("get_profile_request")
	defer marker.Complete()
	h.logger.Analysis().Debug("Received get profile request", "method", c.Request.Method, "path", c.Request.URL.Path)

	summary, err := h.profiles.Summary(c.Request.Context(), visitorID)
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to load profile")
		return
	}

	connected, err := h.oauth.Client(visitorID).IsConnected(c.Request.Context())
	if err != nil {
		h.logger.Auth().Warn("Failed to read instagram session for profile", "error", err.Error())
	}
	summary.InstagramConnected = connected

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, summary)
}

// GetRecommendations handles GET /api/v1/vibe/recommendations/:personaId
func (h *VibeHandlers) GetRecommendations(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_recommendations_request")
	defer marker.Complete()

	personaID := c.Param("personaId")
	h.logger.Analysis().Debug("Received get recommendations request", "method", c.Request.Method, "path", c.Request.URL.Path, "personaId", personaID)

	recs := h.recommendations.For(personaID)

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, recs)
}

// GetTrending handles GET /api/v1/vibe/trending
func (h *VibeHandlers) GetTrending(c *gin.Context) {
	marker := h.perfTracker.StartOperation("get_trending_request")
	defer marker.Complete()
	h.logger.Analysis().Debug("Received get trending request", "method", c.Request.Method, "path", c.Request.URL.Path)

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, h.recommendations.Trending())
}

// PostShare handles POST /api/v1/vibe/share for the visitor's latest result
func (h *VibeHandlers) PostShare(c *gin.Context) {
	visitorID, ok := middleware.GetVisitorID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "visitor not resolved"})
		return
	}

	marker := h.perfTracker.StartOperation("post_share_result_request")
	defer marker.Complete()
	h.logger.Analysis().Debug("Received share result request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required"})
		return
	}

	result, err := h.profiles.LastResult(c.Request.Context(), visitorID)
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to load analysis")
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No analysis to share yet"})
		return
	}

	link, err := h.share.ResultLink(result, req.Platform)
	if err != nil {
		marker.SetError(err)
		respondError(c, err, "Failed to build share link")
		return
	}

	marker.SetSuccess(true)
	h.logger.Analysis().Info("Share link built", "platform", link.Platform, "analysisId", result.ID)
	c.JSON(http.StatusOK, link)
}
