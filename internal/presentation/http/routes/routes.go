// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/AtRiskMedia/vibecheck-go/internal/application/container"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/vibecheck-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware(config.CORSOrigins, config.AppOrigin))

	allowedOrigins := append(append([]string{}, config.CORSOrigins...), config.AppOrigin)

	// Initialize handlers
	vibeHandlers := handlers.NewVibeHandlers(
		container.AnalysisService,
		container.ProfileService,
		container.RecommendationService,
		container.ShareService,
		container.OAuthService,
		container.Logger,
		container.PerfTracker,
	)
	instagramHandlers := handlers.NewInstagramHandlers(container.OAuthService, container.Logger, container.PerfTracker)
	tokenHandlers := handlers.NewTokenHandlers(container.TokenExchangeService, container.InstagramRedirect, container.Logger, container.PerfTracker)
	deletionHandlers := handlers.NewDeletionHandlers(container.DeletionService, container.Logger, container.PerfTracker)
	callbackHandlers := handlers.NewAuthCallbackHandlers(container.OAuthService, container.Logger, container.PerfTracker)
	eventHandlers := handlers.NewEventHandlers(container.Hub, allowedOrigins, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container.DB, container.PerfTracker)

	visitor := middleware.VisitorMiddleware(middleware.VisitorConfig{
		JWTSecret: container.JWTSecret,
		TTL:       config.VisitorTokenTTL,
		Secure:    config.SecureCookies,
	}, container.Logger, container.PerfTracker)

	// Operational endpoints
	r.GET("/healthz", healthHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(container.Metrics, promhttp.HandlerOpts{})))

	// Meta app endpoints, called by browsers without a visitor cookie or by Meta itself
	r.Any("/api/instagram/token", tokenHandlers.HandleTokenExchange)
	r.POST("/api/facebook/deletion", deletionHandlers.PostDeletion)
	r.GET("/api/facebook/deletion/status", deletionHandlers.GetDeletionStatus)

	// OAuth redirect target, loaded inside the popup
	r.GET("/auth-callback", callbackHandlers.GetAuthCallback)

	api := r.Group("/api/v1")
	api.Use(visitor, middleware.OriginGuardMiddleware(allowedOrigins, container.Logger))
	{
		vibeAPI := api.Group("/vibe")
		{
			vibeAPI.GET("/personas", vibeHandlers.GetPersonas)
			vibeAPI.POST("/analyze", vibeHandlers.PostAnalyze)
			vibeAPI.GET("/profile", vibeHandlers.GetProfile)
			vibeAPI.GET("/recommendations/:personaId", vibeHandlers.GetRecommendations)
			vibeAPI.GET("/trending", vibeHandlers.GetTrending)
			vibeAPI.POST("/share", vibeHandlers.PostShare)
		}

		instagramAPI := api.Group("/instagram")
		{
			instagramAPI.POST("/connect", instagramHandlers.PostConnect)
			instagramAPI.GET("/status", instagramHandlers.GetStatus)
			instagramAPI.POST("/logout", instagramHandlers.PostLogout)
			instagramAPI.POST("/share", instagramHandlers.PostShare)
			instagramAPI.GET("/media", instagramHandlers.GetMedia)
			instagramAPI.GET("/profile", instagramHandlers.GetProfile)
		}

		api.GET("/events/ws", eventHandlers.StreamEvents)
	}

	return r
}
