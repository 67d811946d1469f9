// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/services"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/catalog"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/cleanup"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/instagram"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/monitoring"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
	instagramrepo "github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/instagram"
	viberepo "github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/transcription"
	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Options carries secrets resolved at startup plus optional overrides.
type Options struct {
	JWTSecret string
	AESKey    string

	// Instagram replaces the HTTP client built from config when set.
	Instagram services.InstagramAPI
	// Transcriber replaces the AssemblyAI transcriber when set.
	Transcriber services.Transcriber
	// Registry receives the process metrics. A fresh one is created when nil.
	Registry *prometheus.Registry
}

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Analysis Services
	AnalysisService       *services.AnalysisService
	SuggestionService     *services.SuggestionService
	RecommendationService *services.RecommendationService
	ProfileService        *services.ProfileService
	ShareService          *services.ShareService

	// Instagram Services
	OAuthService         *services.OAuthService
	TokenExchangeService *services.TokenExchangeService
	DeletionService      *services.DeletionService

	// Browser messaging
	Hub    *messaging.Hub
	Opener *messaging.OpenerChannel
	Popups *messaging.PopupRegistry

	// Background workers
	SessionCleanup *cleanup.Worker

	// Infrastructure Dependencies
	DB          *database.DB
	Catalog     *catalog.Catalog
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker
	Metrics     *prometheus.Registry

	JWTSecret         string
	InstagramRedirect string
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger, opts Options) (*Container, error) {
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	perfTracker := performance.NewTracker(nil, registry)

	personaCatalog, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load persona catalog: %w", err)
	}

	api := opts.Instagram
	if api == nil {
		api = instagram.NewClient(instagram.OptionsFromConfig(), logger)
	}
	transcriber := opts.Transcriber
	if transcriber == nil {
		transcriber = transcription.NewAssemblyAITranscriber(config.AssemblyAIAPIKey, config.TranscribeTimeout, logger)
	}

	// Repositories
	analysisRepo := viberepo.NewSQLAnalysisRepository(db, logger)
	tokenCipher, err := security.NewTokenCipher(opts.AESKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cipher: %w", err)
	}
	sessionRepo := instagramrepo.NewSQLSessionRepository(db, tokenCipher, logger)
	deletionRepo := instagramrepo.NewSQLDeletionRepository(db, logger)

	// Browser messaging
	hub := messaging.NewHub(logger)
	opener := messaging.NewOpenerChannel(logger)
	popups := messaging.NewPopupRegistry(hub, logger)
	hub.OnMessage(func(visitorID string, msg messaging.Message) {
		if msg.Type == messaging.MessagePopupClosed {
			popups.MarkClosed(visitorID)
		}
	})

	// Analysis
	suggestionService := services.NewSuggestionService(personaCatalog)
	analysisService := services.NewAnalysisService(personaCatalog, suggestionService, logger, perfTracker,
		services.WithAnalysisDelay(config.AnalysisDelay),
		services.WithTranscriber(transcriber),
	)
	profileService, err := services.NewProfileService(analysisRepo, config.ProfileCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile service: %w", err)
	}
	shareService := services.NewShareService(config.InstagramShareBaseURL)

	// Instagram
	tokenService := services.NewTokenExchangeService(api, logger, perfTracker)
	oauthService := services.NewOAuthService(services.OAuthConfig{
		Origin:          config.AppOrigin,
		SessionValidity: config.SessionValidity,
		PollInterval:    config.AuthPopupPollInterval,
		FlowTimeout:     config.AuthFlowTimeout,
	}, services.OAuthDeps{
		API:      api,
		Tokens:   tokenService,
		Sessions: sessionRepo,
		States:   services.NewStateStore(0, config.OAuthStateTTL),
		Opener:   opener,
		Windows:  services.NewWindowOpener(popups),
		Notifier: hub,
		Share:    shareService,
	}, logger, perfTracker)
	deletionService := services.NewDeletionService(sessionRepo, deletionRepo, config.InstagramAppSecret, logger)

	if err := registry.Register(monitoring.NewRealtimeCollector("vibecheck", hub, opener, oauthService)); err != nil {
		return nil, fmt.Errorf("failed to register realtime collector: %w", err)
	}

	return &Container{
		AnalysisService:       analysisService,
		SuggestionService:     suggestionService,
		RecommendationService: services.NewRecommendationService(personaCatalog),
		ProfileService:        profileService,
		ShareService:          shareService,

		OAuthService:         oauthService,
		TokenExchangeService: tokenService,
		DeletionService:      deletionService,

		Hub:    hub,
		Opener: opener,
		Popups: popups,

		SessionCleanup: cleanup.NewWorker(sessionRepo, cleanup.NewConfig(), logger, perfTracker),

		DB:          db,
		Catalog:     personaCatalog,
		Logger:      logger,
		PerfTracker: perfTracker,
		Metrics:     registry,

		JWTSecret:         opts.JWTSecret,
		InstagramRedirect: api.RedirectURI(),
	}, nil
}
