package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/repositories"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	lru "github.com/hashicorp/golang-lru/v2"
)

// visitorProfile is the cached per-visitor state: the history tracker and the
// most recent full result.
type visitorProfile struct {
	tracker *vibe.ProfileTracker
	mu      sync.RWMutex
	last    *vibe.AnalysisResult
}

// ProfileService owns one ProfileTracker per visitor. Trackers are seeded from
// the AnalysisRepository and kept in an LRU cache.
type ProfileService struct {
	repo   repositories.AnalysisRepository
	cache  *lru.Cache[string, *visitorProfile]
	loadMu sync.Mutex
	now    func() time.Time
	logger *logging.ChanneledLogger
}

// NewProfileService creates a profile service caching up to cacheSize visitors.
func NewProfileService(repo repositories.AnalysisRepository, cacheSize int, logger *logging.ChanneledLogger) (*ProfileService, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, *visitorProfile](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}
	return &ProfileService{
		repo:   repo,
		cache:  cache,
		now:    time.Now,
		logger: logger,
	}, nil
}

func (s *ProfileService) load(ctx context.Context, visitorID string) (*visitorProfile, error) {
	if p, ok := s.cache.Get(visitorID); ok {
		return p, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if p, ok := s.cache.Get(visitorID); ok {
		return p, nil
	}

	history, err := s.repo.FindByVisitor(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis history: %w", err)
	}
	p := &visitorProfile{tracker: vibe.NewProfileTracker(history)}
	s.cache.Add(visitorID, p)
	s.logger.Analysis().Debug("Profile tracker loaded", "visitorId", logging.SanitizeID(visitorID), "records", len(history))
	return p, nil
}

// Tracker returns the visitor's tracker, loading it on first use.
func (s *ProfileService) Tracker(ctx context.Context, visitorID string) (*vibe.ProfileTracker, error) {
	p, err := s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	return p.tracker, nil
}

// Record appends result to the visitor's history and remembers it as the
// visitor's current result.
func (s *ProfileService) Record(ctx context.Context, visitorID string, result *vibe.AnalysisResult) (vibe.AnalysisRecord, error) {
	p, err := s.load(ctx, visitorID)
	if err != nil {
		return vibe.AnalysisRecord{}, err
	}

	p.mu.Lock()
	p.last = result
	p.mu.Unlock()

	rec, ok := p.tracker.Record(result, s.now().UTC())
	if !ok {
		return vibe.AnalysisRecord{}, nil
	}
	if err := s.repo.Append(ctx, visitorID, rec); err != nil {
		s.logger.LogError(logging.ChannelAnalysis, "record_analysis", err, map[string]any{"visitorId": logging.SanitizeID(visitorID)})
		return rec, fmt.Errorf("failed to persist analysis record: %w", err)
	}
	return rec, nil
}

// LastResult returns the visitor's most recent result since the tracker was
// loaded, or nil.
func (s *ProfileService) LastResult(ctx context.Context, visitorID string) (*vibe.AnalysisResult, error) {
	p, err := s.load(ctx, visitorID)
	if err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, nil
}

// Summary snapshots the visitor's profile.
func (s *ProfileService) Summary(ctx context.Context, visitorID string) (vibe.ProfileSummary, error) {
	tracker, err := s.Tracker(ctx, visitorID)
	if err != nil {
		return vibe.ProfileSummary{}, err
	}
	return tracker.Summary(), nil
}
