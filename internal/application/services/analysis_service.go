package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/catalog"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
)

// Scoring constants.
const (
	BaseScoreMin    = 30
	BaseScoreMax    = 70
	KeywordBoost    = 15
	MaxKeywordBoost = 30
)

// Transcriber turns a media URL into text.
type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, mediaURL string) (string, error)
}

// AnalysisService scores content against every catalog persona.
type AnalysisService struct {
	catalog     *catalog.Catalog
	suggestions *SuggestionService
	transcriber Transcriber
	rng         RandomSource
	delay       time.Duration
	now         func() time.Time
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// AnalysisOption customises an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithRandomSource replaces the time-seeded source.
func WithRandomSource(rng RandomSource) AnalysisOption {
	return func(s *AnalysisService) { s.rng = rng }
}

// WithAnalysisDelay adds artificial latency before each result.
func WithAnalysisDelay(d time.Duration) AnalysisOption {
	return func(s *AnalysisService) { s.delay = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) AnalysisOption {
	return func(s *AnalysisService) { s.now = now }
}

// WithTranscriber enables media transcription for AnalyzeSubmission.
func WithTranscriber(t Transcriber) AnalysisOption {
	return func(s *AnalysisService) { s.transcriber = t }
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(c *catalog.Catalog, suggestions *SuggestionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		catalog:     c,
		suggestions: suggestions,
		rng:         NewTimeSeededRandom(),
		now:         time.Now,
		logger:      logger,
		perfTracker: perfTracker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze produces a fresh result for content. It only fails when ctx ends
// during the configured delay.
func (s *AnalysisService) Analyze(ctx context.Context, content string) (*vibe.AnalysisResult, error) {
	marker := s.perfTracker.StartOperation("analyze_content")
	defer marker.Complete()

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			marker.SetError(ctx.Err())
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	lower := strings.ToLower(content)
	personas := s.catalog.Personas()
	scored := make([]vibe.ScoredPersona, 0, len(personas))
	for _, p := range personas {
		score := uniformInclusive(s.rng, BaseScoreMin, BaseScoreMax) + KeywordBoostFor(lower, p.Keywords)
		if score > vibe.MaxPersonaScore {
			score = vibe.MaxPersonaScore
		}
		scored = append(scored, vibe.ScoredPersona{
			Persona:  p,
			Score:    score,
			Feedback: s.pickFeedback(p.ID),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	result := &vibe.AnalysisResult{
		ID:           security.NewAnalysisID(),
		OverallScore: uniformInclusive(s.rng, vibe.MinOverallScore, vibe.MaxOverallScore),
		Personas:     scored,
		Suggestions:  s.suggestions.Suggestions(content),
		CreatedAt:    s.now().UTC(),
	}

	marker.SetSuccess(true)
	if top, ok := result.TopPersona(); ok {
		s.logger.Analysis().Info("Content analyzed", "analysisId", result.ID, "overallScore", result.OverallScore, "topPersona", top.ID, "topScore", top.Score)
	}
	return result, nil
}

// AnalyzeSubmission analyzes a caption and, when a media URL is given and
// transcription is enabled, the media's transcript appended to it. A failed
// transcription is logged and the caption is scored alone.
func (s *AnalysisService) AnalyzeSubmission(ctx context.Context, content, mediaURL string) (*vibe.AnalysisResult, error) {
	if mediaURL != "" && s.transcriber != nil && s.transcriber.Enabled() {
		transcript, err := s.transcriber.Transcribe(ctx, mediaURL)
		if err != nil {
			s.logger.Analysis().Warn("Media transcription failed, scoring caption only", "error", err.Error())
		} else if transcript != "" {
			content = strings.TrimSpace(content + "\n" + transcript)
		}
	}
	return s.Analyze(ctx, content)
}

func (s *AnalysisService) pickFeedback(personaID string) string {
	pool := s.catalog.FeedbackPool(personaID)
	return pool[s.rng.Intn(len(pool))]
}

// KeywordBoostFor returns the capped boost for lowerContent, which must already
// be lower-cased. Each distinct keyword found as a substring counts once.
func KeywordBoostFor(lowerContent string, keywords []string) int {
	seen := make(map[string]bool, len(keywords))
	boost := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		if strings.Contains(lowerContent, kw) {
			boost += KeywordBoost
			if boost >= MaxKeywordBoost {
				return MaxKeywordBoost
			}
		}
	}
	return boost
}
