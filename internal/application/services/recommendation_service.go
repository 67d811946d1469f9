package services

import (
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/catalog"
)

// RecommendationService looks up the hashtag, song and timing bundles per
// persona. Unknown ids get the default persona's bundle. Trending and optimal
// flags are positional.
type RecommendationService struct {
	catalog *catalog.Catalog
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(c *catalog.Catalog) *RecommendationService {
	return &RecommendationService{catalog: c}
}

// HashtagsFor returns the persona's hashtags, the first eight flagged trending.
func (s *RecommendationService) HashtagsFor(personaID string) []vibe.Hashtag {
	src := s.catalog.ProfileOrDefault(personaID).Recommendations.Hashtags
	out := make([]vibe.Hashtag, len(src))
	for i, h := range src {
		h.Trending = i < vibe.TrendingHashtagCount
		out[i] = h
	}
	return out
}

// SongsFor returns the persona's songs, the first two flagged trending.
func (s *RecommendationService) SongsFor(personaID string) []vibe.Song {
	src := s.catalog.ProfileOrDefault(personaID).Recommendations.Songs
	out := make([]vibe.Song, len(src))
	for i, song := range src {
		song.Trending = i < vibe.TrendingSongCount
		out[i] = song
	}
	return out
}

// TimingFor returns the persona's posting slots, the first flagged optimal.
func (s *RecommendationService) TimingFor(personaID string) []vibe.Timing {
	src := s.catalog.ProfileOrDefault(personaID).Recommendations.Timing
	out := make([]vibe.Timing, len(src))
	for i, slot := range src {
		slot.Optimal = i < vibe.OptimalTimingCount
		out[i] = slot
	}
	return out
}

// For bundles all three lookups.
func (s *RecommendationService) For(personaID string) vibe.Recommendations {
	return vibe.Recommendations{
		Hashtags: s.HashtagsFor(personaID),
		Songs:    s.SongsFor(personaID),
		Timing:   s.TimingFor(personaID),
	}
}

// Trending returns the landing-page snapshot.
func (s *RecommendationService) Trending() vibe.TrendingSnapshot {
	return s.catalog.Trending()
}

// Personas returns the catalog in order.
func (s *RecommendationService) Personas() []vibe.Persona {
	return s.catalog.Personas()
}
