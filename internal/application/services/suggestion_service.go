package services

import (
	"strings"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/catalog"
)

// SuggestionService produces posting tips for a piece of content.
type SuggestionService struct {
	catalog *catalog.Catalog
}

// NewSuggestionService creates a new suggestion service.
func NewSuggestionService(c *catalog.Catalog) *SuggestionService {
	return &SuggestionService{catalog: c}
}

// Suggestions returns the base tips followed by any content-triggered tips,
// truncated to vibe.MaxSuggestions. With four base tips the triggered ones
// never survive the cut.
func (s *SuggestionService) Suggestions(content string) []vibe.Suggestion {
	lower := strings.ToLower(content)

	out := s.catalog.BaseSuggestions()
	for _, cond := range s.catalog.ConditionalSuggestions() {
		if strings.Contains(lower, strings.ToLower(cond.Match)) {
			out = append(out, cond.Suggestion)
		}
	}

	if len(out) > vibe.MaxSuggestions {
		out = out[:vibe.MaxSuggestions]
	}
	return out
}
