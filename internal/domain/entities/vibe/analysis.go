package vibe

import "time"

// Score bounds for an analysis.
const (
	MinPersonaScore = 0
	MaxPersonaScore = 100
	MinOverallScore = 70
	MaxOverallScore = 100
	MaxSuggestions  = 4
)

// Suggestion is a generic or content-conditional posting tip.
type Suggestion struct {
	Icon        string `json:"icon" yaml:"icon"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// AnalysisResult is the outcome of scoring one piece of content. A new
// analysis replaces the previous result wholesale.
type AnalysisResult struct {
	ID           string          `json:"id"`
	OverallScore int             `json:"overallScore"`
	Personas     []ScoredPersona `json:"tribes"`
	Suggestions  []Suggestion    `json:"suggestions"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// TopPersona returns the highest ranked persona, or false for an empty result.
func (r *AnalysisResult) TopPersona() (ScoredPersona, bool) {
	if r == nil || len(r.Personas) == 0 {
		return ScoredPersona{}, false
	}
	return r.Personas[0], true
}

// AnalysisRecord is one history entry kept by the profile tracker.
type AnalysisRecord struct {
	Score          int       `json:"score"`
	TopPersonaName string    `json:"topTribe"`
	Timestamp      time.Time `json:"timestamp"`
}
