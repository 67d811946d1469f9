// Package vibe provides domain entities for persona scoring, recommendations
// and per-visitor analysis history.
package vibe

// DefaultPersonaID is the persona whose recommendation bundle backs unknown ids.
const DefaultPersonaID = "aesthetic"

// Persona is one of the fixed content-style categories ("tribes") content is scored against.
type Persona struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"name" yaml:"name"`
	Emoji       string   `json:"emoji" yaml:"emoji"`
	Description string   `json:"description" yaml:"description"`
	Color       string   `json:"color" yaml:"color"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
}

// ScoredPersona is a persona with the score and feedback line from one analysis.
type ScoredPersona struct {
	Persona
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// PersonaProfile bundles everything the catalog knows about one persona.
type PersonaProfile struct {
	Persona         Persona
	Feedback        []string
	Recommendations Recommendations
}
