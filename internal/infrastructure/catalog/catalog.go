// Package catalog loads the static persona catalog: personas, feedback pools,
// recommendation bundles, suggestion tips and the trending snapshot.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

type personaDoc struct {
	vibe.Persona    `yaml:",inline"`
	Feedback        []string             `yaml:"feedback"`
	Recommendations vibe.Recommendations `yaml:"recommendations"`
}

type conditionalDoc struct {
	Match      string          `yaml:"match"`
	Suggestion vibe.Suggestion `yaml:"suggestion"`
}

type catalogDoc struct {
	Personas         []personaDoc `yaml:"personas"`
	FallbackFeedback []string     `yaml:"fallback_feedback"`
	Suggestions      struct {
		Base        []vibe.Suggestion `yaml:"base"`
		Conditional []conditionalDoc  `yaml:"conditional"`
	} `yaml:"suggestions"`
	Trending vibe.TrendingSnapshot `yaml:"trending"`
}

// ConditionalSuggestion is appended when content contains Match (case-insensitive).
type ConditionalSuggestion struct {
	Match      string
	Suggestion vibe.Suggestion
}

// Catalog is the immutable persona catalog. Persona order is catalog order
// and is the tie order for scoring.
type Catalog struct {
	personas         []vibe.Persona
	profiles         map[string]*vibe.PersonaProfile
	fallbackFeedback []string
	baseSuggestions  []vibe.Suggestion
	conditional      []ConditionalSuggestion
	trending         vibe.TrendingSnapshot
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// MustLoad parses the embedded catalog and panics on a malformed document.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from a YAML document.
func Parse(data []byte) (*Catalog, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse persona catalog: %w", err)
	}
	if len(doc.Personas) == 0 {
		return nil, fmt.Errorf("persona catalog is empty")
	}

	c := &Catalog{
		profiles:         make(map[string]*vibe.PersonaProfile, len(doc.Personas)),
		fallbackFeedback: doc.FallbackFeedback,
		baseSuggestions:  doc.Suggestions.Base,
		trending:         doc.Trending,
	}
	for _, p := range doc.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona catalog entry %q has no id", p.DisplayName)
		}
		if _, dup := c.profiles[p.ID]; dup {
			return nil, fmt.Errorf("persona catalog has duplicate id %q", p.ID)
		}
		c.personas = append(c.personas, p.Persona)
		c.profiles[p.ID] = &vibe.PersonaProfile{
			Persona:         p.Persona,
			Feedback:        p.Feedback,
			Recommendations: p.Recommendations,
		}
	}
	if _, ok := c.profiles[vibe.DefaultPersonaID]; !ok {
		return nil, fmt.Errorf("persona catalog is missing default persona %q", vibe.DefaultPersonaID)
	}
	if len(c.fallbackFeedback) == 0 {
		c.fallbackFeedback = []string{"Interesting content detected"}
	}
	for _, cond := range doc.Suggestions.Conditional {
		c.conditional = append(c.conditional, ConditionalSuggestion(cond))
	}

	return c, nil
}

// Personas returns the personas in catalog order. The slice is a copy.
func (c *Catalog) Personas() []vibe.Persona {
	return append([]vibe.Persona(nil), c.personas...)
}

// Lookup returns the profile for id without falling back.
func (c *Catalog) Lookup(id string) (*vibe.PersonaProfile, bool) {
	p, ok := c.profiles[id]
	return p, ok
}

// ProfileOrDefault returns the profile for id, or the default persona's profile
// when id is unknown.
func (c *Catalog) ProfileOrDefault(id string) *vibe.PersonaProfile {
	if p, ok := c.profiles[id]; ok {
		return p
	}
	return c.profiles[vibe.DefaultPersonaID]
}

// FeedbackPool returns the flavor lines for a persona id.
func (c *Catalog) FeedbackPool(id string) []string {
	if p, ok := c.profiles[id]; ok && len(p.Feedback) > 0 {
		return p.Feedback
	}
	return c.fallbackFeedback
}

// BaseSuggestions returns the always-included tips in order.
func (c *Catalog) BaseSuggestions() []vibe.Suggestion {
	return append([]vibe.Suggestion(nil), c.baseSuggestions...)
}

// ConditionalSuggestions returns the content-triggered tips in order.
func (c *Catalog) ConditionalSuggestions() []ConditionalSuggestion {
	return append([]ConditionalSuggestion(nil), c.conditional...)
}

// Trending returns the static trending snapshot.
func (c *Catalog) Trending() vibe.TrendingSnapshot {
	return c.trending
}
