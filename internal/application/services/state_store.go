package services

import (
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/security"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const stateTokenBytes = 24

// StateStore holds OAuth state values for in-flight connect attempts. Each
// state maps to the visitor that issued it and can be consumed once.
type StateStore struct {
	states *expirable.LRU[string, string]
}

// NewStateStore creates a store holding up to size states for ttl each.
func NewStateStore(size int, ttl time.Duration) *StateStore {
	if size <= 0 {
		size = 4096
	}
	return &StateStore{states: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Issue generates and stores a fresh state for visitorID.
func (s *StateStore) Issue(visitorID string) (string, error) {
	state, err := security.NewOAuthState(stateTokenBytes)
	if err != nil {
		return "", err
	}
	s.states.Add(state, visitorID)
	return state, nil
}

// Consume returns the visitor that issued state and forgets it. Only the
// caller whose Remove actually evicts the entry wins a concurrent race.
func (s *StateStore) Consume(state string) (string, bool) {
	visitorID, ok := s.states.Peek(state)
	if !ok {
		return "", false
	}
	if !s.states.Remove(state) {
		return "", false
	}
	return visitorID, true
}

// Discard forgets state if it is still held.
func (s *StateStore) Discard(state string) {
	s.states.Remove(state)
}
