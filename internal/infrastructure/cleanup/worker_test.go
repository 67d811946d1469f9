package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type countingStore struct {
	mu      sync.Mutex
	calls   int
	removed int64
	err     error
	lastNow time.Time
}

func (s *countingStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastNow = now
	return s.removed, s.err
}

func (s *countingStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestWorker(store ExpiredSessionStore, interval time.Duration) *Worker {
	return NewWorker(store, &Config{Interval: interval}, logging.NewDiscardLogger(), performance.NewTracker(nil, prometheus.NewRegistry()))
}

func TestSweep(t *testing.T) {
	store := &countingStore{removed: 3}
	w := newTestWorker(store, time.Minute)
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.FixedZone("X", 3600))
	w.now = func() time.Time { return fixed }

	assert.Equal(t, int64(3), w.Sweep(context.Background()))
	assert.Equal(t, time.UTC, store.lastNow.Location())
	assert.True(t, fixed.Equal(store.lastNow))

	store.err = errors.New("locked")
	assert.Zero(t, w.Sweep(context.Background()))
}

func TestStart_RunsUntilCancelled(t *testing.T) {
	store := &countingStore{}
	w := newTestWorker(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStart_DisabledReturnsImmediately(t *testing.T) {
	w := newTestWorker(&countingStore{}, 0)
	w.Start(context.Background())
}
