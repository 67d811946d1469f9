package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStore_ConcurrentConsumeHasOneWinner(t *testing.T) {
	store := NewStateStore(16, time.Minute)

	for round := 0; round < 50; round++ {
		state, err := store.Issue("visitor-1")
		require.NoError(t, err)

		var (
			wins  atomic.Int32
			start = make(chan struct{})
			wg    sync.WaitGroup
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if visitorID, ok := store.Consume(state); ok {
					assert.Equal(t, "visitor-1", visitorID)
					wins.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.EqualValues(t, 1, wins.Load(), "round %d", round)
	}
}

func TestStateStore_ExpiredStateIsRejected(t *testing.T) {
	store := NewStateStore(4, 20*time.Millisecond)

	state, err := store.Issue("visitor-1")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, ok := store.Consume(state)
	assert.False(t, ok)
}
