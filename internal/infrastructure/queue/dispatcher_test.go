package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidhub/platform-api/internal/core/ports"
)

// appendRecorder records AppendWatchHistory calls; the embedded interface
// covers the repository methods the dispatcher never touches.
type appendRecorder struct {
	ports.UserRepository

	mu      sync.Mutex
	appends map[string][]string
	done    chan struct{}
	want    int
}

func newAppendRecorder(want int) *appendRecorder {
	return &appendRecorder{
		appends: map[string][]string{},
		done:    make(chan struct{}),
		want:    want,
	}
}

func (r *appendRecorder) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends[userID] = append(r.appends[userID], videoID)

	total := 0
	for _, vids := range r.appends {
		total += len(vids)
	}
	if total == r.want {
		close(r.done)
	}
	return nil
}

func TestShardIndexIsDeterministic(t *testing.T) {
	d := NewHistoryDispatcher(4, nil, zerolog.Nop())

	for _, userID := range []string{"user-a", "user-b", "user-c"} {
		first := d.shardIndex(userID)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, d.shardIndex(userID), "user %s", userID)
		}
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 4)
	}
}

func TestDispatcherPreservesPerUserOrder(t *testing.T) {
	videos := []string{"v1", "v2", "v3", "v4", "v5"}
	repo := newAppendRecorder(len(videos) * 2)
	d := NewHistoryDispatcher(4, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	// Interleave two users; each user's appends land on one worker, so the
	// stored order per user matches the enqueue order.
	for _, v := range videos {
		d.Enqueue(HistoryAppend{UserID: "user-a", VideoID: v})
		d.Enqueue(HistoryAppend{UserID: "user-b", VideoID: v})
	}

	select {
	case <-repo.done:
	case <-time.After(2 * time.Second):
		t.Fatal("appends not applied in time")
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Equal(t, videos, repo.appends["user-a"])
	require.Equal(t, videos, repo.appends["user-b"])
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	// No Start: nothing drains the buffer, so the shard fills up. A full
	// buffer must reject the append instead of blocking the caller.
	d := NewHistoryDispatcher(1, nil, zerolog.Nop())

	for i := 0; i < channelBuffer; i++ {
		require.True(t, d.Enqueue(HistoryAppend{UserID: "user-a", VideoID: "v"}))
	}
	assert.False(t, d.Enqueue(HistoryAppend{UserID: "user-a", VideoID: "overflow"}))
}

func TestDispatcherDefaultsWorkerCount(t *testing.T) {
	d := NewHistoryDispatcher(0, nil, zerolog.Nop())
	assert.Len(t, d.workers, defaultWorkers)
}
