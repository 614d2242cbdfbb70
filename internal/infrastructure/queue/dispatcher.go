package queue

import (
	"context"
	"hash/fnv"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/vidhub/platform-api/internal/api/metrics"
	"github.com/vidhub/platform-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// HistoryAppend is a single watch-history write waiting to be applied.
type HistoryAppend struct {
	UserID  string
	VideoID string
}

// HistoryDispatcher applies watch-history appends asynchronously through a
// fixed set of workers, sharded by user id with consistent hashing so one
// user's appends are serialized and the stored order matches watch order.
type HistoryDispatcher struct {
	workers []chan HistoryAppend
	repo    ports.UserRepository
	log     zerolog.Logger
}

// NewHistoryDispatcher creates a HistoryDispatcher with numWorkers sharded
// workers. If numWorkers <= 0, defaultWorkers is used.
func NewHistoryDispatcher(numWorkers int, repo ports.UserRepository, log zerolog.Logger) *HistoryDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &HistoryDispatcher{
		workers: make([]chan HistoryAppend, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan HistoryAppend, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *HistoryDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an append to the worker responsible for its user id. The
// send never blocks: when the worker's buffer is full the append is dropped
// and Enqueue reports false, so a stalled worker cannot pin request
// goroutines.
func (d *HistoryDispatcher) Enqueue(a HistoryAppend) bool {
	idx := d.shardIndex(a.UserID)
	select {
	case d.workers[idx] <- a:
		metrics.HistoryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.HistoryQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		metrics.HistoryAppendErrorsTotal.Inc()
		d.log.Warn().
			Str("user_id", a.UserID).
			Str("video_id", a.VideoID).
			Int("worker_id", idx).
			Msg("history queue full, append dropped")
		return false
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *HistoryDispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *HistoryDispatcher) runWorker(ctx context.Context, id int, ch <-chan HistoryAppend) {
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-ch:
			if !ok {
				return
			}
			if err := d.repo.AppendWatchHistory(ctx, a.UserID, a.VideoID); err != nil {
				metrics.HistoryAppendErrorsTotal.Inc()
				d.log.Error().Err(err).
					Str("user_id", a.UserID).
					Str("video_id", a.VideoID).
					Int("worker_id", id).
					Msg("watch history append failed")
				continue
			}
			metrics.HistoryAppendsTotal.Inc()
		}
	}
}
