package app

import (
	"context"
	"sync"
	"time"

	"tnttag/internal/domain"
	"tnttag/internal/ports"
)

const (
	defaultRecorderCapacity = 64
	defaultRecordTimeout    = 5 * time.Second
)

// Recorder persists round results off the match loop. Submit never blocks;
// a single worker drains the queue in submission order.
type Recorder struct {
	stats   ports.StatsPort
	logger  Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	queue  chan domain.RoundResult
	done   chan struct{}
}

// NewRecorder starts a recorder with the given queue capacity (a default is used when <= 0).
func NewRecorder(stats ports.StatsPort, logger Logger, capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultRecorderCapacity
	}
	r := &Recorder{
		stats:   stats,
		logger:  logger,
		timeout: defaultRecordTimeout,
		queue:   make(chan domain.RoundResult, capacity),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Submit queues a result. It reports false when the queue is full or the recorder is closed.
func (r *Recorder) Submit(result domain.RoundResult) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("Recorder: dropping result after close (winner=%q)", result.Winner)
		return false
	}
	select {
	case r.queue <- result:
		return true
	default:
		r.logger.Warn("Recorder: queue full, dropping result (winner=%q, losers=%d)", result.Winner, len(result.Losers))
		return false
	}
}

// Close stops accepting results and waits until queued results are written
// or ctx is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for result := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.stats.RecordResult(ctx, result); err != nil {
			r.logger.Error("Recorder: failed to record result (winner=%q): %v", result.Winner, err)
		}
		cancel()
	}
}
