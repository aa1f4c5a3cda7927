package world

import (
	"context"
	"sync"
)

// Readiness is a one-shot completion signal for background world preparation.
type Readiness struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newReadiness() *Readiness {
	return &Readiness{done: make(chan struct{})}
}

// Done returns a signal that is already complete, for arenas that need no preparation.
func Done() *Readiness {
	r := newReadiness()
	r.resolve(nil)
	return r
}

func (r *Readiness) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Ready reports whether preparation finished, successfully or not. It never blocks.
func (r *Readiness) Ready() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Err returns the preparation error. It is nil until Ready reports true.
func (r *Readiness) Err() error {
	if !r.Ready() {
		return nil
	}
	return r.err
}

// Wait blocks until preparation finishes or ctx is done.
func (r *Readiness) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
