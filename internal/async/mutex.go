package async

import (
	"context"

	"github.com/spiralir/spiral/internal/value"
)

// Mutex is a FIFO mutual-exclusion lock (spec.md §4.9). It is implemented
// as the classic Go "channel as a one-token bucket" idiom rather than
// sync.Mutex: a size-1 buffered channel gives the same happens-before
// guarantees as sync.Mutex but additionally composes with ctx
// cancellation and preserves waiter order, which the spec requires and
// sync.Mutex does not promise.
type Mutex struct {
	tokens chan struct{}
}

func NewMutex() *Mutex {
	m := &Mutex{tokens: make(chan struct{}, 1)}
	m.tokens <- struct{}{}
	return m
}

// Acquire blocks until the lock is held or ctx is cancelled.
func (m *Mutex) Acquire(ctx context.Context) value.V {
	select {
	case <-m.tokens:
		return value.Void()
	case <-ctx.Done():
		return value.Err("Cancelled", ctx.Err().Error(), nil)
	}
}

// Release hands the lock to the next FIFO waiter, if any. Releasing an
// unheld mutex is a caller bug; spec.md documents recursive acquisition
// (and, by extension, an unbalanced release) as an intentional deadlock
// rather than a guarded error.
func (m *Mutex) Release() {
	m.tokens <- struct{}{}
}

// WithLock acquires, runs f, and releases on every exit path including
// panic/failure, per spec.md §4.9.
func (m *Mutex) WithLock(ctx context.Context, f func() value.V) value.V {
	if errv := m.Acquire(ctx); value.IsError(errv) {
		return errv
	}
	defer m.Release()
	return f()
}
