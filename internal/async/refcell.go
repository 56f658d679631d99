package async

import (
	"context"

	"github.com/spiralir/spiral/internal/value"
)

// RefCell is a single-slot mutable holder whose read/write/update are
// mutually serialized (spec.md §4.9). GetUnsafe/SetUnsafe bypass
// serialization entirely and exist only for test harnesses that need to
// observe or seed state without going through the lock.
type RefCell struct {
	mu    *Mutex
	value value.V
}

func NewRefCell(initial value.V) *RefCell {
	return &RefCell{mu: NewMutex(), value: initial}
}

func (r *RefCell) Read(ctx context.Context) value.V {
	return r.mu.WithLock(ctx, func() value.V { return r.value })
}

func (r *RefCell) Write(ctx context.Context, v value.V) value.V {
	return r.mu.WithLock(ctx, func() value.V {
		r.value = v
		return value.Void()
	})
}

// Update applies fn to the current value and stores the result, atomically
// with respect to other Read/Write/Update calls.
func (r *RefCell) Update(ctx context.Context, fn func(value.V) value.V) value.V {
	return r.mu.WithLock(ctx, func() value.V {
		r.value = fn(r.value)
		return r.value
	})
}

func (r *RefCell) GetUnsafe() value.V        { return r.value }
func (r *RefCell) SetUnsafe(v value.V) value.V { r.value = v; return value.Void() }
