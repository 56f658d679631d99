package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralir/spiral/internal/value"
)

// TestChannel_FIFOBuffered tests spec.md §8: send(1),send(2),send(3) then
// recv,recv,recv yields 1,2,3 in order.
func TestChannel_FIFOBuffered(t *testing.T) {
	ch := NewChannel(3)
	ctx := context.Background()
	for _, n := range []int64{1, 2, 3} {
		require.False(t, value.IsError(ch.Send(ctx, value.Int(n))))
	}
	for _, want := range []int64{1, 2, 3} {
		got := ch.Recv(ctx)
		require.False(t, value.IsError(got))
		assert.Equal(t, value.Int(want), got)
	}
}

// TestChannel_Rendezvous tests spec.md §8 scenario 5: a concurrent send
// and recv on a capacity-0 channel both complete, and recv observes the
// sent value.
func TestChannel_Rendezvous(t *testing.T) {
	ch := NewChannel(0)
	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		errv := ch.Send(ctx, value.Int(42))
		assert.False(t, value.IsError(errv))
	}()
	got := ch.Recv(ctx)
	wg.Wait()
	assert.Equal(t, value.Int(42), got)
}

// TestChannel_CloseDrainsThenFails tests spec.md §8 scenario 6: capacity-3
// channel send(1),send(2),send(3),close() then recv x3 drains the buffer,
// and the next recv fails with ChannelClosed.
func TestChannel_CloseDrainsThenFails(t *testing.T) {
	ch := NewChannel(3)
	ctx := context.Background()
	for _, n := range []int64{1, 2, 3} {
		ch.Send(ctx, value.Int(n))
	}
	ch.Close()
	for _, want := range []int64{1, 2, 3} {
		got := ch.Recv(ctx)
		require.False(t, value.IsError(got))
		assert.Equal(t, value.Int(want), got)
	}
	after := ch.Recv(ctx)
	require.True(t, value.IsError(after))
	assert.Equal(t, "ChannelClosed", after.Error.Code)

	sendAfter := ch.Send(ctx, value.Int(99))
	require.True(t, value.IsError(sendAfter))
	assert.Equal(t, "ChannelClosed", sendAfter.Error.Code)

	// idempotent
	ch.Close()
}

// TestChannel_CloseUnblocksWaitingReceiver tests that a receiver blocked
// on an empty channel is released with ChannelClosed as soon as it closes.
func TestChannel_CloseUnblocksWaitingReceiver(t *testing.T) {
	ch := NewChannel(0)
	ctx := context.Background()
	done := make(chan value.V, 1)
	go func() { done <- ch.Recv(ctx) }()
	time.Sleep(10 * time.Millisecond)
	ch.Close()
	select {
	case got := <-done:
		require.True(t, value.IsError(got))
		assert.Equal(t, "ChannelClosed", got.Error.Code)
	case <-time.After(time.Second):
		t.Fatal("receiver was not released by Close")
	}
}

// TestMutex_WithLockSerializes tests spec.md §8: two withLock calls
// serialize rather than interleave.
func TestMutex_WithLockSerializes(t *testing.T) {
	m := NewMutex()
	ctx := context.Background()
	var order []int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.WithLock(ctx, func() value.V {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				return value.Void()
			})
		}(i)
	}
	wg.Wait()
	assert.Len(t, order, 5)
}

// TestMutex_WithLockReleasesOnFailure tests that a failing body still
// releases the lock, so a subsequent acquire succeeds.
func TestMutex_WithLockReleasesOnFailure(t *testing.T) {
	m := NewMutex()
	ctx := context.Background()
	result := m.WithLock(ctx, func() value.V {
		return value.Err("DomainError", "boom", nil)
	})
	require.True(t, value.IsError(result))

	acquired := make(chan struct{})
	go func() {
		m.WithLock(ctx, func() value.V { close(acquired); return value.Void() })
	}()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("mutex was not released after a failing withLock")
	}
}

// TestBarrier_ReleasesAllAtCount tests spec.md §8: n waiters all release
// only when the n-th arrives.
func TestBarrier_ReleasesAllAtCount(t *testing.T) {
	b := NewBarrier(3)
	var wg sync.WaitGroup
	released := make(chan int, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Wait()
			released <- i
		}(i)
	}
	wg.Wait()
	close(released)
	assert.Len(t, released, 3)
}

// TestEffectLog_MonotonicAndPerTask tests spec.md §8: sequence numbers are
// monotonic, getByTask preserves program order, discardTask removes
// exactly that task's entries.
func TestEffectLog_MonotonicAndPerTask(t *testing.T) {
	log := NewEffectLog()
	log.Append("t1", "op1", nil, "", "")
	log.Append("t2", "op1", nil, "", "")
	log.Append("t1", "op2", nil, "", "")

	all := log.Entries()
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Seq, all[i-1].Seq)
	}

	t1 := log.ByTask("t1")
	require.Len(t, t1, 2)
	assert.Equal(t, "op1", t1[0].Op)
	assert.Equal(t, "op2", t1[1].Op)

	log.DiscardTask("t1")
	remaining := log.Entries()
	require.Len(t, remaining, 1)
	assert.Equal(t, "t2", remaining[0].TaskID)
}

// TestRefCellStore_GetOrCreateIsStable tests that repeated GetOrCreate
// calls for the same name return the same cell.
func TestRefCellStore_GetOrCreateIsStable(t *testing.T) {
	s := NewRefCellStore()
	a := s.GetOrCreate("x", value.Int(1))
	b := s.GetOrCreate("x", value.Int(999))
	assert.Same(t, a, b)
	assert.Equal(t, value.Int(1), a.GetUnsafe())
}

// TestChannelStore_CreateIDsAreMonotonic tests the ch_N id scheme.
func TestChannelStore_CreateIDsAreMonotonic(t *testing.T) {
	s := NewChannelStore()
	id1 := s.Create(1)
	id2 := s.Create(1)
	assert.Equal(t, "ch_1", id1)
	assert.Equal(t, "ch_2", id2)

	s.Delete(id1)
	_, ok := s.Get(id1)
	assert.False(t, ok)
}
