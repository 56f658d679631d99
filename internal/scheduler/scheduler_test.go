package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiralir/spiral/internal/value"
)

func TestEagerScheduler_SpawnThenAwaitReturnsResult(t *testing.T) {
	s := NewEagerScheduler()
	s.Spawn("t1", func(ctx context.Context) value.V { return value.Int(7) })
	got := s.Await(context.Background(), "t1")
	assert.Equal(t, value.Int(7), got)
	assert.True(t, s.IsComplete("t1"))
}

func TestEagerScheduler_AwaitOnCompletedReturnsStoredResult(t *testing.T) {
	s := NewEagerScheduler()
	done := make(chan struct{})
	s.Spawn("t1", func(ctx context.Context) value.V {
		<-done
		return value.Int(1)
	})
	close(done)
	time.Sleep(20 * time.Millisecond)
	got := s.Await(context.Background(), "t1")
	assert.Equal(t, value.Int(1), got)
	got2 := s.Await(context.Background(), "t1")
	assert.Equal(t, value.Int(1), got2)
}

func TestEagerScheduler_CancelYieldsTaskCancelled(t *testing.T) {
	s := NewEagerScheduler()
	block := make(chan struct{})
	s.Spawn("t1", func(ctx context.Context) value.V {
		<-block
		return value.Int(1)
	})
	s.Cancel("t1")
	close(block)
	got := s.Await(context.Background(), "t1")
	require.True(t, value.IsError(got))
	assert.Equal(t, "TaskCancelled", got.Error.Code)
}

func TestEagerScheduler_CheckGlobalStepsExceedsLimit(t *testing.T) {
	s := NewEagerScheduler().WithGlobalMaxSteps(2)
	require.False(t, value.IsError(s.CheckGlobalSteps()))
	require.False(t, value.IsError(s.CheckGlobalSteps()))
	got := s.CheckGlobalSteps()
	require.True(t, value.IsError(got))
	assert.Equal(t, "GlobalStepLimit", got.Error.Code)
}

func TestDeterministicScheduler_SequentialRunsInSpawnOrder(t *testing.T) {
	s := NewDeterministicScheduler(Sequential)
	var order []string
	s.Spawn("a", func(ctx context.Context) value.V { order = append(order, "a"); return value.Int(1) })
	s.Spawn("b", func(ctx context.Context) value.V { order = append(order, "b"); return value.Int(2) })
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, value.Int(1), s.Await(context.Background(), "a"))
	assert.Equal(t, value.Int(2), s.Await(context.Background(), "b"))
}

func TestDeterministicScheduler_DepthFirstRunsLastSpawnedFirst(t *testing.T) {
	s := NewDeterministicScheduler(DepthFirst)
	var order []string
	body := func(name string) TaskBody {
		return func(ctx context.Context) value.V { order = append(order, name); return value.Void() }
	}
	s.Spawn("a", body("a"))
	s.Spawn("b", body("b"))
	s.Spawn("c", body("c"))
	s.Await(context.Background(), "a")
	s.Await(context.Background(), "b")
	s.Await(context.Background(), "c")
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestDeterministicScheduler_BreadthFirstRunsWaves(t *testing.T) {
	s := NewDeterministicScheduler(BreadthFirst)
	var order []string
	s.Spawn("a", func(ctx context.Context) value.V {
		order = append(order, "a")
		s.Spawn("child", func(ctx context.Context) value.V { order = append(order, "child"); return value.Void() })
		return value.Void()
	})
	s.Spawn("b", func(ctx context.Context) value.V { order = append(order, "b"); return value.Void() })
	s.Await(context.Background(), "child")
	assert.Equal(t, []string{"a", "b", "child"}, order)
}

func TestDeterministicScheduler_DisposeFailsCleanly(t *testing.T) {
	s := NewDeterministicScheduler(Sequential)
	s.Dispose()
	s.Spawn("a", func(ctx context.Context) value.V { return value.Int(1) })
	got := s.Await(context.Background(), "a")
	require.True(t, value.IsError(got))
}

func TestDeterministicScheduler_SnapshotRecordsOccurrenceOrder(t *testing.T) {
	s := NewDeterministicScheduler(Sequential)
	s.Spawn("a", func(ctx context.Context) value.V { return value.Void() })
	s.Await(context.Background(), "a")
	assert.Equal(t, []string{"spawn:a", "await:a"}, s.Snapshot())
}
