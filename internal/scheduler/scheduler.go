// Package scheduler implements the SPIRAL task scheduler (spec.md §4.10,
// component I): the default eager scheduler used by real evaluation, and
// a deterministic scheduler used by tests to pin down interleaving.
package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"

	"github.com/spiralir/spiral/internal/value"
)

const (
	defaultYieldInterval = 100
	defaultGlobalMaxSteps = 1_000_000
)

// TaskBody is a spawned unit of work; it returns the future's eventual
// value (spec.md §4.10: `body: () -> Future<V>`, collapsed here to a
// direct value since the Go scheduler drives the future itself).
type TaskBody func(ctx context.Context) value.V

type taskState struct {
	mu       sync.Mutex
	done     chan struct{}
	result   value.V
	complete bool
	cancelled bool
}

// Scheduler is the contract every evaluator-facing component depends on
// (spec.md §9: "the scheduler API is the only contract other components
// depend on").
type Scheduler interface {
	Spawn(taskID string, body TaskBody)
	Await(ctx context.Context, taskID string) value.V
	Cancel(taskID string)
	IsComplete(taskID string) bool
	CheckGlobalSteps() value.V
	CurrentTaskID() string
	SetCurrentTaskID(id string)
	ActiveTaskCount() int
	GlobalSteps() int64
}

// EagerScheduler is the default scheduler: tasks run on their own
// goroutine starting immediately on Spawn (spec.md: "to avoid deadlocks
// in chained spawn/await"), and Await blocks on the task's completion
// channel.
type EagerScheduler struct {
	tasks         *xsync.MapOf[string, *taskState]
	yieldInterval int64
	globalMax     int64
	globalSteps   atomic.Int64
	activeTasks   atomic.Int64

	curMu   sync.Mutex
	current string

	logger zerolog.Logger
}

func NewEagerScheduler() *EagerScheduler {
	return &EagerScheduler{
		tasks:         xsync.NewMapOf[string, *taskState](),
		yieldInterval: defaultYieldInterval,
		globalMax:     defaultGlobalMaxSteps,
		logger:        zerolog.Nop(),
	}
}

// WithLogger attaches a logger used for task lifecycle events (spawn,
// cancel, global step exhaustion). Unset, the scheduler logs nothing.
func (s *EagerScheduler) WithLogger(logger zerolog.Logger) *EagerScheduler {
	s.logger = logger
	return s
}

func (s *EagerScheduler) WithYieldInterval(n int64) *EagerScheduler {
	s.yieldInterval = n
	return s
}

func (s *EagerScheduler) WithGlobalMaxSteps(n int64) *EagerScheduler {
	s.globalMax = n
	return s
}

func (s *EagerScheduler) Spawn(taskID string, body TaskBody) {
	st := &taskState{done: make(chan struct{})}
	s.tasks.Store(taskID, st)
	s.activeTasks.Add(1)
	s.logger.Debug().Str("task_id", taskID).Msg("task spawned")
	go func() {
		result := body(context.Background())
		st.mu.Lock()
		if !st.cancelled {
			st.result = result
			st.complete = true
		}
		st.mu.Unlock()
		close(st.done)
		s.activeTasks.Add(-1)
		s.logger.Debug().Str("task_id", taskID).Bool("is_error", value.IsError(result)).Msg("task completed")
	}()
}

func (s *EagerScheduler) Await(ctx context.Context, taskID string) value.V {
	st, ok := s.tasks.Load(taskID)
	if !ok {
		return value.Err("ValidationError", fmt.Sprintf("await on unknown task %q", taskID), nil)
	}
	st.mu.Lock()
	if st.complete {
		result := st.result
		st.mu.Unlock()
		return result
	}
	if st.cancelled {
		st.mu.Unlock()
		return value.Err("TaskCancelled", fmt.Sprintf("task %q was cancelled", taskID), nil)
	}
	st.mu.Unlock()

	select {
	case <-st.done:
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.cancelled {
			return value.Err("TaskCancelled", fmt.Sprintf("task %q was cancelled", taskID), nil)
		}
		return st.result
	case <-ctx.Done():
		return value.Err("Cancelled", ctx.Err().Error(), nil)
	}
}

// Cancel marks the task cancelled; a subsequent Await yields TaskCancelled
// (spec.md §5). The entry stays in s.tasks so that Await — which may race
// Cancel, or may run well after it — always finds the cancelled flag
// rather than an unknown-task error.
func (s *EagerScheduler) Cancel(taskID string) {
	if st, ok := s.tasks.Load(taskID); ok {
		st.mu.Lock()
		st.cancelled = true
		st.mu.Unlock()
	}
	s.logger.Debug().Str("task_id", taskID).Msg("task cancelled")
}

func (s *EagerScheduler) IsComplete(taskID string) bool {
	st, ok := s.tasks.Load(taskID)
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.complete
}

// CheckGlobalSteps increments the global step counter; exceeding
// globalMaxSteps fails with GlobalStepLimit (spec.md §4.10). Every
// yieldInterval steps it also yields the processor (runtime.Gosched) so
// other tasks get to run.
func (s *EagerScheduler) CheckGlobalSteps() value.V {
	n := s.globalSteps.Add(1)
	if s.yieldInterval > 0 && n%s.yieldInterval == 0 {
		runtime.Gosched()
	}
	if n > s.globalMax {
		s.logger.Warn().Int64("steps", n).Int64("max", s.globalMax).Msg("global step budget exceeded")
		return value.Err("GlobalStepLimit", fmt.Sprintf("global step budget of %d exceeded", s.globalMax), nil)
	}
	return value.Void()
}

func (s *EagerScheduler) CurrentTaskID() string {
	s.curMu.Lock()
	defer s.curMu.Unlock()
	return s.current
}

func (s *EagerScheduler) SetCurrentTaskID(id string) {
	s.curMu.Lock()
	s.current = id
	s.curMu.Unlock()
}

func (s *EagerScheduler) ActiveTaskCount() int { return int(s.activeTasks.Load()) }
func (s *EagerScheduler) GlobalSteps() int64   { return s.globalSteps.Load() }
