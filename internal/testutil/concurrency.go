package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It registers the "sleeper" runner and records when each task ran.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing. A non-nil
// completionChan receives each task id as it finishes.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

type sleeperInput struct {
	ID string `hcl:"id"`
}

// Register registers the "sleeper" runner's Go handler.
func (m *MockSleeperModule) Register(r *handlers.Handlers) {
	r.Register("sleeper", &handlers.Handler{
		Input: func() any { return new(sleeperInput) },
		Fn: func(ctx context.Context, inputRaw any) (cty.Value, error) {
			input := inputRaw.(*sleeperInput)

			startTime := time.Now()
			select {
			case <-time.After(m.sleepDuration):
			case <-ctx.Done():
				return cty.NilVal, ctx.Err()
			}
			endTime := time.Now()

			m.mu.Lock()
			m.ExecutionTimes[input.ID] = &ExecutionRecord{Start: startTime, End: endTime}
			m.mu.Unlock()

			if m.completionChan != nil {
				m.completionChan <- input.ID
			}
			return cty.StringVal(input.ID), nil
		},
	})
}

// Record returns the execution record of a task, or nil if it never ran.
func (m *MockSleeperModule) Record(id string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ExecutionTimes[id]
}
