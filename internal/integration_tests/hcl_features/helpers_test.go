package integration_tests

import (
	"context"
	"sync"

	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// mockSourceSpyModule registers a "source" runner returning a fixed value
// and a "spy" runner that captures its evaluated arguments per task.
type mockSourceSpyModule struct {
	sourceOutput cty.Value

	mu       sync.Mutex
	captured map[string]cty.Value
	order    []string
}

func newMockSourceSpyModule(output cty.Value) *mockSourceSpyModule {
	return &mockSourceSpyModule{sourceOutput: output, captured: make(map[string]cty.Value)}
}

type spyInput struct {
	ID string `hcl:"id"`
	// Value keeps whatever the expression produced.
	Value cty.Value `hcl:"value,optional"`
}

func (m *mockSourceSpyModule) Register(r *handlers.Handlers) {
	r.Register("source", &handlers.Handler{
		Fn: func(context.Context, any) (cty.Value, error) { return m.sourceOutput, nil },
	})
	r.Register("spy", &handlers.Handler{
		Input: func() any { return new(spyInput) },
		Fn: func(_ context.Context, inputRaw any) (cty.Value, error) {
			in := inputRaw.(*spyInput)
			m.mu.Lock()
			defer m.mu.Unlock()
			m.captured[in.ID] = in.Value
			m.order = append(m.order, in.ID)
			return cty.StringVal(in.ID), nil
		},
	})
}

func (m *mockSourceSpyModule) value(id string) cty.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captured[id]
}

func (m *mockSourceSpyModule) ran() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}
