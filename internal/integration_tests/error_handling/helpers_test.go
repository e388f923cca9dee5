package integration_tests

import (
	"context"
	"sync/atomic"

	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// mockFailerModule registers a "failer" runner that returns injectedError
// and a "spy" runner that records whether it was ever called.
type mockFailerModule struct {
	wasSpyExecuted atomic.Bool
	injectedError  error
}

func (m *mockFailerModule) Register(r *handlers.Handlers) {
	r.Register("failer", &handlers.Handler{
		Fn: func(context.Context, any) (cty.Value, error) { return cty.NilVal, m.injectedError },
	})
	r.Register("spy", &handlers.Handler{
		Fn: func(context.Context, any) (cty.Value, error) {
			m.wasSpyExecuted.Store(true) // If this runs, the test has failed.
			return cty.NilVal, nil
		},
	})
	r.Register("panicker", &handlers.Handler{
		Fn: func(context.Context, any) (cty.Value, error) { panic("handler exploded") },
	})
}
