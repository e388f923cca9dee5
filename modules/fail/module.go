// Package fail implements the 'fail' runner, which always fails. Grids use it
// to check how a run behaves when one branch breaks.
package fail

import (
	"context"
	"errors"

	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for the fail runner.
type Input struct {
	Message string `hcl:"message,optional"`
}

// OnRunFail returns an error carrying the configured message.
func OnRunFail(_ context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	if in.Message == "" {
		return cty.NilVal, errors.New("task failed")
	}
	return cty.NilVal, errors.New(in.Message)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.Register("fail", &handlers.Handler{
		Input: func() any { return new(Input) },
		Fn:    OnRunFail,
	})
}
