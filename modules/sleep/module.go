// Package sleep implements the 'sleep' runner, which waits for a duration.
// It is mostly useful for shaping grids while experimenting with ordering.
package sleep

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the handlers.Module interface for this package.
type Module struct{}

// Input defines the arguments for the sleep runner.
type Input struct {
	Duration string `hcl:"duration"`
}

// OnRunSleep waits for the configured duration or until ctx is done.
func OnRunSleep(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	d, err := time.ParseDuration(in.Duration)
	if err != nil {
		return cty.NilVal, fmt.Errorf("invalid duration %q: %w", in.Duration, err)
	}
	if d < 0 {
		return cty.NilVal, fmt.Errorf("invalid duration %q: must not be negative", in.Duration)
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sleeping.", "duration", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return cty.NilVal, ctx.Err()
	case <-timer.C:
	}

	return cty.ObjectVal(map[string]cty.Value{
		"slept": cty.StringVal(d.String()),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.Register("sleep", &handlers.Handler{
		Input: func() any { return new(Input) },
		Fn:    OnRunSleep,
	})
}
