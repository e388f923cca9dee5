// Package env_vars implements the 'env_vars' runner, which exposes the process
// environment to other tasks as task.<id>.all.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/taskgrid/internal/ctyconv"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the handlers.Module interface for this package.
type Module struct {
	// Environ returns the environment as KEY=value pairs. Defaults to
	// os.Environ.
	Environ func() []string
}

// Input defines the arguments for the env_vars runner.
type Input struct {
	// Prefix keeps only variables whose name starts with it.
	Prefix string `hcl:"prefix,optional"`
}

// Output defines the data structure returned by the runner.
type Output struct {
	All map[string]string `cty:"all"`
}

// OnRunEnvVars is the handler for the 'env_vars' runner.
func (m *Module) OnRunEnvVars(ctx context.Context, input any) (cty.Value, error) {
	in := input.(*Input)
	environ := m.Environ
	if environ == nil {
		environ = os.Environ
	}

	envMap := make(map[string]string)
	for _, e := range environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok || !strings.HasPrefix(key, in.Prefix) {
			continue
		}
		envMap[key] = value
	}
	ctxlog.FromContext(ctx).Debug("Collected environment variables.", "count", len(envMap), "prefix", in.Prefix)

	return ctyconv.FromNative(&Output{All: envMap})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.Register("env_vars", &handlers.Handler{
		Input: func() any { return new(Input) },
		Fn:    m.OnRunEnvVars,
	})
}
