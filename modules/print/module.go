// Package print implements the 'print' runner, which writes its arguments to
// the application output.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module implements the handlers.Module interface for this package.
type Module struct {
	// Out receives the printed arguments. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// OnRunPrint writes every argument as `key = value`, sorted by key, and
// returns the arguments unchanged.
func (m *Module) OnRunPrint(ctx context.Context, input any) (cty.Value, error) {
	ctxlog.FromContext(ctx).Info("Printing input")

	args, _ := input.(cty.Value)
	var b strings.Builder
	if args == cty.NilVal || args.IsNull() || args.LengthInt() == 0 {
		b.WriteString("      (null)\n")
	} else {
		attrs := args.AsValueMap()
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "      %s = %s\n", k, render(attrs[k]))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.WriteString(out, b.String()); err != nil {
		return cty.NilVal, fmt.Errorf("failed to print input: %w", err)
	}
	return args, nil
}

// render quotes strings and prints every other value as JSON.
func render(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if !v.IsKnown() {
		return "(unknown)"
	}
	if v.Type() == cty.String {
		return fmt.Sprintf("%q", v.AsString())
	}
	raw, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(raw)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *handlers.Handlers) {
	r.Register("print", &handlers.Handler{
		Fn: m.OnRunPrint,
	})
}
