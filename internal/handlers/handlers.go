// Package handlers is the registry of Go functions that execute tasks. A
// task's `runner` attribute names the handler that runs it.
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Handler holds the compiled Go parts of a runner.
type Handler struct {
	// Input returns a pointer to a new struct that a task's `arguments` are
	// decoded into with gohcl. When Input is nil, Fn receives the evaluated
	// arguments as a cty object value instead.
	Input func() any

	// Fn executes the task. Its result is visible to dependent tasks as
	// task.<id>.
	Fn func(ctx context.Context, input any) (cty.Value, error)
}

// Handlers holds all the registered handlers.
type Handlers struct {
	all map[string]*Handler
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*Handler),
	}
}

// Register adds a handler under name. Registering the same name twice is a
// programming error and panics.
func (r *Handlers) Register(name string, handler *Handler) {
	if _, exists := r.all[name]; exists {
		panic(fmt.Sprintf("runner handler with name '%s' already registered", name))
	}
	if handler == nil || handler.Fn == nil {
		panic(fmt.Sprintf("runner handler '%s' has no function", name))
	}
	slog.Debug("Registering runner handler.", "name", name)
	r.all[name] = handler
}

// Lookup returns the handler registered under name.
func (r *Handlers) Lookup(name string) (*Handler, bool) {
	h, ok := r.all[name]
	return h, ok
}

// Names returns every registered handler name, sorted.
func (r *Handlers) Names() []string {
	names := make([]string, 0, len(r.all))
	for name := range r.all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Module is implemented by each built-in runner package.
type Module interface {
	Register(r *Handlers)
}
