// Package grid binds a loaded configuration to a dependency graph. Every task
// becomes a dag task whose body evaluates the task's arguments against its
// dependencies' results and hands them to the runner's handler.
package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/dag"
	"github.com/vk/taskgrid/internal/handlers"
	"github.com/zclconf/go-cty/cty"
)

// ErrUnknownRunner is returned by Build when a task names a runner that has
// no registered handler.
var ErrUnknownRunner = errors.New("unknown runner")

// Build registers every task of g with a new dag.Runner, in grid order.
// Registration errors (duplicate ids, cycles) are returned wrapped; the
// undefined-task check happens when the runner is run.
func Build(ctx context.Context, g *config.Grid, h *handlers.Handlers) (*dag.Runner, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "tasks", len(g.Tasks))

	runner := dag.New(dag.WithLogger(logger))
	for _, task := range g.Tasks {
		handler, ok := h.Lookup(task.Runner)
		if !ok {
			return nil, fmt.Errorf("task '%s' in %s: %w '%s'", task.ID, task.Source, ErrUnknownRunner, task.Runner)
		}

		cfg := dag.TaskConfig{ID: task.ID, Depends: task.Dependencies()}
		if err := runner.Register(cfg, taskFunc(task, handler)); err != nil {
			return nil, fmt.Errorf("failed to add task from %s: %w", task.Source, err)
		}
		logger.Debug("Build: Registered task.", "task", task.ID, "runner", task.Runner, "depends_on", cfg.Depends)
	}

	if placeholders := runner.Placeholders(); len(placeholders) > 0 {
		logger.Warn("Build: Some dependencies are never defined; the run will fail when they are reached.", "tasks", placeholders)
	}
	logger.Debug("Build: Graph construction complete.")
	return runner, nil
}

// taskFunc adapts a handler to a dag.TaskFunc for one task.
func taskFunc(task *config.Task, handler *handlers.Handler) dag.TaskFunc {
	return func(ctx context.Context, deps dag.Results) (any, error) {
		logger := ctxlog.FromContext(ctx).With("task", task.ID, "runner", task.Runner)
		ctx = ctxlog.WithLogger(ctx, logger)

		evalCtx, err := newEvalContext(deps)
		if err != nil {
			return nil, fmt.Errorf("task '%s': %w", task.ID, err)
		}
		input, err := decodeArguments(task.Arguments, evalCtx, handler.Input)
		if err != nil {
			return nil, fmt.Errorf("task '%s': invalid arguments: %w", task.ID, err)
		}

		logger.Debug("Invoking runner handler.")
		result, err := handler.Fn(ctx, input)
		if err != nil {
			return nil, err
		}
		if result == cty.NilVal {
			result = cty.NullVal(cty.DynamicPseudoType)
		}
		return result, nil
	}
}
