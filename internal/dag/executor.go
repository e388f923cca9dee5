package dag

import (
	"context"
	"fmt"

	"github.com/vk/taskgrid/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Run executes every task once, each after all of its dependencies have
// succeeded. It returns when every launched task has finished. On failure the
// returned Results still hold every task that succeeded, and the error is the
// first one recorded; dependents of failed tasks are never started.
func (r *Runner) Run(ctx context.Context) (Results, error) {
	logger := ctxlog.FromContext(ctx)
	if r.err != nil {
		return nil, fmt.Errorf("runner has a registration error: %w", r.err)
	}
	if !r.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRun
	}

	roots := r.roots()
	logger.Debug("Found root tasks.", "count", len(roots), "tasks", len(r.order))

	agg := newAggregator()
	var g errgroup.Group
	r.launch(ctx, &g, agg, roots)

	logger.Debug("Waiting for all launched tasks to complete...")
	// Only the task that claimed the aggregator's error slot returns a
	// non-nil error to the group.
	err := g.Wait()

	results := agg.snapshot()
	if err != nil {
		logger.Error("Run failed.", "task", agg.failed, "error", err, "succeeded", len(results))
		return results, err
	}
	logger.Debug("Run finished.", "succeeded", len(results))
	return results, nil
}

// roots returns the nodes with no pending dependencies.
func (r *Runner) roots() []*node {
	var ready []*node
	for _, n := range r.order {
		if n.pending == 0 {
			ready = append(ready, n)
		}
	}
	return ready
}

// launch starts one goroutine per node. It is called again from inside those
// goroutines as dependents become ready, which keeps the group's counter above
// zero until the whole fan-out has settled.
func (r *Runner) launch(ctx context.Context, g *errgroup.Group, agg *aggregator, nodes []*node) {
	for _, n := range nodes {
		g.Go(func() error {
			return r.execute(ctx, g, agg, n)
		})
	}
}

func (r *Runner) execute(ctx context.Context, g *errgroup.Group, agg *aggregator, n *node) error {
	logger := ctxlog.FromContext(ctx).With("task", n.id)

	result, err := invoke(ctx, n)
	if err != nil {
		if !agg.fail(n.id, err) {
			logger.Debug("Task failed after an earlier failure; dropping error.", "error", err)
			return nil
		}
		logger.Warn("Task failed; dependents will not run.", "error", err)
		return err
	}
	agg.record(n.id, result)
	logger.Debug("Task succeeded.")

	var ready []*node
	for _, child := range n.children {
		if child.resolve(n.id, result) {
			logger.Debug("Unlocking dependent task.", "dependent", child.id)
			ready = append(ready, child)
		}
	}
	r.launch(ctx, g, agg, ready)
	return nil
}

// invoke runs the task body, turning a placeholder into ErrUndefinedTask and
// a panic into an error.
func invoke(ctx context.Context, n *node) (result any, err error) {
	if n.isPlaceholder() {
		return nil, undefinedTask(n.id)
	}
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, fmt.Errorf("task '%s' panicked: %v", n.id, p)
		}
	}()
	ctxlog.FromContext(ctx).Debug("Starting task.", "task", n.id)
	return n.run(ctx, n.snapshot())
}
