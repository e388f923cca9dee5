package app

import (
	"context"
	"fmt"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/dag"
	"github.com/vk/taskgrid/internal/grid"
)

// Run loads the grid, executes every task and writes a report of the
// results. The report is written even when the run fails, listing whatever
// succeeded.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		if _, err := a.startHealthCheckServer(a.config.HealthcheckPort); err != nil {
			return err
		}
		defer func() { _ = a.closeHealthCheckServer() }()
	}

	_, runner, err := a.build(ctx)
	if err != nil {
		return err
	}

	tasks := runner.Tasks()
	if len(tasks) == 0 {
		a.logger.Warn("No tasks found in grid, execution not required.")
		return nil
	}

	a.logger.Info("🚀 Starting concurrent execution...", "tasks", len(tasks))
	results, runErr := runner.Run(ctx)

	if err := a.writeRunReport(tasks, results, runErr); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}

	a.logger.Info("🏁 Execution finished.", "succeeded", len(results))
	a.logger.Debug("App.Run method finished.")
	return nil
}

// Graph loads the grid and writes every task with its dependencies and
// dependents, without running anything.
func (a *App) Graph(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	g, runner, err := a.build(ctx)
	if err != nil {
		return err
	}
	if err := a.writeGraphReport(g, runner); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// build loads the grid and registers it with a new dag.Runner.
func (a *App) build(ctx context.Context) (*config.Grid, *dag.Runner, error) {
	a.logger.Debug("Loading grid...", "grid_path", a.config.GridPath)
	g, err := a.loader.Load(ctx, a.config.GridPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load grid: %w", err)
	}
	a.logger.Info("Grid loaded successfully.", "tasks_found", len(g.Tasks))

	a.logger.Debug("Building dependency graph from grid...")
	runner, err := grid.Build(ctx, g, a.handlers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "task_count", len(runner.Tasks()))
	return g, runner, nil
}
