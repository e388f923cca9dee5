package dag

import (
	"log/slog"
	"sync/atomic"
)

// Runner is a single-use task graph: tasks are registered first, then Run
// executes them once. Registration is not safe for concurrent use.
type Runner struct {
	nodes map[string]*node
	// order holds nodes in creation order so that root discovery and
	// diagnostics are deterministic.
	order []*node

	logger *slog.Logger
	err    error
	ran    atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used while registering tasks.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		nodes:  make(map[string]*node),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a task. Dependencies that are not registered yet become
// placeholders until their own Register call. On error the edges linked
// before the failure remain in place.
func (r *Runner) Register(cfg TaskConfig, fn TaskFunc) error {
	if cfg.ID == "" {
		return ErrEmptyTaskID
	}
	if fn == nil {
		return missingTaskFunction(cfg.ID)
	}

	task, exists := r.nodes[cfg.ID]
	switch {
	case exists && !task.isPlaceholder():
		return duplicateTask(cfg.ID)
	case exists:
		r.logger.Debug("Attaching body to placeholder task.", "task", cfg.ID)
		task.run = fn
	default:
		task = r.add(cfg.ID, fn)
	}

	for _, depID := range cfg.Depends {
		if depID == "" {
			continue
		}
		dep, ok := r.nodes[depID]
		if !ok {
			r.logger.Debug("Creating placeholder for forward dependency.", "task", cfg.ID, "dependency", depID)
			dep = r.add(depID, nil)
		}
		if err := r.link(dep, task); err != nil {
			return err
		}
	}

	r.logger.Debug("Task registered.", "task", cfg.ID, "dependencies", task.pending)
	return nil
}

// Add is the chaining form of Register. The first error is kept and every
// later call becomes a no-op; check it with Err.
func (r *Runner) Add(cfg TaskConfig, fn TaskFunc) *Runner {
	if r.err != nil {
		return r
	}
	r.err = r.Register(cfg, fn)
	return r
}

// Err returns the first error recorded by Add.
func (r *Runner) Err() error {
	return r.err
}

// RegisterAll registers tasks in order and stops at the first error.
func (r *Runner) RegisterAll(tasks ...Task) error {
	for _, t := range tasks {
		if err := r.Register(t.TaskConfig, t.Run); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) add(id string, fn TaskFunc) *node {
	n := newNode(id, fn)
	r.nodes[id] = n
	r.order = append(r.order, n)
	return n
}
