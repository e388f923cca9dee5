package dag

import (
	"context"
	"maps"
	"sync"
)

// Results maps task ids to the values their bodies returned.
type Results map[string]any

// TaskFunc is the body of a task. deps holds the result of every direct
// dependency keyed by the dependency's id. The function may block; each task
// runs on its own goroutine.
type TaskFunc func(ctx context.Context, deps Results) (any, error)

// TaskConfig identifies a task and the tasks it depends on. Empty entries in
// Depends are ignored.
type TaskConfig struct {
	ID      string
	Depends []string
}

// Task pairs a TaskConfig with its body for batch registration.
type Task struct {
	TaskConfig
	Run TaskFunc
}

// node is a single vertex of the graph. The structural fields (run, children,
// parents, downstream) are only written during registration. pending and
// deps are written by concurrently finishing parents during Run and are
// guarded by mu.
type node struct {
	id  string
	run TaskFunc

	// children are the nodes that depend on this one, in edge insertion order.
	children []*node
	// parents maps dependency id to dependency node.
	parents map[string]*node
	// downstream holds every id transitively reachable through children.
	downstream map[string]struct{}

	mu      sync.Mutex
	pending int
	deps    Results
}

func newNode(id string, run TaskFunc) *node {
	return &node{
		id:         id,
		run:        run,
		parents:    make(map[string]*node),
		downstream: make(map[string]struct{}),
		deps:       make(Results),
	}
}

// isPlaceholder reports whether the node was only referenced as a dependency
// and never registered with a body.
func (n *node) isPlaceholder() bool {
	return n.run == nil
}

// reaches reports whether id is downstream of n.
func (n *node) reaches(id string) bool {
	_, ok := n.downstream[id]
	return ok
}

// resolve stores a parent's result and counts the edge as satisfied. It
// returns true for exactly one caller: the one that satisfied the last
// pending edge.
func (n *node) resolve(parentID string, result any) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deps[parentID] = result
	n.pending--
	return n.pending == 0
}

// snapshot returns a copy of the collected dependency results.
func (n *node) snapshot() Results {
	n.mu.Lock()
	defer n.mu.Unlock()
	return maps.Clone(n.deps)
}
