// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Grid and Task structures produced by the loaders.
//
// Task arguments are kept as a raw hcl.Body rather than decoded values. Their
// expressions may reference other tasks' results, so they can only be
// evaluated once those results exist, inside the running task.
package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Grid is every task loaded from a grid path, in file order and then in
// declaration order within each file.
type Grid struct {
	Tasks []*Task
}

// NewGrid creates and returns an initialized Grid.
func NewGrid() *Grid {
	return &Grid{
		Tasks: []*Task{},
	}
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	ID     string
	Runner string

	// DependsOn holds the explicit `depends_on` entries.
	DependsOn []string
	// References holds the ids found in `task.<id>` traversals inside
	// Arguments, in attribute name order.
	References []string

	// Arguments is the unevaluated `arguments` body. It is never nil.
	Arguments hcl.Body

	// Source is the file the task was declared in.
	Source string
}

// Dependencies returns DependsOn followed by any References not already
// listed, without duplicates.
func (t *Task) Dependencies() []string {
	seen := make(map[string]struct{}, len(t.DependsOn)+len(t.References))
	deps := make([]string, 0, len(t.DependsOn)+len(t.References))
	for _, list := range [][]string{t.DependsOn, t.References} {
		for _, id := range list {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			deps = append(deps, id)
		}
	}
	return deps
}

// Task returns the first task with the given id, or nil.
func (g *Grid) Task(id string) *Task {
	for _, t := range g.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}
