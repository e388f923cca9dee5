// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns a decoded `task` block into a Task, resolving its explicit
// and implicit dependencies.
package config

import (
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// taskRoot is the root name under which task results are visible to
// expressions, as in `task.fetch.status_code`.
const taskRoot = "task"

// hclGridFile represents the top-level structure of a grid file for decoding.
type hclGridFile struct {
	Tasks []*hclTask `hcl:"task,block"`
}

// hclTask represents a single 'task' block for initial decoding.
type hclTask struct {
	ID        string         `hcl:"id,label"`
	Runner    string         `hcl:"runner"`
	DependsOn hcl.Expression `hcl:"depends_on,optional"`
	Arguments *hclArguments  `hcl:"arguments,block"`
}

type hclArguments struct {
	Body hcl.Body `hcl:",remain"`
}

// newTask builds a Task from a decoded block.
func newTask(parsed *hclTask, filePath string) (*Task, hcl.Diagnostics) {
	task := &Task{
		ID:        parsed.ID,
		Runner:    parsed.Runner,
		Arguments: hcl.EmptyBody(),
		Source:    filePath,
	}

	var diags hcl.Diagnostics
	if parsed.DependsOn != nil {
		deps, depDiags := parseDependsOn(parsed.DependsOn)
		diags = append(diags, depDiags...)
		task.DependsOn = deps
	}

	if parsed.Arguments != nil && parsed.Arguments.Body != nil {
		task.Arguments = parsed.Arguments.Body
		refs, refDiags := findReferences(task.Arguments)
		diags = append(diags, refDiags...)
		task.References = refs
	}

	return task, diags
}

// parseDependsOn accepts a string, a list of strings or a list of
// `task.<id>` references. A `task.` prefix on a string is stripped so that
// JSON and YAML files can use the same form as HCL references. Empty entries
// are dropped.
func parseDependsOn(expr hcl.Expression) ([]string, hcl.Diagnostics) {
	if len(expr.Variables()) > 0 {
		elems, listDiags := hcl.ExprList(expr)
		if listDiags.HasErrors() {
			elems = []hcl.Expression{expr}
		}
		var ids []string
		var diags hcl.Diagnostics
		for _, elem := range elems {
			id, idDiags := dependencyFromExpr(elem)
			diags = append(diags, idDiags...)
			if id != "" {
				ids = append(ids, id)
			}
		}
		return ids, diags
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, diags
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		if id := trimTaskPrefix(val.AsString()); id != "" {
			return []string{id}, diags
		}
		return nil, diags
	case ty.IsTupleType() || ty.IsListType():
		var ids []string
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if elem.IsNull() {
				continue
			}
			if !elem.Type().Equals(cty.String) {
				return nil, append(diags, invalidDependsOn(expr))
			}
			if id := trimTaskPrefix(elem.AsString()); id != "" {
				ids = append(ids, id)
			}
		}
		return ids, diags
	default:
		return nil, append(diags, invalidDependsOn(expr))
	}
}

// dependencyFromExpr resolves one `depends_on` element that is either a
// `task.<id>` reference or a constant string.
func dependencyFromExpr(expr hcl.Expression) (string, hcl.Diagnostics) {
	if traversal, travDiags := hcl.AbsTraversalForExpr(expr); !travDiags.HasErrors() {
		if id, ok := taskIDFromTraversal(traversal); ok {
			return id, nil
		}
		return "", hcl.Diagnostics{invalidDependsOn(expr)}
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() {
		return "", diags
	}
	if !val.Type().Equals(cty.String) {
		return "", append(diags, invalidDependsOn(expr))
	}
	return trimTaskPrefix(val.AsString()), diags
}

func invalidDependsOn(expr hcl.Expression) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  "Invalid depends_on value",
		Detail:   "The 'depends_on' attribute must be a task id, a list of task ids or a list of task references such as task.fetch.",
		Subject:  expr.Range().Ptr(),
	}
}

func trimTaskPrefix(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), taskRoot+".")
}

// taskIDFromTraversal extracts <id> from a traversal of the form task.<id>...
func taskIDFromTraversal(traversal hcl.Traversal) (string, bool) {
	if len(traversal) < 2 || traversal.RootName() != taskRoot {
		return "", false
	}
	switch step := traversal[1].(type) {
	case hcl.TraverseAttr:
		return step.Name, true
	case hcl.TraverseIndex:
		if step.Key.Type() == cty.String && step.Key.IsKnown() && !step.Key.IsNull() {
			return step.Key.AsString(), true
		}
	}
	return "", false
}

// findReferences collects the ids of every task referenced from the
// attributes of body, in attribute name order and without duplicates.
func findReferences(body hcl.Body) ([]string, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []string
	seen := make(map[string]struct{})
	for _, name := range names {
		for _, traversal := range attrs[name].Expr.Variables() {
			id, ok := taskIDFromTraversal(traversal)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			refs = append(refs, id)
		}
	}
	return refs, diags
}
