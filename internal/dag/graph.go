package dag

import "sort"

// Tasks returns every known task id, placeholders included, in the order the
// ids were first seen.
func (r *Runner) Tasks() []string {
	ids := make([]string, 0, len(r.order))
	for _, n := range r.order {
		ids = append(ids, n.id)
	}
	return ids
}

// Placeholders returns the ids that were referenced as dependencies but never
// registered. Running a Runner with placeholders fails with ErrUndefinedTask.
func (r *Runner) Placeholders() []string {
	var ids []string
	for _, n := range r.order {
		if n.isPlaceholder() {
			ids = append(ids, n.id)
		}
	}
	return ids
}

// Dependencies returns the sorted ids the given task depends on directly.
func (r *Runner) Dependencies(id string) []string {
	n, ok := r.nodes[id]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(n.parents))
	for parentID := range n.parents {
		ids = append(ids, parentID)
	}
	sort.Strings(ids)
	return ids
}

// Dependents returns the ids that depend directly on the given task, in
// registration order.
func (r *Runner) Dependents(id string) []string {
	n, ok := r.nodes[id]
	if !ok {
		return nil
	}
	seen := make(map[string]bool, len(n.children))
	ids := make([]string, 0, len(n.children))
	for _, c := range n.children {
		if !seen[c.id] {
			seen[c.id] = true
			ids = append(ids, c.id)
		}
	}
	return ids
}
