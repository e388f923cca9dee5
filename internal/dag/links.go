package dag

// link adds the edge dep -> child and keeps downstream sets closed under
// reachability. It fails as soon as any node becomes its own descendant.
func (r *Runner) link(dep, child *node) error {
	dep.children = append(dep.children, child)
	child.parents[dep.id] = dep
	child.pending++

	added := make(map[string]struct{}, len(child.downstream)+1)
	added[child.id] = struct{}{}
	for id := range child.downstream {
		added[id] = struct{}{}
	}

	if !merge(dep, added) {
		return nil
	}
	if dep.reaches(dep.id) {
		return circularDependency(cyclePath(dep, child))
	}

	// Every ancestor of dep now reaches the added ids as well. Edges can be
	// registered in any order, so the propagation has to finish before the
	// next edge is considered safe.
	visited := map[string]bool{dep.id: true}
	queue := parentsOf(dep)
	for len(queue) > 0 {
		ancestor := queue[0]
		queue = queue[1:]
		if visited[ancestor.id] {
			continue
		}
		visited[ancestor.id] = true
		if !merge(ancestor, added) {
			continue
		}
		if ancestor.reaches(ancestor.id) {
			return circularDependency(cycleFrom(ancestor))
		}
		queue = append(queue, parentsOf(ancestor)...)
	}
	return nil
}

// merge adds ids to n's downstream set and reports whether anything changed.
func merge(n *node, ids map[string]struct{}) bool {
	changed := false
	for id := range ids {
		if _, ok := n.downstream[id]; !ok {
			n.downstream[id] = struct{}{}
			changed = true
		}
	}
	return changed
}

func parentsOf(n *node) []*node {
	parents := make([]*node, 0, len(n.parents))
	for _, p := range n.parents {
		parents = append(parents, p)
	}
	return parents
}

// cyclePath rebuilds the cycle closed by the edge dep -> child as
// dep, child, ..., dep.
func cyclePath(dep, child *node) []string {
	path := []string{dep.id}
	return walkBack(path, child, dep)
}

// cycleFrom rebuilds a cycle that starts and ends at start.
func cycleFrom(start *node) []string {
	for _, c := range start.children {
		if c == start || c.reaches(start.id) {
			return walkBack([]string{start.id}, c, start)
		}
	}
	return []string{start.id, start.id}
}

// walkBack appends the ids on a path from cur to target, at each step
// following any child that is the target or can reach it.
func walkBack(path []string, cur, target *node) []string {
	seen := make(map[*node]bool)
	for {
		path = append(path, cur.id)
		if cur == target || seen[cur] {
			return path
		}
		seen[cur] = true

		var next *node
		for _, c := range cur.children {
			if c == target || c.reaches(target.id) {
				next = c
				break
			}
		}
		if next == nil {
			// Unreachable while downstream sets are exact; close the path
			// so the message still names the target.
			return append(path, target.id)
		}
		cur = next
	}
}
