package dag

import (
	"context"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
)

// SortResult is the outcome of a topological sort. Order is consistent with
// every edge between its members. Unsortable holds the nodes that never
// reached zero in-degree: cycle participants and everything transitively
// dependent on one. They are reported rather than silently dropped so the
// caller can surface a diagnostic.
type SortResult struct {
	Order      []string
	Unsortable []string
}

// Sort orders the whole graph with Kahn's algorithm. Ties are broken by node
// insertion order, so the result is deterministic for a given build sequence.
func (g *Graph) Sort() SortResult {
	return g.sortWithin(g.order)
}

// SortSubset orders an arbitrary subset of the graph's nodes. Dependencies
// outside the subset are not waited on: in-degree is counted only over edges
// whose both endpoints are in the subset.
func (g *Graph) SortSubset(ids []string) SortResult {
	member := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if g.Has(id) {
			member[id] = struct{}{}
		}
	}
	// Iterate in graph insertion order for determinism regardless of the
	// order ids were passed in.
	subset := make([]string, 0, len(member))
	for _, id := range g.order {
		if _, ok := member[id]; ok {
			subset = append(subset, id)
		}
	}
	return g.sortWithin(subset)
}

func (g *Graph) sortWithin(subset []string) SortResult {
	member := make(map[string]struct{}, len(subset))
	for _, id := range subset {
		member[id] = struct{}{}
	}

	indegree := make(map[string]int, len(subset))
	for _, id := range subset {
		for _, p := range g.pred[id] {
			if _, ok := member[p]; ok {
				indegree[id]++
			}
		}
	}

	queue := make([]string, 0, len(subset))
	for _, id := range subset {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(subset))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, s := range g.succ[id] {
			if _, ok := member[s]; !ok {
				continue
			}
			indegree[s]--
			if indegree[s] == 0 {
				queue = append(queue, s)
			}
		}
	}

	var unsortable []string
	if len(order) < len(subset) {
		sorted := make(map[string]struct{}, len(order))
		for _, id := range order {
			sorted[id] = struct{}{}
		}
		for _, id := range subset {
			if _, ok := sorted[id]; !ok {
				unsortable = append(unsortable, id)
			}
		}
	}

	return SortResult{Order: order, Unsortable: unsortable}
}

// SortTolerant orders a subset depth-first so that in-subset dependencies
// precede dependents, cutting re-entrant cycles with a logged warning
// instead of recursing forever. Replay planning uses it because a prior run
// may reference nodes that a later edit made cyclic, and planning should
// still make forward progress.
func (g *Graph) SortTolerant(ctx context.Context, ids []string) []string {
	logger := ctxlog.FromContext(ctx)

	member := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if g.Has(id) {
			member[id] = struct{}{}
		}
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	order := make([]string, 0, len(member))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		if visiting[id] {
			logger.Warn("cycle detected during dependency sort, breaking at node", "node", id)
			return
		}
		visiting[id] = true
		for _, p := range g.pred[id] {
			if _, ok := member[p]; ok {
				visit(p)
			}
		}
		delete(visiting, id)
		visited[id] = true
		order = append(order, id)
	}

	for _, id := range g.order {
		if _, ok := member[id]; ok {
			visit(id)
		}
	}
	return order
}
