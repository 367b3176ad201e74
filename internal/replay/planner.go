// Package replay plans partial re-runs of a workflow against the status map
// of a prior run. It reuses the same graph primitives as the main pass and
// tolerates graphs that have grown cycles since the prior run: planning
// favors forward progress over strict validation.
package replay

import (
	"context"
	"fmt"

	"github.com/nodeloom/nodeloom/internal/dag"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// Mode selects which subset of the graph a re-run covers.
type Mode string

const (
	// ModeSingle re-runs the target node only.
	ModeSingle Mode = "single"
	// ModeDownstream re-runs the target plus everything reachable from it.
	ModeDownstream Mode = "downstream"
	// ModeUpstream re-runs the target plus its transitive dependencies.
	ModeUpstream Mode = "upstream"
	// ModeFailed re-runs every node the prior run left in error status.
	ModeFailed Mode = "failed"
	// ModeFromCache re-runs every node not already completed or served from
	// cache in the prior run.
	ModeFromCache Mode = "from_cache"
)

// Planner computes re-run subsets over a workflow graph.
type Planner struct {
	graph *dag.Graph
}

// New builds a planner over the given node/edge set. Malformed edges are
// tolerated the same way the executor tolerates them.
func New(nodes []workflow.Node, edges []workflow.Edge) *Planner {
	g := dag.New()
	for _, n := range nodes {
		g.AddNode(n.ID)
	}
	for _, e := range edges {
		g.AddEdge(e.Source, e.Target)
	}
	return &Planner{graph: g}
}

// Plan returns the node ids to re-run, ordered so that in-set dependencies
// precede dependents. target is required by the single, downstream and
// upstream modes and ignored by the others. statuses is the prior run's
// status map.
func (p *Planner) Plan(ctx context.Context, mode Mode, target string, statuses map[string]workflow.Status) ([]string, error) {
	switch mode {
	case ModeSingle:
		if !p.graph.Has(target) {
			return nil, fmt.Errorf("unknown target node %q", target)
		}
		return []string{target}, nil

	case ModeDownstream:
		if !p.graph.Has(target) {
			return nil, fmt.Errorf("unknown target node %q", target)
		}
		return p.graph.SortTolerant(ctx, p.graph.Downstream(target)), nil

	case ModeUpstream:
		if !p.graph.Has(target) {
			return nil, fmt.Errorf("unknown target node %q", target)
		}
		return p.graph.SortTolerant(ctx, p.graph.Upstream(target)), nil

	case ModeFailed:
		var failed []string
		for _, id := range p.graph.NodeIDs() {
			if statuses[id] == workflow.StatusError {
				failed = append(failed, id)
			}
		}
		return p.graph.SortTolerant(ctx, failed), nil

	case ModeFromCache:
		var stale []string
		for _, id := range p.graph.NodeIDs() {
			switch statuses[id] {
			case workflow.StatusCompleted, workflow.StatusCacheHit:
			default:
				stale = append(stale, id)
			}
		}
		return p.graph.SortTolerant(ctx, stale), nil
	}
	return nil, fmt.Errorf("unknown replay mode %q", mode)
}

// MissingDependencies reports which of the target's direct dependencies have
// no recorded output in the prior run's output map. A re-run of the target
// alone will route empty inputs from those nodes.
func (p *Planner) MissingDependencies(target string, outputs map[string]any) ([]string, error) {
	if !p.graph.Has(target) {
		return nil, fmt.Errorf("unknown target node %q", target)
	}
	var missing []string
	for _, dep := range p.graph.Predecessors(target) {
		if _, ok := outputs[dep]; !ok {
			missing = append(missing, dep)
		}
	}
	return missing, nil
}
