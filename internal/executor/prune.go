package executor

import (
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// shouldSkip implements the inactive-path check: a node is skipped when
// every incoming edge is inactive. An edge is inactive when its source was
// skipped, or when it names a source port that is absent from the source's
// recorded output. An edge with no named source port is always active, and
// so is an edge whose source has not produced an output yet (its liveness is
// unknown until the source runs). Nodes with no incoming edges never skip.
func (w *walker) shouldSkip(id string) bool {
	edges := w.inEdges[id]
	if len(edges) == 0 {
		return false
	}
	for _, e := range edges {
		if w.rc.Status(e.Source) == workflow.StatusSkipped {
			continue
		}
		if e.SourceHandle == "" {
			return false
		}
		out, ok := w.rc.Output(e.Source)
		if !ok {
			return false
		}
		if rec, isRec := out.(workflow.Record); isRec {
			if _, has := rec[e.SourceHandle]; has {
				return false
			}
		}
		// Named source port absent from the recorded output: inactive.
	}
	return true
}

// propagateBranch runs right after a branch node finishes. For each outgoing
// edge whose named source port the node did not populate, it walks the
// downstream frontier and marks nodes skipped, but only nodes for which the
// inactive-path check holds, so a merge point still reachable through a live
// arm keeps running. The eager marking lets later inactive-path checks
// short-circuit immediately.
func (w *walker) propagateBranch(node workflow.Node) {
	out, _ := w.rc.Output(node.ID)
	rec, _ := out.(workflow.Record)

	var frontier []string
	for _, e := range w.outEdges[node.ID] {
		if e.SourceHandle == "" {
			continue
		}
		if rec != nil {
			if _, has := rec[e.SourceHandle]; has {
				continue
			}
		}
		frontier = append(frontier, e.Target)
	}

	seen := make(map[string]struct{}, len(frontier))
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		switch w.rc.Status(id) {
		case workflow.StatusIdle, workflow.StatusPending:
		default:
			continue
		}
		if !w.shouldSkip(id) {
			continue
		}
		w.rc.setStatus(id, workflow.StatusSkipped, nil, nil)
		frontier = append(frontier, w.graph.Successors(id)...)
	}
}
