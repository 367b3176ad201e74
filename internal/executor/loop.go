package executor

import (
	"context"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/router"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// itemFields is where the loop sub-executor looks for the iteration array of
// a for-each node, after the node's first declared input port.
var itemFields = []string{"items", "input", "data", "chunks", "texts"}

// runLoop drives an iteration node: it resolves the iteration sequence,
// then re-sorts and walks the body subgraph once per iteration, exactly like
// the main pass (branch pruning included). The body re-runs from scratch
// every iteration; outputs from the previous iteration are overwritten.
func (w *walker) runLoop(ctx context.Context, node workflow.Node, def *registry.StepDefinition, body []string) {
	logger := ctxlog.FromContext(ctx).With("loop", node.ID, "category", def.Category)

	res := router.Resolve(ctx, w.engine.reg, node, w.inEdges[node.ID], w.rc.Outputs())

	items, count, iterations := w.planIterations(def, node, res.Inputs)
	logger.Debug("loop planned", "count", count, "iterations", iterations, "body_size", len(body))

	w.rc.setStatus(node.ID, workflow.StatusRunning, nil, nil)

	saved := w.rc.saveVars("item", "index", "count")
	defer w.rc.restoreVars(saved)

	sorted := w.graph.SortSubset(body)

	results := make([]any, 0, iterations)
	var lastItem any
	lastIndex := -1

	for i := 0; i < iterations; i++ {
		if ctx.Err() != nil {
			break
		}

		var item any = i
		if items != nil {
			item = items[i]
		}

		w.rc.setVar("item", item)
		w.rc.setVar("index", i)
		w.rc.setVar("count", count)

		// Publish the in-flight output so body nodes can route from the
		// loop node like from any other predecessor.
		w.rc.setOutput(node.ID, workflow.Record{
			"item":    item,
			"index":   i,
			"results": append([]any(nil), results...),
		})

		// The body re-runs from scratch: clear the previous iteration's
		// outputs so a node skipped or failing this time around cannot
		// resolve or report a stale value.
		for _, b := range sorted.Order {
			w.rc.clearOutput(b)
			w.rc.setStatus(b, workflow.StatusPending, nil, nil)
		}
		if err := w.runOrder(ctx, sorted.Order, false); err != nil {
			break
		}

		iterResult := item
		if n := len(sorted.Order); n > 0 {
			if out, ok := w.rc.Output(sorted.Order[n-1]); ok {
				iterResult = out
			}
		}
		results = append(results, iterResult)
		lastItem, lastIndex = item, i

		if def.Category == registry.CategoryLoopWhile && shouldBreak(iterResult) {
			logger.Debug("while loop break requested", "iteration", i)
			break
		}
	}

	// A body node the final pass never reached (zero iterations) is skipped,
	// not left pending. Cancellation is excluded so cancelPending can still
	// claim those nodes.
	if ctx.Err() == nil {
		for _, b := range sorted.Order {
			switch w.rc.Status(b) {
			case workflow.StatusIdle, workflow.StatusPending:
				w.rc.setStatus(b, workflow.StatusSkipped, nil, nil)
			}
		}
	}

	if def.Category == registry.CategoryLoopWhile {
		// A while loop's length is only known after the fact.
		count = len(results)
	}
	final := workflow.Record{
		"item":    lastItem,
		"index":   lastIndex,
		"results": results,
		"count":   count,
	}
	w.rc.setOutput(node.ID, final)
	w.rc.setStatus(node.ID, workflow.StatusCompleted, final, nil)
}

// planIterations resolves the iteration sequence for the loop category.
// items is nil for synthetic sequences (the item is then the index). count
// is the declared sequence length reported in the final output; iterations
// is how many passes will actually run, always bounded by the hard maximum.
func (w *walker) planIterations(def *registry.StepDefinition, node workflow.Node, inputs workflow.Record) (items []any, count, iterations int) {
	switch def.Category {
	case registry.CategoryForEach:
		items = pickItems(def, inputs)
		count = len(items)
		iterations = count
	case registry.CategoryLoopCount:
		count = intConfig(node.Config, []string{"count", "iterations"}, 1)
		iterations = count
	case registry.CategoryLoopWhile:
		// The condition is evaluated inside the body, so the plan is just
		// the configured ceiling.
		iterations = intConfig(node.Config, []string{"max_iterations"}, w.maxIter)
		count = 0
	}
	if iterations > w.maxIter {
		iterations = w.maxIter
	}
	if iterations < 0 {
		iterations = 0
	}
	return items, count, iterations
}

// pickItems finds the for-each input array: the first declared input port's
// value, then conventional field names.
func pickItems(def *registry.StepDefinition, inputs workflow.Record) []any {
	var candidates []string
	if first, ok := def.FirstInput(); ok {
		candidates = append(candidates, first.Name)
	}
	candidates = append(candidates, itemFields...)

	for _, name := range candidates {
		if v, ok := inputs[name]; ok {
			if arr, ok := asArray(v); ok {
				return arr
			}
		}
	}
	return nil
}

func asArray(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// shouldBreak checks the body's iteration result for the while-loop stop
// signal: a record carrying break=true.
func shouldBreak(result any) bool {
	rec, ok := result.(workflow.Record)
	if !ok {
		return false
	}
	b, ok := rec["break"].(bool)
	return ok && b
}

func intConfig(cfg map[string]any, keys []string, def int) int {
	for _, k := range keys {
		v, ok := cfg[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}
