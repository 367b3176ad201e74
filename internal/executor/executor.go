package executor

import (
	"context"
	"fmt"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/dag"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/router"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// DefaultMaxIterations is the hard ceiling on loop iterations when the node
// configuration does not narrow it further.
const DefaultMaxIterations = 100

// Options configure one run.
type Options struct {
	Nodes []workflow.Node
	Edges []workflow.Edge

	// OnStatus observes every status transition. Optional.
	OnStatus StatusFunc
	// OnFinish is called once with the final run context. Optional.
	OnFinish func(*Context)

	// Breakpoint halts the pass entirely when the next scheduled node id
	// matches, leaving that node idle pending external resumption.
	Breakpoint string

	// FilterDisabled drops nodes whose Enabled flag is false before
	// scheduling, as if they were absent from the graph.
	FilterDisabled bool

	// StepMode makes the pass await a receive on Proceed before each node.
	StepMode bool
	Proceed  <-chan struct{}

	// Parallel runs independent nodes of each dependency layer concurrently
	// instead of the serial pass. Breakpoint and StepMode are serial-only.
	Parallel bool

	// MaxLoopIterations overrides DefaultMaxIterations when positive.
	MaxLoopIterations int
}

// Engine executes workflow graphs against an injected step registry and
// provider lookup. An Engine is stateless across runs and safe to reuse.
type Engine struct {
	reg       *registry.Registry
	providers registry.ProviderLookup
}

// New creates an engine. providers may be nil when no step consults them.
func New(reg *registry.Registry, providers registry.ProviderLookup) *Engine {
	return &Engine{reg: reg, providers: providers}
}

// Run executes the graph described by opts and returns the final run
// context. A failing step never fails the run; Run's error reports only
// run-level conditions (cancellation).
func (e *Engine) Run(ctx context.Context, opts Options) (*Context, error) {
	logger := ctxlog.FromContext(ctx)

	scope := workflow.Scope{}
	if e.providers != nil {
		scope.DefaultModel = e.providers.DefaultModel()
		scope.DefaultEmbedder = e.providers.DefaultEmbedder()
	}
	rc := newContext(opts.OnStatus, scope)
	logger = logger.With("run_id", rc.RunID)

	w := e.newWalker(ctx, rc, opts)

	res := w.graph.Sort()
	rc.Unscheduled = res.Unsortable
	if len(res.Unsortable) > 0 {
		logger.Warn("workflow contains cyclic or unreachable dependencies, affected nodes will not run",
			"nodes", res.Unsortable)
	}

	for _, id := range res.Order {
		rc.setStatus(id, workflow.StatusPending, nil, nil)
	}

	logger.Debug("starting pass", "scheduled", len(res.Order), "parallel", opts.Parallel)
	var err error
	if opts.Parallel {
		err = w.runLayers(ctx)
	} else {
		err = w.runOrder(ctx, res.Order, true)
	}

	if ctx.Err() != nil {
		w.cancelPending()
		err = ctx.Err()
	}

	logger.Debug("pass finished", "statuses", rc.Statuses())
	if opts.OnFinish != nil {
		opts.OnFinish(rc)
	}
	return rc, err
}

// walker carries the per-run immutable indexes the pass needs at each node.
type walker struct {
	engine   *Engine
	rc       *Context
	opts     Options
	graph    *dag.Graph
	byID     map[string]workflow.Node
	inEdges  map[string][]workflow.Edge
	outEdges map[string][]workflow.Edge
	maxIter  int
}

func (e *Engine) newWalker(ctx context.Context, rc *Context, opts Options) *walker {
	logger := ctxlog.FromContext(ctx)

	byID := make(map[string]workflow.Node, len(opts.Nodes))
	g := dag.New()
	for _, n := range opts.Nodes {
		if opts.FilterDisabled && !n.Enabled {
			logger.Debug("dropping disabled node", "node", n.ID)
			continue
		}
		byID[n.ID] = n
		g.AddNode(n.ID)
	}

	inEdges := make(map[string][]workflow.Edge)
	outEdges := make(map[string][]workflow.Edge)
	for _, edge := range opts.Edges {
		if _, ok := byID[edge.Source]; !ok {
			logger.Debug("ignoring edge with unknown source", "edge", edge.ID, "source", edge.Source)
			continue
		}
		if _, ok := byID[edge.Target]; !ok {
			logger.Debug("ignoring edge with unknown target", "edge", edge.ID, "target", edge.Target)
			continue
		}
		g.AddEdge(edge.Source, edge.Target)
		inEdges[edge.Target] = append(inEdges[edge.Target], edge)
		outEdges[edge.Source] = append(outEdges[edge.Source], edge)
	}

	maxIter := opts.MaxLoopIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	return &walker{
		engine:   e,
		rc:       rc,
		opts:     opts,
		graph:    g,
		byID:     byID,
		inEdges:  inEdges,
		outEdges: outEdges,
		maxIter:  maxIter,
	}
}

// runOrder walks an already-sorted sequence of node ids. Loop nodes are
// handed to the loop sub-executor together with their body subgraph, which
// is removed from the walked sequence. topLevel gates breakpoint and
// single-step handling so loop bodies are not interrupted mid-iteration.
func (w *walker) runOrder(ctx context.Context, order []string, topLevel bool) error {
	mainOrder, bodies := w.excludeLoopBodies(order)

	for _, id := range mainOrder {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if topLevel && w.opts.Breakpoint == id {
			ctxlog.FromContext(ctx).Info("breakpoint reached, halting pass", "node", id)
			w.rc.Paused = id
			w.rc.setStatus(id, workflow.StatusIdle, nil, nil)
			return nil
		}

		if topLevel && w.opts.StepMode {
			select {
			case <-w.opts.Proceed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if w.shouldSkip(id) {
			w.skipNode(id, bodies[id])
			continue
		}

		w.runOne(ctx, id, bodies[id])

		if topLevel && w.rc.Paused != "" {
			return nil
		}
	}
	return nil
}

// runOne executes a single scheduled node: loop nodes go to the
// sub-executor, everything else is dispatched to its step executor, and
// branch nodes get downstream pruning applied afterwards.
func (w *walker) runOne(ctx context.Context, id string, body []string) {
	node := w.byID[id]
	def, registered := w.engine.reg.Definition(node.Type)

	if registered && def.Category.Loop() {
		w.runLoop(ctx, node, def, body)
		return
	}

	w.runNode(ctx, node)

	if registered && def.Category == registry.CategoryBranch {
		w.propagateBranch(node)
	}
}

// runNode routes inputs, dispatches the step executor, and records the
// outcome. Errors are caught here: status becomes error, the message is
// recorded, and the pass continues.
func (w *walker) runNode(ctx context.Context, node workflow.Node) {
	logger := ctxlog.FromContext(ctx)

	res := router.Resolve(ctx, w.engine.reg, node, w.inEdges[node.ID], w.rc.Outputs())

	w.rc.setStatus(node.ID, workflow.StatusRunning, nil, nil)

	exec, ok := w.engine.reg.Executor(node.Type)
	if !ok {
		err := fmt.Errorf("no executor registered for step type %q", node.Type)
		logger.Error("node failed", "node", node.ID, "error", err)
		w.rc.setStatus(node.ID, workflow.StatusError, nil, err)
		return
	}

	out, err := exec.Execute(ctx, res.Inputs, node.Config, w.rc.scope())
	if err != nil {
		logger.Error("node failed", "node", node.ID, "type", node.Type, "error", err)
		w.rc.setStatus(node.ID, workflow.StatusError, nil, err)
		return
	}

	w.rc.setOutput(node.ID, out)
	w.rc.setStatus(node.ID, workflow.StatusCompleted, out, nil)
}

// excludeLoopBodies removes every loop node's downstream body from the
// walked order and returns the bodies keyed by loop node id. A body swallows
// nested loops and their bodies; the sub-executor re-applies this exclusion
// when it walks the body, so nesting recurses naturally.
func (w *walker) excludeLoopBodies(order []string) ([]string, map[string][]string) {
	inOrder := make(map[string]struct{}, len(order))
	for _, id := range order {
		inOrder[id] = struct{}{}
	}

	excluded := make(map[string]struct{})
	bodies := make(map[string][]string)
	mainOrder := make([]string, 0, len(order))

	for _, id := range order {
		if _, ok := excluded[id]; ok {
			continue
		}
		mainOrder = append(mainOrder, id)

		node, ok := w.byID[id]
		if !ok {
			continue
		}
		def, ok := w.engine.reg.Definition(node.Type)
		if !ok || !def.Category.Loop() {
			continue
		}

		var body []string
		for _, d := range w.graph.Downstream(id) {
			if d == id {
				continue
			}
			if _, ok := inOrder[d]; !ok {
				continue
			}
			excluded[d] = struct{}{}
			body = append(body, d)
		}
		bodies[id] = body
	}
	return mainOrder, bodies
}

// skipNode marks a node skipped together with its loop body, if it has one.
// A skipped loop never iterates, so its excluded body nodes would otherwise
// stay pending for the rest of the run.
func (w *walker) skipNode(id string, body []string) {
	w.rc.setStatus(id, workflow.StatusSkipped, nil, nil)
	for _, b := range body {
		switch w.rc.Status(b) {
		case workflow.StatusIdle, workflow.StatusPending:
			w.rc.setStatus(b, workflow.StatusSkipped, nil, nil)
		}
	}
}

// cancelPending marks every node still pending as cancelled. Running nodes
// are left alone: cancellation is cooperative and never force-terminates.
func (w *walker) cancelPending() {
	for _, id := range w.graph.NodeIDs() {
		if w.rc.Status(id) == workflow.StatusPending {
			w.rc.setStatus(id, workflow.StatusCancelled, nil, nil)
		}
	}
}
