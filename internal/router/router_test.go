package router_test

import (
	"context"
	"testing"

	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/router"
	"github.com/nodeloom/nodeloom/internal/testutil"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func declare(t *testing.T, inputs ...registry.Port) *registry.Registry {
	t.Helper()
	r := registry.New()
	r.RegisterStep(&registry.StepDefinition{Type: "sink", Inputs: inputs}, nil)
	return r
}

func TestResolveDirectPortCopy(t *testing.T) {
	r := declare(t, registry.Port{Name: "text", Type: cty.String})
	outputs := map[string]any{"src": workflow.Record{"greeting": "hi", "other": 1}}

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.PortEdge("src", "greeting", "sink", "text")}, outputs)

	assert.Equal(t, "hi", res.Inputs["text"])
	assert.Empty(t, res.Heuristic)
}

func TestResolveExactNameMatchBeatsHeuristic(t *testing.T) {
	r := declare(t, registry.Port{Name: "prompt", Type: cty.String})
	outputs := map[string]any{"src": workflow.Record{"prompt": "exact", "text": "fallback"}}

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)

	assert.Equal(t, "exact", res.Inputs["prompt"])
	assert.Empty(t, res.Heuristic)
}

func TestResolveTextHeuristicOrder(t *testing.T) {
	r := declare(t, registry.Port{Name: "question", Type: cty.String})

	t.Run("prefers text over content", func(t *testing.T) {
		outputs := map[string]any{"src": workflow.Record{"content": "second", "text": "first"}}
		res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
			[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)
		assert.Equal(t, "first", res.Inputs["question"])
		assert.Equal(t, []string{"question"}, res.Heuristic)
	})

	t.Run("falls through to response", func(t *testing.T) {
		outputs := map[string]any{"src": workflow.Record{"response": "model says"}}
		res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
			[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)
		assert.Equal(t, "model says", res.Inputs["question"])
	})

	t.Run("raw string output accepted directly", func(t *testing.T) {
		outputs := map[string]any{"src": "raw text"}
		res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
			[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)
		assert.Equal(t, "raw text", res.Inputs["question"])
		assert.Equal(t, []string{"question"}, res.Heuristic)
	})
}

func TestResolveStructuralHeuristic(t *testing.T) {
	r := declare(t, registry.Port{Name: "payload", Type: cty.DynamicPseudoType})

	t.Run("prefers data field", func(t *testing.T) {
		outputs := map[string]any{"src": workflow.Record{"data": map[string]any{"k": "v"}, "result": "no"}}
		res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
			[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)
		assert.Equal(t, map[string]any{"k": "v"}, res.Inputs["payload"])
	})

	t.Run("falls back to raw output", func(t *testing.T) {
		out := workflow.Record{"unrelated": 42}
		outputs := map[string]any{"src": out}
		res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
			[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)
		assert.Equal(t, out, res.Inputs["payload"])
	})
}

func TestResolveTextArrayHeuristic(t *testing.T) {
	r := declare(t, registry.Port{Name: "pieces", Type: cty.List(cty.String)})
	outputs := map[string]any{"src": workflow.Record{"chunks": []any{"a", "b"}}}

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)

	assert.Equal(t, []any{"a", "b"}, res.Inputs["pieces"])
	assert.Equal(t, []string{"pieces"}, res.Heuristic)
}

func TestResolveNoDeclaredInputsFallsBackToFirstPredecessor(t *testing.T) {
	r := registry.New() // "sink" unregistered
	first := workflow.Record{"text": "one"}
	outputs := map[string]any{"a": first, "b": workflow.Record{"text": "two"}}

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.Edge("a", "sink"), testutil.Edge("b", "sink")}, outputs)

	assert.Equal(t, "one", res.Inputs["text"])
	agg, ok := res.Inputs[router.AggregateKey].([]any)
	require.True(t, ok)
	assert.Len(t, agg, 2)
}

func TestResolveAggregateKeyAlwaysPresent(t *testing.T) {
	r := declare(t, registry.Port{Name: "text", Type: cty.String})
	outputs := map[string]any{"src": workflow.Record{"text": "x"}}

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.Edge("src", "sink")}, outputs)
	assert.Contains(t, res.Inputs, router.AggregateKey)

	// Also with no incoming edges at all.
	res = router.Resolve(context.Background(), r, testutil.Node("sink", "sink"), nil, nil)
	assert.Contains(t, res.Inputs, router.AggregateKey)
}

func TestResolveUnfilledFirstPortBestEffort(t *testing.T) {
	// Explicit handles fill a later port; the first port then gets the
	// best-effort pass against the first predecessor's output.
	r := declare(t,
		registry.Port{Name: "question", Type: cty.String},
		registry.Port{Name: "context", Type: cty.String},
	)
	outputs := map[string]any{"src": workflow.Record{"content": "essay", "extra": "x"}}

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.PortEdge("src", "extra", "sink", "context")}, outputs)

	assert.Equal(t, "x", res.Inputs["context"])
	assert.Equal(t, "essay", res.Inputs["question"])
	assert.Contains(t, res.Heuristic, "question")
}

func TestResolveSkipsPredecessorsWithoutOutput(t *testing.T) {
	r := declare(t, registry.Port{Name: "text", Type: cty.String})

	res := router.Resolve(context.Background(), r, testutil.Node("sink", "sink"),
		[]workflow.Edge{testutil.Edge("silent", "sink")}, map[string]any{})

	_, filled := res.Inputs["text"]
	assert.False(t, filled)
}
