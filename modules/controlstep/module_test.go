package controlstep

import (
	"context"
	"testing"

	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterContributesAllKinds(t *testing.T) {
	r := registry.New()
	(&Module{}).Register(r)

	for _, typ := range []string{"if", "for_each", "loop", "while"} {
		_, ok := r.Definition(typ)
		assert.True(t, ok, typ)
	}

	_, ok := r.Executor("if")
	assert.True(t, ok)
	for _, typ := range []string{"for_each", "loop", "while"} {
		_, ok := r.Executor(typ)
		assert.False(t, ok, typ)
	}
}

func TestRunIfOperators(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		config map[string]any
		want   string
	}{
		{"truthy string", "yes", nil, "true_out"},
		{"truthy empty string", "", nil, "false_out"},
		{"truthy zero", 0, nil, "false_out"},
		{"exists nil", nil, map[string]any{"op": "exists"}, "false_out"},
		{"exists value", "x", map[string]any{"op": "exists"}, "true_out"},
		{"eq match", "abc", map[string]any{"op": "==", "value": "abc"}, "true_out"},
		{"eq mismatch", "abc", map[string]any{"op": "==", "value": "xyz"}, "false_out"},
		{"ne", "abc", map[string]any{"op": "!=", "value": "xyz"}, "true_out"},
		{"contains hit", "hello world", map[string]any{"op": "contains", "value": "world"}, "true_out"},
		{"contains miss", "hello", map[string]any{"op": "contains", "value": "moon"}, "false_out"},
		{"gt", 7, map[string]any{"op": ">", "value": 5}, "true_out"},
		{"lt", 7, map[string]any{"op": "<", "value": 5}, "false_out"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := runIf(context.Background(), workflow.Record{"value": tc.value}, tc.config, nil)
			require.NoError(t, err)
			rec := out.(workflow.Record)
			_, has := rec[tc.want]
			assert.True(t, has, "expected %s populated, got %v", tc.want, rec)
			assert.Len(t, rec, 1, "exactly one port populated")
		})
	}
}

func TestRunIfFieldSelector(t *testing.T) {
	out, err := runIf(context.Background(),
		workflow.Record{"value": workflow.Record{"score": 9}},
		map[string]any{"field": "score", "op": ">", "value": 5}, nil)
	require.NoError(t, err)

	rec := out.(workflow.Record)
	v, has := rec["true_out"]
	require.True(t, has)
	// The port carries the whole routed input, not the selected field.
	assert.Equal(t, workflow.Record{"score": 9}, v)
}

func TestRunIfFieldOnNonRecord(t *testing.T) {
	_, err := runIf(context.Background(),
		workflow.Record{"value": "just text"},
		map[string]any{"field": "score"}, nil)
	assert.Error(t, err)
}

func TestRunIfUnknownOperator(t *testing.T) {
	_, err := runIf(context.Background(),
		workflow.Record{"value": 1},
		map[string]any{"op": "xor"}, nil)
	assert.ErrorContains(t, err, "unknown condition operator")
}

func TestRunIfNonNumericComparison(t *testing.T) {
	_, err := runIf(context.Background(),
		workflow.Record{"value": "words"},
		map[string]any{"op": ">", "value": 5}, nil)
	assert.Error(t, err)
}
