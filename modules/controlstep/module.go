// Package controlstep registers the control-flow step kinds: the `if`
// branch and the three iteration constructs. The iteration kinds carry no
// executor because the execution core drives them itself; only their
// definitions (ports, category) are contributed here.
package controlstep

import (
	"context"
	"fmt"
	"strings"

	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register contributes the control-flow step kinds to the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.StepDefinition{
		Type:     "if",
		Category: registry.CategoryBranch,
		Inputs:   []registry.Port{{Name: "value", Type: cty.DynamicPseudoType}},
		Outputs: []registry.Port{
			{Name: "true_out", Type: cty.DynamicPseudoType},
			{Name: "false_out", Type: cty.DynamicPseudoType},
		},
	}, registry.ExecutorFunc(runIf))

	r.RegisterStep(&registry.StepDefinition{
		Type:     "for_each",
		Category: registry.CategoryForEach,
		Inputs:   []registry.Port{{Name: "items", Type: cty.DynamicPseudoType}},
		Outputs: []registry.Port{
			{Name: "item", Type: cty.DynamicPseudoType},
			{Name: "index", Type: cty.Number},
			{Name: "results", Type: cty.DynamicPseudoType},
			{Name: "count", Type: cty.Number},
		},
	}, nil)

	r.RegisterStep(&registry.StepDefinition{
		Type:     "loop",
		Category: registry.CategoryLoopCount,
		Outputs: []registry.Port{
			{Name: "item", Type: cty.Number},
			{Name: "index", Type: cty.Number},
			{Name: "results", Type: cty.DynamicPseudoType},
			{Name: "count", Type: cty.Number},
		},
	}, nil)

	r.RegisterStep(&registry.StepDefinition{
		Type:     "while",
		Category: registry.CategoryLoopWhile,
		Outputs: []registry.Port{
			{Name: "item", Type: cty.Number},
			{Name: "index", Type: cty.Number},
			{Name: "results", Type: cty.DynamicPseudoType},
			{Name: "count", Type: cty.Number},
		},
	}, nil)
}

// runIf evaluates the configured condition against the routed input and
// populates exactly one of the two output ports with the input value. The
// unpopulated port's downstream arm is then pruned by the core.
func runIf(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error) {
	value := inputs["value"]
	if field, ok := config["field"].(string); ok && field != "" {
		rec, ok := value.(workflow.Record)
		if !ok {
			if m, isMap := value.(map[string]any); isMap {
				rec = workflow.Record(m)
			} else {
				return nil, fmt.Errorf("config names field %q but input is not a record", field)
			}
		}
		value = rec[field]
	}

	op, _ := config["op"].(string)
	if op == "" {
		op = "truthy"
	}

	result, err := evaluate(op, value, config["value"])
	if err != nil {
		return nil, err
	}

	if result {
		return workflow.Record{"true_out": inputs["value"]}, nil
	}
	return workflow.Record{"false_out": inputs["value"]}, nil
}

func evaluate(op string, left, right any) (bool, error) {
	switch op {
	case "truthy":
		return truthy(left), nil
	case "exists":
		return left != nil, nil
	case "==", "eq":
		return fmt.Sprint(left) == fmt.Sprint(right), nil
	case "!=", "ne":
		return fmt.Sprint(left) != fmt.Sprint(right), nil
	case "contains":
		return strings.Contains(fmt.Sprint(left), fmt.Sprint(right)), nil
	case ">", "gt":
		l, r, err := numbers(left, right)
		if err != nil {
			return false, err
		}
		return l > r, nil
	case "<", "lt":
		l, r, err := numbers(left, right)
		if err != nil {
			return false, err
		}
		return l < r, nil
	}
	return false, fmt.Errorf("unknown condition operator %q", op)
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case float64:
		return x != 0
	case []any:
		return len(x) > 0
	case workflow.Record:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

func numbers(left, right any) (float64, float64, error) {
	l, ok := asFloat(left)
	if !ok {
		return 0, 0, fmt.Errorf("left operand %v is not numeric", left)
	}
	r, ok := asFloat(right)
	if !ok {
		return 0, 0, fmt.Errorf("right operand %v is not numeric", right)
	}
	return l, r, nil
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
