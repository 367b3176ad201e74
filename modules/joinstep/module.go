// Package joinstep provides the `join_text` step kind: it concatenates an
// array of text chunks into a single text output.
package joinstep

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

// Register registers the join_text step kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.StepDefinition{
		Type:     "join_text",
		Category: registry.CategoryTask,
		Inputs:   []registry.Port{{Name: "chunks", Type: cty.List(cty.String)}},
		Outputs:  []registry.Port{{Name: "text", Type: cty.String}},
	}, registry.ExecutorFunc(run))
}

func run(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error) {
	sep, _ := config["separator"].(string)
	if sep == "" {
		sep = "\n"
	}

	var parts []string
	switch chunks := inputs["chunks"].(type) {
	case []string:
		parts = chunks
	case []any:
		for _, c := range chunks {
			parts = append(parts, fmt.Sprint(c))
		}
	case nil:
		// Nothing routed: join over an empty set.
	default:
		return nil, fmt.Errorf("chunks input must be an array, got %T", chunks)
	}

	return workflow.Record{"text": strings.Join(parts, sep)}, nil
}
