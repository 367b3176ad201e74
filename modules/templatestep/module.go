// Package templatestep provides the `template` step kind: it renders a Go
// text/template from the node configuration against the routed inputs and
// the run scope, producing a text output.
package templatestep

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the template step kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStep(&registry.StepDefinition{
		Type:     "template",
		Category: registry.CategoryTask,
		Inputs:   []registry.Port{{Name: "text", Type: cty.String}},
		Outputs:  []registry.Port{{Name: "text", Type: cty.String}},
	}, registry.ExecutorFunc(run))
}

func run(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error) {
	src, _ := config["template"].(string)
	if src == "" {
		return nil, fmt.Errorf("template step requires a template in config")
	}

	tmpl, err := template.New("step").Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	data := map[string]any{
		"inputs": map[string]any(inputs),
		"vars":   scope.Vars,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}
	return workflow.Record{"text": sb.String()}, nil
}
