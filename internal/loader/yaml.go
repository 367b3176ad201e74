package loader

import (
	"fmt"

	"github.com/nodeloom/nodeloom/internal/workflow"
	"gopkg.in/yaml.v3"
)

func parseYAML(src []byte) (*workflow.Graph, error) {
	var raw rawGraph
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("parsing YAML workflow: %w", err)
	}
	return raw.graph(), nil
}
