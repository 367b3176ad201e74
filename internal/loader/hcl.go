package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// hclNode is a `node "<id>" { ... }` block.
type hclNode struct {
	ID      string         `hcl:"id,label"`
	Type    string         `hcl:"type"`
	Enabled *bool          `hcl:"enabled,optional"`
	Config  hcl.Expression `hcl:"config,optional"`
}

// hclEdge is an `edge { ... }` block.
type hclEdge struct {
	ID           string `hcl:"id,optional"`
	Source       string `hcl:"source"`
	Target       string `hcl:"target"`
	SourceHandle string `hcl:"source_handle,optional"`
	TargetHandle string `hcl:"target_handle,optional"`
}

type hclFile struct {
	Nodes []hclNode `hcl:"node,block"`
	Edges []hclEdge `hcl:"edge,block"`
}

func parseHCL(src []byte, filename string) (*workflow.Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing HCL workflow: %w", diags)
	}

	var doc hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("decoding HCL workflow: %w", diags)
	}

	wf := &workflow.Graph{}
	for _, n := range doc.Nodes {
		enabled := true
		if n.Enabled != nil {
			enabled = *n.Enabled
		}
		cfg, err := configFromExpr(n.Config)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
		wf.Nodes = append(wf.Nodes, workflow.Node{
			ID:      n.ID,
			Type:    n.Type,
			Config:  cfg,
			Enabled: enabled,
		})
	}
	for _, e := range doc.Edges {
		wf.Edges = append(wf.Edges, workflow.Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return wf, nil
}

func configFromExpr(expr hcl.Expression) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating config: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	converted, err := ctyToGo(val)
	if err != nil {
		return nil, fmt.Errorf("converting config: %w", err)
	}
	cfg, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config must be an object, got %T", converted)
	}
	return cfg, nil
}

// ctyToGo converts a cty.Value into plain Go values, the shape the rest of
// the system handles node configuration in.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	t := val.Type()
	switch {
	case t.Equals(cty.String):
		return val.AsString(), nil
	case t.Equals(cty.Number):
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case t.Equals(cty.Bool):
		return val.True(), nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			conv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = conv
		}
		return out, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		var out []any
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			conv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported config value type %s", t.FriendlyName())
}
