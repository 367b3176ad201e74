// Package loader reads a workflow document from disk. Three formats are
// supported, selected by file extension: HCL (.hcl), YAML (.yaml/.yml) and
// JSON (.json). Loading normalizes the document: nodes and edges missing an
// id get a generated one, and the enabled flag defaults to true when the
// file omits it.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/ports"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// Load reads and normalizes the workflow document at path.
func Load(ctx context.Context, path string) (*workflow.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file: %w", err)
	}

	var wf *workflow.Graph
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		wf, err = parseHCL(src, path)
	case ".yaml", ".yml":
		wf, err = parseYAML(src)
	case ".json":
		wf, err = parseJSON(src)
	default:
		return nil, fmt.Errorf("unsupported workflow file extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	fillIDs(wf)
	logger.Debug("workflow loaded", "path", path, "nodes", len(wf.Nodes), "edges", len(wf.Edges))
	return wf, nil
}

// rawNode mirrors workflow.Node with a pointer Enabled so an absent flag is
// distinguishable from an explicit false.
type rawNode struct {
	ID      string         `json:"id" yaml:"id"`
	Type    string         `json:"type" yaml:"type"`
	Config  map[string]any `json:"config" yaml:"config"`
	Enabled *bool          `json:"enabled" yaml:"enabled"`
}

type rawGraph struct {
	Nodes []rawNode       `json:"nodes" yaml:"nodes"`
	Edges []workflow.Edge `json:"edges" yaml:"edges"`
}

func (r *rawGraph) graph() *workflow.Graph {
	wf := &workflow.Graph{Edges: r.Edges}
	for _, n := range r.Nodes {
		enabled := true
		if n.Enabled != nil {
			enabled = *n.Enabled
		}
		wf.Nodes = append(wf.Nodes, workflow.Node{
			ID:      n.ID,
			Type:    n.Type,
			Config:  n.Config,
			Enabled: enabled,
		})
	}
	return wf
}

func parseJSON(src []byte) (*workflow.Graph, error) {
	var raw rawGraph
	if err := json.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON workflow: %w", err)
	}
	return raw.graph(), nil
}

// fillIDs assigns a generated id to any node or edge missing one, so the
// rest of the system can key on ids unconditionally.
func fillIDs(wf *workflow.Graph) {
	for i := range wf.Nodes {
		if wf.Nodes[i].ID == "" {
			wf.Nodes[i].ID = uuid.NewString()
		}
	}
	for i := range wf.Edges {
		if wf.Edges[i].ID == "" {
			wf.Edges[i].ID = uuid.NewString()
		}
	}
}

// ValidateEdges checks every edge of the document against the registry's
// declared ports and logs rejects as warnings. Port mismatch is advisory at
// load time, never fatal; the returned rejects let a caller surface them.
func ValidateEdges(ctx context.Context, reg *registry.Registry, wf *workflow.Graph) []ports.Verdict {
	logger := ctxlog.FromContext(ctx)

	types := make(map[string]string, len(wf.Nodes))
	for _, n := range wf.Nodes {
		types[n.ID] = n.Type
	}

	var rejects []ports.Verdict
	for _, e := range wf.Edges {
		srcType, ok := types[e.Source]
		if !ok {
			logger.Warn("edge references unknown source node", "edge", e.ID, "source", e.Source)
			continue
		}
		tgtType, ok := types[e.Target]
		if !ok {
			logger.Warn("edge references unknown target node", "edge", e.ID, "target", e.Target)
			continue
		}
		if v := ports.Validate(reg, e, srcType, tgtType); !v.OK {
			logger.Warn("edge fails port validation", "edge", e.ID, "reason", v.Reason)
			rejects = append(rejects, v)
		}
	}
	return rejects
}
