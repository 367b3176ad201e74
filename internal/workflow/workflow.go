// Package workflow defines the persisted shape of a workflow graph and the
// value types shared between the execution core and step executors.
//
// Node and Edge are the unit exchanged with the authoring and persistence
// layers; their field set and JSON tags must round-trip losslessly.
package workflow

// Node is a single step placed on the canvas. Config holds the step's
// configuration record as edited by the author; the declared input/output
// ports of the step kind live in the step registry, not on the node.
type Node struct {
	ID      string         `json:"id" yaml:"id"`
	Type    string         `json:"type" yaml:"type"`
	Config  map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	Enabled bool           `json:"enabled" yaml:"enabled"`
}

// Edge connects a source node's output to a target node's input. The handles
// name specific ports; either may be empty, in which case the router falls
// back to declared-port resolution.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// Graph is a complete workflow document: the unit loaded from and saved to
// the persistence layer.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Record is the open key/value shape of a step's input or output. Step
// outputs are typed `any` so a step may also produce a bare string or array;
// Record is the common case and the escape hatch for unregistered step kinds.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Scope carries run-wide values a step executor may consult: a snapshot of
// the loop-scoped scratch variables (item, index, count) and the default
// provider identifiers captured from the provider lookup at run start.
type Scope struct {
	Vars            map[string]any
	DefaultModel    string
	DefaultEmbedder string
}
