// Package testutil provides fake step kinds and small helpers shared by the
// package tests. Everything here is deterministic and side-effect free so
// tests can assert on exact run state.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// NewRegistry builds a registry populated by the given modules.
func NewRegistry(mods ...registry.Module) *registry.Registry {
	r := registry.New()
	for _, m := range mods {
		m.Register(r)
	}
	return r
}

// DefineTask registers a plain task step kind with the given ports and executor.
func DefineTask(r *registry.Registry, stepType string, inputs, outputs []registry.Port, exec registry.StepExecutor) {
	r.RegisterStep(&registry.StepDefinition{
		Type:     stepType,
		Category: registry.CategoryTask,
		Inputs:   inputs,
		Outputs:  outputs,
	}, exec)
}

// TextPorts is a convenience single text port declaration.
func TextPorts(name string) []registry.Port {
	return []registry.Port{{Name: name, Type: cty.String}}
}

// AnyPorts is a convenience single wildcard port declaration.
func AnyPorts(name string) []registry.Port {
	return []registry.Port{{Name: name, Type: cty.DynamicPseudoType}}
}

// Static returns an executor that always produces the same output.
func Static(out any) registry.StepExecutor {
	return registry.ExecutorFunc(func(context.Context, workflow.Record, map[string]any, *workflow.Scope) (any, error) {
		return out, nil
	})
}

// Echo returns an executor that produces its routed inputs as its output.
func Echo() registry.StepExecutor {
	return registry.ExecutorFunc(func(_ context.Context, inputs workflow.Record, _ map[string]any, _ *workflow.Scope) (any, error) {
		return inputs.Clone(), nil
	})
}

// Fail returns an executor that always fails with the given message.
func Fail(msg string) registry.StepExecutor {
	return registry.ExecutorFunc(func(context.Context, workflow.Record, map[string]any, *workflow.Scope) (any, error) {
		return nil, errors.New(msg)
	})
}

// Transition is one observed status change.
type Transition struct {
	NodeID string
	Status workflow.Status
}

// Recorder collects status transitions; safe for concurrent callbacks from
// the parallel execution mode.
type Recorder struct {
	mu          sync.Mutex
	Transitions []Transition
}

// Callback returns a status callback that appends to the recorder.
func (r *Recorder) Callback() func(nodeID string, status workflow.Status, output any, err error) {
	return func(nodeID string, status workflow.Status, _ any, _ error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.Transitions = append(r.Transitions, Transition{NodeID: nodeID, Status: status})
	}
}

// StatusesOf returns the sequence of statuses observed for one node.
func (r *Recorder) StatusesOf(nodeID string) []workflow.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []workflow.Status
	for _, t := range r.Transitions {
		if t.NodeID == nodeID {
			out = append(out, t.Status)
		}
	}
	return out
}

// Node builds an enabled workflow node.
func Node(id, stepType string) workflow.Node {
	return workflow.Node{ID: id, Type: stepType, Enabled: true}
}

// Edge builds an edge without handles.
func Edge(source, target string) workflow.Edge {
	return workflow.Edge{ID: source + "->" + target, Source: source, Target: target}
}

// PortEdge builds an edge with source/target handles.
func PortEdge(source, sourceHandle, target, targetHandle string) workflow.Edge {
	return workflow.Edge{
		ID:           source + "->" + target,
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
}
