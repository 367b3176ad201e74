// Package router resolves the input record for a node from its
// predecessors' recorded outputs.
//
// When both ends of an edge name a port the copy is exact. Otherwise the
// router falls back to an ordered, per-port-type table of conventional field
// names. That heuristic trades strict typing for default-wiring ergonomics;
// every heuristically-filled port is reported in the Resolution so callers
// can log it.
package router

import (
	"context"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// AggregateKey is the reserved input field that always carries the full list
// of predecessor outputs, in edge order.
const AggregateKey = "_predecessors"

// Fallback field-name tables, tried in order. The tables are deliberately
// explicit data rather than ad hoc string matching so they can be test-covered
// and extended in one place.
var (
	textFields   = []string{"text", "content", "response", "prompt"}
	structFields = []string{"data", "result", "json"}
	listFields   = []string{"chunks", "texts"}
)

// Resolution is a resolved input record plus the names of input ports that
// were filled heuristically rather than by an exact port match.
type Resolution struct {
	Inputs    workflow.Record
	Heuristic []string
}

// Resolve builds the input record for node from its incoming edges and the
// outputs recorded so far. Edges whose source has no recorded output
// contribute nothing.
func Resolve(ctx context.Context, reg *registry.Registry, node workflow.Node, incoming []workflow.Edge, outputs map[string]any) Resolution {
	logger := ctxlog.FromContext(ctx)

	preds := predecessorOrder(incoming)
	aggregate := make([]any, 0, len(preds))
	for _, p := range preds {
		if out, ok := outputs[p]; ok {
			aggregate = append(aggregate, out)
		}
	}

	res := Resolution{Inputs: workflow.Record{}}
	def, registered := reg.Definition(node.Type)

	if !registered || len(def.Inputs) == 0 || len(incoming) == 0 {
		// No declared input ports (or nothing wired in): expose the first
		// predecessor's full output as the input record.
		if len(preds) > 0 {
			if out, ok := outputs[preds[0]]; ok {
				if rec, isRec := out.(workflow.Record); isRec {
					res.Inputs = rec.Clone()
				} else {
					res.Inputs["input"] = out
				}
			}
		}
		res.Inputs[AggregateKey] = aggregate
		return res
	}

	for _, e := range incoming {
		out, ok := outputs[e.Source]
		if !ok {
			continue
		}

		if e.SourceHandle != "" && e.TargetHandle != "" {
			if rec, isRec := out.(workflow.Record); isRec {
				if v, has := rec[e.SourceHandle]; has {
					res.Inputs[e.TargetHandle] = v
				}
			}
			continue
		}

		port, ok := targetPort(def, e.TargetHandle)
		if !ok {
			continue
		}
		if _, filled := res.Inputs[port.Name]; filled {
			continue
		}

		// Exact field match on the input port's name wins over heuristics.
		if rec, isRec := out.(workflow.Record); isRec {
			if v, has := rec[port.Name]; has {
				res.Inputs[port.Name] = v
				continue
			}
		}

		if v, ok := guessValue(port.Type, out); ok {
			res.Inputs[port.Name] = v
			res.Heuristic = append(res.Heuristic, port.Name)
		}
	}

	// Last resort: the first input port gets a best-effort value from the
	// first predecessor's output.
	if first, ok := def.FirstInput(); ok {
		if _, filled := res.Inputs[first.Name]; !filled && len(preds) > 0 {
			if out, ok := outputs[preds[0]]; ok {
				if v, ok := guessValue(first.Type, out); ok {
					res.Inputs[first.Name] = v
					res.Heuristic = append(res.Heuristic, first.Name)
				}
			}
		}
	}

	res.Inputs[AggregateKey] = aggregate
	if len(res.Heuristic) > 0 {
		logger.Debug("inputs resolved heuristically", "node", node.ID, "ports", res.Heuristic)
	}
	return res
}

// predecessorOrder returns the distinct edge sources in edge order.
func predecessorOrder(incoming []workflow.Edge) []string {
	seen := make(map[string]struct{}, len(incoming))
	preds := make([]string, 0, len(incoming))
	for _, e := range incoming {
		if _, ok := seen[e.Source]; ok {
			continue
		}
		seen[e.Source] = struct{}{}
		preds = append(preds, e.Source)
	}
	return preds
}

func targetPort(def *registry.StepDefinition, handle string) (registry.Port, bool) {
	if handle != "" {
		return def.Input(handle)
	}
	return def.FirstInput()
}

// guessValue applies the type-directed fallback table for an input port
// against one predecessor output.
func guessValue(t cty.Type, out any) (any, bool) {
	rec, isRec := out.(workflow.Record)

	switch {
	case t.Equals(cty.String):
		if s, ok := out.(string); ok {
			return s, true
		}
		if isRec {
			return firstField(rec, textFields)
		}
	case t.IsListType() && t.ElementType().Equals(cty.String):
		if isRec {
			return firstField(rec, listFields)
		}
	default:
		// Structured and wildcard ports prefer conventional container
		// fields, then accept the raw output.
		if isRec {
			if v, ok := firstField(rec, structFields); ok {
				return v, true
			}
		}
		return out, true
	}
	return nil, false
}

func firstField(rec workflow.Record, names []string) (any, bool) {
	for _, name := range names {
		if v, ok := rec[name]; ok {
			return v, true
		}
	}
	return nil, false
}
