// Package ports validates a proposed edge against the declared ports of its
// endpoint step kinds. Validation happens at edge-creation time and is
// advisory: a reject is returned to the authoring layer, never raised as an
// execution error.
package ports

import (
	"fmt"

	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// Verdict is the outcome of validating one candidate edge.
type Verdict struct {
	OK     bool
	Reason string
}

// Accept returns an accepting verdict with the given reason.
func Accept(reason string) Verdict { return Verdict{OK: true, Reason: reason} }

// Reject returns a rejecting verdict with the given reason.
func Reject(reason string) Verdict { return Verdict{OK: false, Reason: reason} }

// Validate checks a candidate edge between a source step kind and a target
// step kind. Unregistered kinds are accepted unconditionally so legacy steps
// keep working. For registered kinds the named (or first declared) output
// and input ports must exist and their types must be compatible.
func Validate(reg *registry.Registry, edge workflow.Edge, sourceType, targetType string) Verdict {
	srcDef, ok := reg.Definition(sourceType)
	if !ok {
		return Accept(fmt.Sprintf("source type %q is not registered", sourceType))
	}
	tgtDef, ok := reg.Definition(targetType)
	if !ok {
		return Accept(fmt.Sprintf("target type %q is not registered", targetType))
	}

	out, verdict, done := resolveOutput(srcDef, edge.SourceHandle)
	if done {
		return verdict
	}
	in, verdict, done := resolveInput(tgtDef, edge.TargetHandle)
	if done {
		return verdict
	}

	if compatible(out.Type, in.Type) {
		return Accept(fmt.Sprintf("%s -> %s", out.Name, in.Name))
	}
	return Reject(fmt.Sprintf("output port %q (%s) is not compatible with input port %q (%s)",
		out.Name, out.Type.FriendlyName(), in.Name, in.Type.FriendlyName()))
}

func resolveOutput(def *registry.StepDefinition, handle string) (registry.Port, Verdict, bool) {
	if handle != "" {
		p, ok := def.Output(handle)
		if !ok {
			return registry.Port{}, Reject(fmt.Sprintf("step type %q declares no output port %q", def.Type, handle)), true
		}
		return p, Verdict{}, false
	}
	p, ok := def.FirstOutput()
	if !ok {
		// Nothing declared to check against.
		return registry.Port{}, Accept(fmt.Sprintf("step type %q declares no output ports", def.Type)), true
	}
	return p, Verdict{}, false
}

func resolveInput(def *registry.StepDefinition, handle string) (registry.Port, Verdict, bool) {
	if handle != "" {
		p, ok := def.Input(handle)
		if !ok {
			return registry.Port{}, Reject(fmt.Sprintf("step type %q declares no input port %q", def.Type, handle)), true
		}
		return p, Verdict{}, false
	}
	p, ok := def.FirstInput()
	if !ok {
		return registry.Port{}, Accept(fmt.Sprintf("step type %q declares no input ports", def.Type)), true
	}
	return p, Verdict{}, false
}

// compatible implements the port type relation: the wildcard matches
// everything on either side, otherwise an exact type match is required.
func compatible(out, in cty.Type) bool {
	if out.Equals(cty.DynamicPseudoType) || in.Equals(cty.DynamicPseudoType) {
		return true
	}
	return out.Equals(in)
}
