package registry

import (
	"context"
	"sync"

	"github.com/nodeloom/nodeloom/internal/workflow"
	"github.com/zclconf/go-cty/cty"
)

// Category classifies a step kind for the executor's control flow. Task
// steps are dispatched to their executor; Branch steps get downstream
// pruning applied to their unpopulated output ports; the loop categories are
// intercepted by the loop sub-executor instead of being dispatched.
type Category string

const (
	CategoryTask      Category = "task"
	CategoryBranch    Category = "branch"
	CategoryForEach   Category = "for_each"
	CategoryLoopCount Category = "loop_count"
	CategoryLoopWhile Category = "loop_while"
)

// Loop reports whether the category is one of the iteration constructs.
func (c Category) Loop() bool {
	return c == CategoryForEach || c == CategoryLoopCount || c == CategoryLoopWhile
}

// Port is a named, typed attachment point on a step kind. Types are cty
// types: cty.String for text, cty.List(cty.String) for text arrays, object
// types for structured data, and cty.DynamicPseudoType as the wildcard that
// matches anything.
type Port struct {
	Name string
	Type cty.Type
}

// StepDefinition declares a registered step kind: its ports and category.
type StepDefinition struct {
	Type     string
	Category Category
	Inputs   []Port
	Outputs  []Port
}

// Input returns the declared input port with the given name.
func (d *StepDefinition) Input(name string) (Port, bool) {
	for _, p := range d.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Output returns the declared output port with the given name.
func (d *StepDefinition) Output(name string) (Port, bool) {
	for _, p := range d.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// FirstInput returns the first declared input port, the default binding
// target when an edge carries no target handle.
func (d *StepDefinition) FirstInput() (Port, bool) {
	if len(d.Inputs) == 0 {
		return Port{}, false
	}
	return d.Inputs[0], true
}

// FirstOutput returns the first declared output port.
func (d *StepDefinition) FirstOutput() (Port, bool) {
	if len(d.Outputs) == 0 {
		return Port{}, false
	}
	return d.Outputs[0], true
}

// StepExecutor runs one step's body. Inputs is the record the router
// resolved from predecessor outputs, config is the node's configuration
// record, and scope carries scratch variables and default provider ids.
// The returned output is usually a workflow.Record but may be any value.
type StepExecutor interface {
	Execute(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error)
}

// ExecutorFunc adapts a function to the StepExecutor interface.
type ExecutorFunc func(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error)

// Execute implements StepExecutor.
func (f ExecutorFunc) Execute(ctx context.Context, inputs workflow.Record, config map[string]any, scope *workflow.Scope) (any, error) {
	return f(ctx, inputs, config, scope)
}

// Registry maps step type tags to definitions and executors for a single
// application instance. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]*StepDefinition
	execs map[string]StepExecutor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		defs:  make(map[string]*StepDefinition),
		execs: make(map[string]StepExecutor),
	}
}

// RegisterStep binds a definition and, optionally, an executor for its type
// tag. Loop-category steps are typically registered with a nil executor
// because the core drives them itself. Re-registering a type overwrites the
// previous entry.
func (r *Registry) RegisterStep(def *StepDefinition, exec StepExecutor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Type] = def
	if exec != nil {
		r.execs[def.Type] = exec
	}
}

// Definition looks up the declared ports for a step type. Absence means the
// type is unregistered (a legacy step): callers accept it unconditionally.
func (r *Registry) Definition(stepType string) (*StepDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[stepType]
	return d, ok
}

// Executor looks up the executor bound for a step type.
func (r *Registry) Executor(stepType string) (StepExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.execs[stepType]
	return e, ok
}

// Module is implemented by packages that contribute step kinds to a registry.
type Module interface {
	Register(r *Registry)
}
