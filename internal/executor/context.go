package executor

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// StatusFunc observes node status transitions. It is the sole progress
// channel out of a run: every transition fires it, including skips and
// loop-body transitions. Output and err are non-nil only where the
// transition carries them (completed and error respectively).
type StatusFunc func(nodeID string, status workflow.Status, output any, err error)

// Context is the mutable state of one run: recorded outputs, statuses, error
// messages, and the loop-scoped scratch variables. The serial pass mutates
// it from a single goroutine; the layered parallel mode mutates it from one
// goroutine per in-flight node, so all access goes through the mutex.
type Context struct {
	RunID string

	mu       sync.RWMutex
	outputs  map[string]any
	statuses map[string]workflow.Status
	errs     map[string]string
	vars     map[string]any

	// Unscheduled lists nodes excluded from the pass because they sit on or
	// behind a cycle. Populated at run start, read-only afterwards.
	Unscheduled []string

	// Paused is the breakpoint node id the pass halted at, empty otherwise.
	Paused string

	providers workflow.Scope
	onStatus  StatusFunc
}

func newContext(onStatus StatusFunc, providers workflow.Scope) *Context {
	return &Context{
		RunID:     uuid.NewString(),
		outputs:   make(map[string]any),
		statuses:  make(map[string]workflow.Status),
		errs:      make(map[string]string),
		vars:      make(map[string]any),
		providers: providers,
		onStatus:  onStatus,
	}
}

// Output returns the recorded output for a node, if any.
func (c *Context) Output(id string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.outputs[id]
	return v, ok
}

// Outputs returns a copy of all recorded outputs.
func (c *Context) Outputs() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.outputs))
	for k, v := range c.outputs {
		out[k] = v
	}
	return out
}

// Status returns the current status of a node. Nodes never touched by the
// pass report StatusIdle.
func (c *Context) Status(id string) workflow.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if st, ok := c.statuses[id]; ok {
		return st
	}
	return workflow.StatusIdle
}

// Statuses returns a copy of the full status map.
func (c *Context) Statuses() map[string]workflow.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]workflow.Status, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the per-node error messages.
func (c *Context) Errors() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}
	return out
}

// Var returns a scratch variable.
func (c *Context) Var(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[name]
	return v, ok
}

func (c *Context) setOutput(id string, v any) {
	c.mu.Lock()
	c.outputs[id] = v
	c.mu.Unlock()
}

func (c *Context) clearOutput(id string) {
	c.mu.Lock()
	delete(c.outputs, id)
	c.mu.Unlock()
}

func (c *Context) setStatus(id string, st workflow.Status, output any, err error) {
	c.mu.Lock()
	c.statuses[id] = st
	if err != nil {
		c.errs[id] = err.Error()
	}
	cb := c.onStatus
	c.mu.Unlock()
	if cb != nil {
		cb(id, st, output, err)
	}
}

func (c *Context) setVar(name string, v any) {
	c.mu.Lock()
	c.vars[name] = v
	c.mu.Unlock()
}

// saveVars snapshots the named variables so a loop can restore the enclosing
// scope when it finishes; absent variables are recorded as absent.
func (c *Context) saveVars(names ...string) map[string]*savedVar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	saved := make(map[string]*savedVar, len(names))
	for _, n := range names {
		v, ok := c.vars[n]
		saved[n] = &savedVar{value: v, present: ok}
	}
	return saved
}

func (c *Context) restoreVars(saved map[string]*savedVar) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n, s := range saved {
		if s.present {
			c.vars[n] = s.value
		} else {
			delete(c.vars, n)
		}
	}
}

type savedVar struct {
	value   any
	present bool
}

// scope builds the snapshot handed to a step executor: a copy of the scratch
// variables plus the provider identifiers captured at run start.
func (c *Context) scope() *workflow.Scope {
	c.mu.RLock()
	defer c.mu.RUnlock()
	vars := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		vars[k] = v
	}
	return &workflow.Scope{
		Vars:            vars,
		DefaultModel:    c.providers.DefaultModel,
		DefaultEmbedder: c.providers.DefaultEmbedder,
	}
}
