// Package executor walks a workflow graph in topological order and drives
// each node through its status lifecycle, delegating step bodies to the
// executors bound in the registry.
//
// The primary pass is single-threaded: one node runs at a time, so the run
// context needs no coordination beyond what the optional layered parallel
// mode requires. Branch pruning, loop re-entry, cancellation, breakpoints
// and single-stepping all live here; per-step timeout and retry policy do
// not, they belong to the calling task layer.
package executor
