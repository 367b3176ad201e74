// Package registry holds the step and provider registries the execution
// core is parameterized with. Both are plain constructor-injected values:
// nothing in this repository reaches for a global registry, so tests can
// assemble a fake one per case.
//
// A step kind is described by a StepDefinition (its declared ports and its
// control-flow category) and executed by a StepExecutor. The core never runs
// step logic itself; it only dispatches through the executor bound here.
package registry
