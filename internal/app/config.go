package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string

	LogFormat string
	LogLevel  string

	// Parallel selects the layered concurrent execution mode.
	Parallel bool
	// Breakpoint, when set, halts the pass before running the named node.
	Breakpoint string
	// IncludeDisabled keeps disabled nodes in the schedule.
	IncludeDisabled bool

	// Default provider identifiers copied into the run scope.
	DefaultModel    string
	DefaultEmbedder string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
