// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/nodeloom/nodeloom/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("nodeloom", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
nodeloom - execution engine for canvas-authored workflows.

Usage:
  nodeloom [options] [WORKFLOW_PATH]

Arguments:
  WORKFLOW_PATH
    Path to a workflow file (.hcl, .yaml, .yml or .json).

Options:
`)
		flagSet.PrintDefaults()
	}

	workflowFlag := flagSet.String("workflow", "", "Path to the workflow file.")
	wFlag := flagSet.String("w", "", "Path to the workflow file (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	parallelFlag := flagSet.Bool("parallel", false, "Execute independent nodes of each dependency layer concurrently.")
	breakpointFlag := flagSet.String("breakpoint", "", "Halt the pass before running the node with this id.")
	includeDisabledFlag := flagSet.Bool("include-disabled", false, "Schedule nodes whose enabled flag is false.")
	modelFlag := flagSet.String("model", "", "Default model provider identifier exposed to steps.")
	embedderFlag := flagSet.String("embedder", "", "Default embedding provider identifier exposed to steps.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *workflowFlag != "" {
		path = *workflowFlag
	} else if *wFlag != "" {
		path = *wFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		WorkflowPath:    path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		Parallel:        *parallelFlag,
		Breakpoint:      *breakpointFlag,
		IncludeDisabled: *includeDisabledFlag,
		DefaultModel:    *modelFlag,
		DefaultEmbedder: *embedderFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
