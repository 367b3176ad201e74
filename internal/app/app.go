// Package app wires the pieces of the workflow runner together: logger,
// registry, loaded workflow document, and the execution engine.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/loader"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	wf       *workflow.Graph
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Failure to load the workflow document is a fatal startup error.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("logger configured")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("step modules registered", "count", len(modules))

	wf, err := loader.Load(ctx, cfg.WorkflowPath)
	if err != nil {
		panic(fmt.Errorf("failed to load workflow: %w", err))
	}

	if rejects := loader.ValidateEdges(ctx, reg, wf); len(rejects) > 0 {
		logger.Warn("workflow has edges that fail port validation", "count", len(rejects))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		wf:       wf,
		config:   cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Workflow returns the loaded workflow document.
func (a *App) Workflow() *workflow.Graph {
	return a.wf
}
