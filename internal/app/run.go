package app

import (
	"context"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
	"github.com/nodeloom/nodeloom/internal/executor"
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/internal/workflow"
)

// Run executes the loaded workflow and logs node transitions as they happen.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started")

	engine := executor.New(a.registry, registry.StaticProviders{
		Model:    a.config.DefaultModel,
		Embedder: a.config.DefaultEmbedder,
	})

	opts := executor.Options{
		Nodes:          a.wf.Nodes,
		Edges:          a.wf.Edges,
		FilterDisabled: !a.config.IncludeDisabled,
		Breakpoint:     a.config.Breakpoint,
		Parallel:       a.config.Parallel,
		OnStatus: func(nodeID string, status workflow.Status, output any, err error) {
			if err != nil {
				a.logger.Error("node transition", "node", nodeID, "status", status, "error", err)
				return
			}
			a.logger.Info("node transition", "node", nodeID, "status", status)
		},
	}

	rc, err := engine.Run(ctx, opts)
	if err != nil {
		return err
	}

	if rc.Paused != "" {
		a.logger.Info("run paused at breakpoint", "node", rc.Paused)
	}
	if len(rc.Unscheduled) > 0 {
		a.logger.Warn("some nodes were never scheduled", "nodes", rc.Unscheduled)
	}

	summary := map[workflow.Status]int{}
	for _, st := range rc.Statuses() {
		summary[st]++
	}
	a.logger.Info("run finished", "run_id", rc.RunID,
		"completed", summary[workflow.StatusCompleted],
		"errors", summary[workflow.StatusError],
		"skipped", summary[workflow.StatusSkipped])

	a.logger.Debug("App.Run method finished")
	return nil
}
