package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeStanger/rust-bindocs/internal/config"
	"github.com/JakeStanger/rust-bindocs/internal/pipeline"
	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/replacer"
)

func newRenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Render every template in the docs path (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd)
		},
	}
}

func (a *app) runRender(cmd *cobra.Command) error {
	start := time.Now()
	ws, err := a.prepare(cmd)
	if err != nil {
		return err
	}
	if err := renderAll(cmd.Context(), ws.cfg, ws.resolver, ws.log); err != nil {
		return withCode(1, err)
	}
	ws.log.Info(fmt.Sprintf("Done in %g seconds", time.Since(start).Seconds()))
	return nil
}

// renderAll renders every planned template through the worker pool. One
// failed template does not stop the others.
func renderAll(ctx context.Context, cfg config.Config, lookup replacer.Lookup, log *slog.Logger) error {
	format := render.Format(cfg.Format)
	targets, err := pipeline.Plan(cfg.DocsPath, cfg.OutputPath, cfg.Pattern, format)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		log.Warn("no templates matched", "docs", cfg.DocsPath, "pattern", cfg.Pattern)
		return nil
	}

	orch := pipeline.NewOrchestrator(cfg, lookup, log)
	orch.Start(ctx)
	defer orch.Stop()

	jobs, err := orch.RunPlan(ctx, targets, format)
	if err != nil {
		return err
	}
	if err := pipeline.Wait(ctx, jobs); err != nil {
		return err
	}

	failed, unresolved := 0, 0
	for _, job := range jobs {
		snap := job.Snapshot()
		unresolved += snap.Directives.Unresolved
		if snap.Status != pipeline.StatusCompleted {
			failed++
		}
	}
	if unresolved > 0 {
		log.Warn("unresolved directives left in output", "count", unresolved)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed to render", failed, len(jobs))
	}
	return nil
}
