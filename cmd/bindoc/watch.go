package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeStanger/rust-bindocs/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Render, then re-render whenever the crate or templates change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			cfg, log := ws.cfg, ws.log

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := renderAll(ctx, cfg, ws.resolver, log); err != nil {
				log.Error("initial render failed", "error", err)
			}

			roots := []string{filepath.Join(cfg.ProjectPath, "src"), cfg.DocsPath}
			w, err := watch.New(roots, []string{cfg.OutputPath}, cfg.WatchDebounce, log)
			if err != nil {
				return withCode(1, err)
			}

			log.Info("watching for changes", "src", roots[0], "docs", cfg.DocsPath)
			return w.Run(ctx, func(ctx context.Context, changed []string) error {
				start := time.Now()
				log.Info("change detected, rebuilding", "files", len(changed))

				// Modules may have been added or removed, so resolve from scratch.
				res, err := resolveCrate(ctx, cfg, log)
				if err != nil {
					return fmt.Errorf("resolve: %w", err)
				}
				if err := renderAll(ctx, cfg, res, log); err != nil {
					return err
				}
				log.Info(fmt.Sprintf("Done in %g seconds", time.Since(start).Seconds()))
				return nil
			})
		},
	}
}
