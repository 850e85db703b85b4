package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JakeStanger/rust-bindocs/internal/api"
	"github.com/JakeStanger/rust-bindocs/internal/pipeline"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalogue and render previews over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			cfg, log := ws.cfg, ws.log
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch := pipeline.NewOrchestrator(cfg, ws.resolver, log)
			orch.Start(ctx)

			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      api.NewServer(orch, ws.resolver, log, cfg),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ln, err := net.Listen("tcp", httpServer.Addr)
			if err != nil {
				orch.Stop()
				return withCode(1, err)
			}
			log.Info("starting bindoc", "port", cfg.Port, "modules", ws.resolver.Catalogue().Len())
			if err := serve(ctx, stop, httpServer, ln, orch, log); err != nil {
				return withCode(1, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8090", "listen port")
	return cmd
}

// serve runs srv on ln until ctx ends. The orchestrator is stopped only
// after Shutdown has drained in-flight requests.
func serve(ctx context.Context, cancel context.CancelFunc, srv *http.Server, ln net.Listener, orch *pipeline.Orchestrator, log *slog.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		log.Info("shutting down...")

		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown incomplete", "error", err)
		}
	}()

	err := srv.Serve(ln)
	cancel()
	<-drained
	orch.Stop()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
