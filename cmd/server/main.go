package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"swiftpolicy/internal/platform/config"
	"swiftpolicy/internal/platform/httpserver"
	"swiftpolicy/internal/platform/logger"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

// main wires dependencies, starts the registry worker and the ops server,
// and waits for a signal. Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.OpsAddr, a.router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(ctx, "starting registry worker",
			"interval", cfg.Worker.TickInterval.String(),
			"gateway", a.gatewayName,
		)
		return a.worker.Run(ctx)
	})
	g.Go(func() error {
		log.InfoContext(ctx, "starting ops server", "addr", cfg.OpsAddr, "version", version)
		return httpserver.Serve(ctx, srv, shutdownTimeout)
	})
	return g.Wait()
}
