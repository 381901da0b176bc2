package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/listing-tracker/internal/api"
	"github.com/donaldgifford/listing-tracker/internal/api/handlers"
	"github.com/donaldgifford/listing-tracker/internal/pipeline"
	"github.com/donaldgifford/listing-tracker/internal/tracing"
	"github.com/donaldgifford/listing-tracker/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scheduler",
		Long: "Starts the HTTP API and the scheduler. Every enabled job is run against its\n" +
			"providers on schedule.interval; stored listings without coordinates are\n" +
			"geocoded on schedule.geocode_backfill_interval.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("flushing telemetry", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	if n, err := a.store.RecoverStaleJobRuns(ctx, cfg.Pipeline.RunTimeout); err != nil {
		log.Warn("recovering stale job runs", "error", err)
	} else if n > 0 {
		log.Info("marked stale job runs failed", "count", n)
	}

	sched, err := pipeline.NewScheduler(a.engine, a.backfill(),
		cfg.Schedule.Interval, cfg.Schedule.GeocodeBackfillInterval,
		logger.Component(log, "scheduler"))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()

	e := api.NewServer(api.Deps{
		Jobs:      a.jobs,
		Runs:      a.store,
		Listings:  a.store,
		Providers: a.providers,
		Runner:    a.engine,
		Pingers:   []handlers.Pinger{a.store, a.jobs},
	}, Version, logger.Component(log, "api"))
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	log.Info("starting server", "addr", addr, "providers", cfg.ProviderIDs())

	serverErr := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var startErr error
	select {
	case <-ctx.Done():
	case startErr = <-serverErr:
	}

	log.Info("shutting down")

	<-sched.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	if startErr != nil {
		return fmt.Errorf("running server: %w", startErr)
	}

	log.Info("server stopped")
	return nil
}
