// Package main runs ingestion cycles from the command line: one cycle by default,
// or the scheduled loop with --loop.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/app"
	"grocery-price-lab/internal/observability"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if err := app.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("load environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		logrus.WithError(err).Error("ingestion failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	var cfg app.Config
	cfg.RegisterFlags(flags)
	loop := flags.Bool("loop", false, "Keep running cycles every --ingest-interval until interrupted")
	metricsAddr := flags.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log := logger.WithField("component", "ingest")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Start metrics server if enabled
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			log.WithField("addr", *metricsAddr).Info("metrics server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Warn("metrics server failed")
			}
		}()
		defer srv.Close()
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	locker, closeLocker, err := app.NewLocker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create ingestion lock: %w", err)
	}
	defer closeLocker()

	engines := app.NewEngines(stores, logger, time.Now)
	runner := app.NewRunner(cfg, stores, engines, locker, logger, time.Now)

	if *loop {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("ingestion loop: %w", err)
		}
		return nil
	}

	rec, err := runner.RunOnce(ctx)
	if rec != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(rec); encErr != nil {
			log.WithError(encErr).Warn("encode run")
		}
	}
	if err != nil {
		return fmt.Errorf("ingestion cycle: %w", err)
	}
	return nil
}
