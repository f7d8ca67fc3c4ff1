// Package main runs the query API together with the scheduled ingestion runner:
// - Ingestion (scheduled): catalog snapshot → dedup → fact store (+ archive)
// - API: timelines, deals, departments, products, /metrics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/api"
	"grocery-price-lab/internal/app"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if err := app.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("load environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		logrus.WithError(err).Error("server failed")
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Every resource it opens
// is closed before it returns.
func run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("server", flag.ContinueOnError)
	var cfg app.Config
	cfg.RegisterFlags(flags)
	noIngest := flags.Bool("no-ingest", false, "Serve the API only, without the ingestion runner")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	log := logger.WithField("component", "server")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	engines := app.NewEngines(stores, logger, time.Now)

	runCtx, cancelRunner := context.WithCancel(ctx)
	defer cancelRunner()

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	if !*noIngest {
		locker, closeLocker, err := app.NewLocker(ctx, cfg)
		if err != nil {
			return fmt.Errorf("create ingestion lock: %w", err)
		}
		defer closeLocker()

		runner := app.NewRunner(cfg, stores, engines, locker, logger, time.Now)
		wg.Add(1)
		go func() {
			defer wg.Done()
			// runner exits when runCtx is cancelled
			_ = runner.Run(runCtx)
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewServer(api.Options{
		Products: stores.Products,
		Prices:   stores.Prices,
		Runs:     stores.Runs,
		Timeline: engines.Timeline,
		Deals:    engines.Deals,
		Logger:   logger,
	}).Router()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server started")
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	// stop accepting new requests, allow 15s to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server shutdown")
	}

	cancelRunner()
	wg.Wait()
	log.Info("graceful shutdown complete")
	return runErr
}
