// Package main prints a product's reconstructed price timeline as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/app"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/timeline"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if err := app.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("load environment")
	}

	err := run(context.Background(), os.Args[1:], os.Stdout)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logrus.WithError(err).Error("product has no prices")
		os.Exit(2)
	case err != nil:
		logrus.WithError(err).Error("timeline failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("timeline", flag.ContinueOnError)
	var cfg app.Config
	cfg.RegisterFlags(flags)
	productID := flags.Int64("product", 0, "Product id (required)")
	start := flags.String("start", "", "First day, YYYY-MM-DD (default 2023-01-01)")
	end := flags.String("end", "", "Day after the last day, YYYY-MM-DD (default today)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if *productID <= 0 {
		return errors.New("--product is required")
	}

	window, err := timeline.ParseWindow(*start, *end)
	if err != nil {
		return fmt.Errorf("invalid window: %w", err)
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	engines := app.NewEngines(stores, logger, time.Now)

	if cfg.UseMemory {
		runner := app.NewRunner(cfg, stores, engines, nil, logger, time.Now)
		if _, err := runner.RunOnce(ctx); err != nil {
			return fmt.Errorf("load demo catalog: %w", err)
		}
	}

	tl, err := engines.Timeline.Reconstruct(ctx, *productID, window)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(tl)
}
