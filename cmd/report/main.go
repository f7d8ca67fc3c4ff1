// Package main writes the deals report (Markdown, CSV, XLSX) for the deals active at --as-of.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/app"
	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/domain"
	"grocery-price-lab/internal/reporting"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if err := app.LoadEnv(); err != nil {
		logrus.WithError(err).Fatal("load environment")
	}

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		logrus.WithError(err).Error("report failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("report", flag.ContinueOnError)
	var cfg app.Config
	cfg.RegisterFlags(flags)
	outputDir := flags.String("output-dir", "output", "Output directory for generated files")
	asOfFlag := flags.String("as-of", "", "Report deals active at this time (RFC3339 or YYYY-MM-DD, default now)")
	topN := flags.Int("top", deals.DefaultTopN, "Number of deals in the top list")
	threshold := flags.Float64("threshold", deals.DefaultThreshold, "Minimum discount percent for the threshold list")
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

	asOf, err := parseAsOf(*asOfFlag)
	if err != nil {
		return fmt.Errorf("invalid --as-of: %w", err)
	}

	stores, err := app.OpenStores(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	engines := app.NewEngines(stores, logger, time.Now)

	// Memory stores start empty: load the demo catalog first.
	if cfg.UseMemory {
		runner := app.NewRunner(cfg, stores, engines, nil, logger, time.Now)
		if _, err := runner.RunOnce(ctx); err != nil {
			return fmt.Errorf("load demo catalog: %w", err)
		}
	}

	report, err := reporting.NewGenerator(engines.Deals).
		WithTopN(*topN).
		WithThreshold(*threshold).
		Generate(ctx, asOf)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	paths, err := reporting.WriteFiles(*outputDir, report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Fprintln(stdout, "Deals report generated successfully:")
	for _, p := range paths {
		fmt.Fprintf(stdout, "  - %s\n", p)
	}
	return nil
}

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(domain.DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}
