package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"marketmind/internal/pipeline"
	"marketmind/internal/pipeline/source"
	"marketmind/internal/platform/httpserver"
)

func newIngestCmd() *cobra.Command {
	var feedPath string
	var generateCount int
	var seed int64

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Validate a feed against the raw schema and bulk-load it into raw_startups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			src, closeSrc, err := openFeed(feedPath, generateCount, seed)
			if err != nil {
				return err
			}
			defer closeSrc()

			svc, err := a.ingestService()
			if err != nil {
				return err
			}
			report, err := svc.Run(ctx, src)
			if err != nil {
				return err
			}
			return checkRatio("ingest", report.RejectRatio(), a.cfg.MaxRejectRatio)
		},
	}
	cmd.Flags().StringVar(&feedPath, "file", "", "feed file (.csv, .json, .jsonl); omit to generate synthetic data")
	cmd.Flags().IntVar(&generateCount, "generate", 1_000_000, "synthetic record count when no --file is given")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Normalize, deduplicate, and validate raw records into clean_startups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			svc, err := a.cleanService()
			if err != nil {
				return err
			}
			report, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			return checkRatio("clean", report.RejectRatio(), a.cfg.MaxRejectRatio)
		},
	}
}

func newAggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Recompute per-sector metrics from clean_startups into aggregated_sectors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			svc, err := a.aggregateService()
			if err != nil {
				return err
			}
			_, err = svc.Run(ctx)
			return err
		},
	}
}

func newRunCmd() *cobra.Command {
	var feedPath string
	var generateCount int
	var seed int64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all three stages sequentially: ingest, clean, aggregate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			stopOps := a.startOpsServer()
			defer stopOps()

			src, closeSrc, err := openFeed(feedPath, generateCount, seed)
			if err != nil {
				return err
			}
			defer closeSrc()

			ing, err := a.ingestService()
			if err != nil {
				return err
			}
			cln, err := a.cleanService()
			if err != nil {
				return err
			}
			agg, err := a.aggregateService()
			if err != nil {
				return err
			}

			runner, err := pipeline.New(ing, cln, agg,
				pipeline.WithLogger(a.log),
				pipeline.WithMaxRejectRatio(a.cfg.MaxRejectRatio),
			)
			if err != nil {
				return err
			}

			report, err := runner.Run(ctx, src)
			var flagged *pipeline.ErrFlagged
			if errors.As(err, &flagged) {
				a.log.Error("pipeline run flagged for operator review", "error", flagged)
			}
			if err != nil {
				return err
			}
			fmt.Printf("ingested=%d cleaned=%d sectors=%d\n",
				report.Ingest.Inserted,
				report.Clean.Upserted+report.Clean.Replaced,
				report.Aggregate.Sectors,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&feedPath, "file", "", "feed file (.csv, .json, .jsonl); omit to generate synthetic data")
	cmd.Flags().IntVar(&generateCount, "generate", 1_000_000, "synthetic record count when no --file is given")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	return cmd
}

// openFeed picks the file source when a path is given, otherwise the
// synthetic generator.
func openFeed(path string, generateCount int, seed int64) (source.Source, func() error, error) {
	if path != "" {
		return source.Open(path)
	}
	return source.NewGenerator(generateCount, seed), func() error { return nil }, nil
}

// startOpsServer exposes /healthz and /metrics for the duration of a run
// when MARKETMIND_OPS_ADDR is set. Returns a stop function.
func (a *app) startOpsServer() func() {
	if a.cfg.OpsAddr == "" {
		return func() {}
	}

	handler := httpserver.OpsRouter(a.metrics.Registry(), a.client.Health)
	srv := httpserver.New(a.cfg.OpsAddr, handler)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("ops server error", "error", err)
		}
	}()
	a.log.Info("ops server listening", "addr", a.cfg.OpsAddr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
