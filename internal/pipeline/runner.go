// Package pipeline orchestrates the three batch stages. Stages run
// sequentially by data dependency: cleaning never overlaps an in-flight
// ingestion of the same run, which is what lets each stage be the sole
// writer of its destination collection.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"marketmind/internal/pipeline/aggregate"
	"marketmind/internal/pipeline/clean"
	"marketmind/internal/pipeline/ingest"
	"marketmind/internal/pipeline/source"
)

// ErrFlagged is returned when a stage's rejection ratio crosses the sanity
// threshold. The run stops for operator review instead of silently feeding
// a mostly-rejected batch to the next stage.
type ErrFlagged struct {
	Stage string
	Ratio float64
	Limit float64
}

func (e *ErrFlagged) Error() string {
	return fmt.Sprintf("%s rejected %.0f%% of records (threshold %.0f%%), run flagged for review",
		e.Stage, e.Ratio*100, e.Limit*100)
}

// RunReport collects the per-stage reports of one full pipeline run.
type RunReport struct {
	Ingest    ingest.Report
	Clean     clean.Report
	Aggregate aggregate.Report
}

// Runner wires the three stage services into one sequential run.
type Runner struct {
	ingest    *ingest.Service
	clean     *clean.Service
	aggregate *aggregate.Service

	maxRejectRatio float64
	logger         *slog.Logger
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithMaxRejectRatio overrides the default 0.5 sanity threshold.
func WithMaxRejectRatio(ratio float64) Option {
	return func(r *Runner) {
		if ratio > 0 {
			r.maxRejectRatio = ratio
		}
	}
}

func New(ing *ingest.Service, cln *clean.Service, agg *aggregate.Service, opts ...Option) (*Runner, error) {
	if ing == nil || cln == nil || agg == nil {
		return nil, fmt.Errorf("all three stage services are required")
	}
	r := &Runner{
		ingest:         ing,
		clean:          cln,
		aggregate:      agg,
		maxRejectRatio: 0.5,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run executes ingest → clean → aggregate against the given feed. It stops
// at the first stage error or flagged rejection ratio, returning the
// reports accumulated so far either way.
func (r *Runner) Run(ctx context.Context, src source.Source) (RunReport, error) {
	var report RunReport
	var err error

	report.Ingest, err = r.ingest.Run(ctx, src)
	if err != nil {
		return report, err
	}
	if ratio := report.Ingest.RejectRatio(); ratio > r.maxRejectRatio {
		return report, &ErrFlagged{Stage: "ingest", Ratio: ratio, Limit: r.maxRejectRatio}
	}

	report.Clean, err = r.clean.Run(ctx)
	if err != nil {
		return report, err
	}
	if ratio := report.Clean.RejectRatio(); ratio > r.maxRejectRatio {
		return report, &ErrFlagged{Stage: "clean", Ratio: ratio, Limit: r.maxRejectRatio}
	}

	report.Aggregate, err = r.aggregate.Run(ctx)
	if err != nil {
		return report, err
	}

	r.logger.Info("pipeline run complete",
		"ingested", report.Ingest.Inserted,
		"cleaned", report.Clean.Upserted+report.Clean.Replaced,
		"sectors", report.Aggregate.Sectors,
	)
	return report, nil
}
