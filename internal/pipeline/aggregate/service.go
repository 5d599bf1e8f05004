// Package aggregate implements the third pipeline stage: the clean
// collection is streamed once, grouped by sector, and reduced to one
// summary document per sector with deterministic metric formulas.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"marketmind/internal/domain"
	"marketmind/internal/platform/metrics"
	"marketmind/internal/schema"
	"marketmind/internal/store"
)

const stageName = "aggregate"

// Report summarizes one aggregation run.
type Report struct {
	Records int
	Sectors int
	Elapsed time.Duration
}

// Service is the aggregation stage. Each run fully recomputes the
// aggregate collection from the clean collection (replace semantics);
// sectors with zero clean records are omitted, so the output row count is
// bounded by the sector enum.
type Service struct {
	clean   store.CleanStore
	aggs    store.AggregateStore
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(clean store.CleanStore, aggs store.AggregateStore, opts ...Option) (*Service, error) {
	if clean == nil || aggs == nil {
		return nil, fmt.Errorf("clean and aggregate stores are required")
	}
	svc := &Service{
		clean:  clean,
		aggs:   aggs,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Run streams the clean collection and writes one aggregate per observed
// sector. An empty clean collection is a successful run producing zero
// aggregates. Every computed aggregate is checked against the aggregate
// schema before writing; a violation there is a formula defect, not an
// expected runtime condition, and fails the run loudly.
func (s *Service) Run(ctx context.Context) (Report, error) {
	start := s.now()
	report := Report{}

	accumulators := make(map[domain.Sector]*accumulator)
	err := s.clean.Iterate(ctx, func(rec domain.CleanStartup) error {
		report.Records++
		acc, ok := accumulators[rec.Sector]
		if !ok {
			acc = newAccumulator(rec.Sector)
			accumulators[rec.Sector] = acc
		}
		acc.add(rec)
		return nil
	})
	if err != nil {
		s.finish(report, err)
		return report, fmt.Errorf("aggregate: %w", err)
	}

	maxSectorTotal := 0
	for _, acc := range accumulators {
		if acc.total > maxSectorTotal {
			maxSectorTotal = acc.total
		}
	}

	computedAt := start.UTC()
	out := make([]domain.SectorAggregate, 0, len(accumulators))
	for _, acc := range accumulators {
		agg := acc.finalize(maxSectorTotal)
		agg.ComputedAt = computedAt
		if err := schema.ValidateAggregate(agg); err != nil {
			s.finish(report, err)
			return report, fmt.Errorf("aggregate: sector %s: %w", agg.Sector, err)
		}
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })

	if err := s.aggs.ReplaceAll(ctx, out); err != nil {
		s.finish(report, err)
		return report, fmt.Errorf("aggregate: %w", err)
	}

	report.Sectors = len(out)
	report.Elapsed = s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.RecordsWritten.WithLabelValues(stageName).Add(float64(report.Sectors))
		s.metrics.StageDuration.WithLabelValues(stageName).Observe(report.Elapsed.Seconds())
	}
	s.finish(report, nil)
	return report, nil
}

func (s *Service) finish(report Report, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if s.metrics != nil {
		s.metrics.StageRuns.WithLabelValues(stageName, outcome).Inc()
	}
	s.logger.Info("aggregation finished",
		"records", report.Records,
		"sectors", report.Sectors,
		"elapsed", report.Elapsed,
		"outcome", outcome,
	)
}
