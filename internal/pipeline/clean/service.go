// Package clean implements the second pipeline stage: raw records are
// normalized onto the enumerated domain, derived funding fields are
// computed, and the result is deduplicated into the clean collection.
package clean

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"marketmind/internal/domain"
	"marketmind/internal/platform/metrics"
	"marketmind/internal/schema"
	"marketmind/internal/store"
)

const stageName = "clean"

// Report summarizes one cleaning pass. Rejected counts clean-stage schema
// failures, a separate population from ingestion rejections. Kept counts
// candidates discarded because the existing clean record for the same dedup
// key was more complete.
type Report struct {
	Processed int
	Upserted  int
	Replaced  int
	Kept      int
	Rejected  int
	Elapsed   time.Duration
}

// RejectRatio is the fraction of processed raw records dropped by the clean
// schema.
func (r Report) RejectRatio() float64 {
	if r.Processed == 0 {
		return 0
	}
	return float64(r.Rejected) / float64(r.Processed)
}

// Service is the cleaning stage. One logical pass considers every raw
// record past the stored watermark exactly once; the keyed upsert makes
// repeated passes over unchanged raw input converge.
type Service struct {
	raw     store.RawStore
	clean   store.CleanStore
	meta    store.MetaStore
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

func New(raw store.RawStore, clean store.CleanStore, meta store.MetaStore, opts ...Option) (*Service, error) {
	if raw == nil || clean == nil || meta == nil {
		return nil, fmt.Errorf("raw, clean, and meta stores are required")
	}
	svc := &Service{
		raw:    raw,
		clean:  clean,
		meta:   meta,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Run executes one cleaning pass: normalize, derive, validate, deduplicate,
// upsert. The watermark only advances after the whole pass commits, so an
// interrupted pass re-considers its records on the next run, which is safe
// because the upsert is idempotent per dedup key.
func (s *Service) Run(ctx context.Context) (Report, error) {
	start := s.now()
	report := Report{}

	watermark, err := s.meta.CleanWatermark(ctx)
	if err != nil {
		return report, fmt.Errorf("clean: %w", err)
	}

	maxIngestedAt := watermark
	processedAt := start.UTC()

	err = s.raw.IterateSince(ctx, watermark, func(raw domain.RawStartup) error {
		report.Processed++
		if raw.IngestedAt.After(maxIngestedAt) {
			maxIngestedAt = raw.IngestedAt
		}

		candidate, err := normalize(raw, processedAt)
		if err == nil {
			err = schema.ValidateClean(candidate)
		}
		if err != nil {
			var verr *schema.ValidationError
			if !errors.As(err, &verr) {
				return err
			}
			report.Rejected++
			if s.metrics != nil {
				s.metrics.RecordsRejected.WithLabelValues(stageName).Inc()
			}
			s.logger.Debug("clean record rejected", "name", raw.Name, "reason", verr.Error())
			return nil
		}

		return s.upsert(ctx, candidate, &report)
	})
	if err != nil {
		report.Elapsed = s.now().Sub(start)
		s.finish(report, err)
		return report, fmt.Errorf("clean: %w", err)
	}

	if maxIngestedAt.After(watermark) {
		if err := s.meta.SetCleanWatermark(ctx, maxIngestedAt); err != nil {
			report.Elapsed = s.now().Sub(start)
			s.finish(report, err)
			return report, fmt.Errorf("clean: %w", err)
		}
	}

	report.Elapsed = s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.StageDuration.WithLabelValues(stageName).Observe(report.Elapsed.Seconds())
	}
	s.finish(report, nil)
	return report, nil
}

// upsert applies the dedup policy. A candidate replaces the existing record
// for its key only when strictly more complete (more non-nil derived
// fields); at equal completeness the most recently processed record wins.
// Both halves are deterministic, so concurrent passes converge on the same
// document.
func (s *Service) upsert(ctx context.Context, candidate domain.CleanStartup, report *Report) error {
	if s.metrics != nil {
		s.metrics.RecordsAccepted.WithLabelValues(stageName).Inc()
	}

	existing, err := s.clean.FindByID(ctx, candidate.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := s.clean.Upsert(ctx, candidate); err != nil {
			return err
		}
		report.Upserted++
	case err != nil:
		return err
	case candidate.Completeness() >= existing.Completeness():
		if err := s.clean.Upsert(ctx, candidate); err != nil {
			return err
		}
		report.Replaced++
	default:
		report.Kept++
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordsWritten.WithLabelValues(stageName).Inc()
	}
	return nil
}

func (s *Service) finish(report Report, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if s.metrics != nil {
		s.metrics.StageRuns.WithLabelValues(stageName, outcome).Inc()
	}
	s.logger.Info("cleaning finished",
		"processed", report.Processed,
		"upserted", report.Upserted,
		"replaced", report.Replaced,
		"kept", report.Kept,
		"rejected", report.Rejected,
		"elapsed", report.Elapsed,
		"outcome", outcome,
	)
}
