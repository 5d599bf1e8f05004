// Package ingest implements the first pipeline stage: untyped feed records
// are validated against the raw schema and bulk-written, append-only, into
// the raw collection.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marketmind/internal/domain"
	"marketmind/internal/pipeline/source"
	"marketmind/internal/platform/metrics"
	"marketmind/internal/schema"
	"marketmind/internal/store"
)

const stageName = "ingest"

// Report summarizes one ingestion run. Accepted counts records that passed
// raw validation; Inserted is what actually reached the store, which can be
// lower when the run aborts mid-way or when a retried run replays batches
// already committed (those show up as Duplicates).
type Report struct {
	Accepted   int
	Rejected   int
	Inserted   int
	Duplicates int
	Batches    int
	Elapsed    time.Duration
}

// RejectRatio is the fraction of input records the raw schema rejected.
func (r Report) RejectRatio() float64 {
	total := r.Accepted + r.Rejected
	if total == 0 {
		return 0
	}
	return float64(r.Rejected) / float64(total)
}

// Service is the ingestion stage. It is the sole writer of the raw
// collection during its run and never updates or deletes existing raw
// documents.
type Service struct {
	raw       store.RawStore
	batchSize int
	writers   int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithBatchSize overrides the default batch of 1000 records per round-trip.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithWriterConcurrency bounds how many batches are in flight at once.
func WithWriterConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writers = n
		}
	}
}

func New(raw store.RawStore, opts ...Option) (*Service, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw store is required")
	}
	svc := &Service{
		raw:       raw,
		batchSize: 1000,
		writers:   4,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Run drains the source. Each record is validated independently: a
// malformed record is counted and skipped, never failing its batch. Batches
// flush through a bounded writer pool; raw partitions are independent, so
// in-flight batches do not contend. A store failure that survives the
// retry policy aborts the run with the progress so far in the report.
func (s *Service) Run(ctx context.Context, src source.Source) (Report, error) {
	start := s.now()
	report := Report{}

	var inserted, duplicates, batches atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.writers)

	flush := func(batch []domain.RawStartup) {
		group.Go(func() error {
			ins, dup, err := s.raw.InsertBatch(groupCtx, batch)
			inserted.Add(int64(ins))
			duplicates.Add(int64(dup))
			batches.Add(1)
			if err != nil {
				return err
			}
			if s.metrics != nil {
				s.metrics.RecordsWritten.WithLabelValues(stageName).Add(float64(ins))
			}
			return nil
		})
	}

	batch := make([]domain.RawStartup, 0, s.batchSize)
	readErr := func() error {
		for {
			rec, err := src.Next(ctx)
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return fmt.Errorf("read source: %w", err)
			}

			typed, err := schema.ValidateRaw(rec)
			if err != nil {
				var verr *schema.ValidationError
				if !errors.As(err, &verr) {
					return err
				}
				report.Rejected++
				if s.metrics != nil {
					s.metrics.RecordsRejected.WithLabelValues(stageName).Inc()
				}
				s.logger.Debug("raw record rejected", "reason", verr.Error())
				continue
			}

			// IDs are assigned before the first write attempt, so a retried
			// batch replays the same _ids and the store reports them as
			// duplicates instead of double-inserting.
			typed.ID = s.newID()
			typed.IngestedAt = s.now().UTC()
			report.Accepted++
			if s.metrics != nil {
				s.metrics.RecordsAccepted.WithLabelValues(stageName).Inc()
			}

			batch = append(batch, typed)
			if len(batch) >= s.batchSize {
				flush(batch)
				batch = make([]domain.RawStartup, 0, s.batchSize)
			}
		}
	}()

	if readErr == nil && len(batch) > 0 {
		flush(batch)
	}

	writeErr := group.Wait()

	report.Inserted = int(inserted.Load())
	report.Duplicates = int(duplicates.Load())
	report.Batches = int(batches.Load())
	report.Elapsed = s.now().Sub(start)

	if s.metrics != nil {
		s.metrics.StageDuration.WithLabelValues(stageName).Observe(report.Elapsed.Seconds())
	}

	err := errors.Join(readErr, writeErr)
	s.finish(report, err)
	if err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}
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
	s.logger.Info("ingestion finished",
		"accepted", report.Accepted,
		"rejected", report.Rejected,
		"inserted", report.Inserted,
		"duplicates", report.Duplicates,
		"batches", report.Batches,
		"elapsed", report.Elapsed,
		"outcome", outcome,
	)
}
