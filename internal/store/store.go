// Package store defines the collection interfaces the pipeline stages write
// through. Stores are interface-driven to keep stage logic testable and to
// allow swapping the in-memory implementation for the sharded MongoDB one
// without rewiring stage code.
package store

import (
	"context"
	"time"

	"marketmind/internal/domain"
)

// RawStore is the append-only raw collection. Documents are never updated
// or deleted; InsertBatch tolerates replayed _ids so a retried ingestion
// run cannot double-count.
type RawStore interface {
	// InsertBatch writes one batch with unordered semantics and reports how
	// many documents were inserted and how many were skipped as duplicate
	// _ids (replays of a previously committed batch).
	InsertBatch(ctx context.Context, records []domain.RawStartup) (inserted, duplicates int, err error)

	// IterateSince streams records with ingested_at strictly after the
	// given watermark, invoking fn for each. A zero watermark streams the
	// whole collection. Iteration stops on the first fn error.
	IterateSince(ctx context.Context, watermark time.Time, fn func(domain.RawStartup) error) error

	Count(ctx context.Context) (int64, error)
}

// CleanStore is the deduplicated clean collection, keyed by the dedup-key
// digest _id. Upsert is atomic per document; concurrent upserts to
// different keys are independent.
type CleanStore interface {
	// FindByID returns the clean record with the given _id, or
	// sentinel ErrNotFound.
	FindByID(ctx context.Context, id string) (domain.CleanStartup, error)

	Upsert(ctx context.Context, rec domain.CleanStartup) error

	// Iterate streams the whole collection in unspecified order.
	Iterate(ctx context.Context, fn func(domain.CleanStartup) error) error

	Count(ctx context.Context) (int64, error)
}

// AggregateStore is the small, unsharded per-sector summary collection.
type AggregateStore interface {
	// ReplaceAll upserts every given aggregate with full-document overwrite
	// and removes aggregates for sectors not present in the slice, giving
	// each aggregation run replace semantics.
	ReplaceAll(ctx context.Context, aggs []domain.SectorAggregate) error

	List(ctx context.Context) ([]domain.SectorAggregate, error)
}

// MetaStore persists pipeline bookkeeping, currently just the cleaning
// watermark: the highest raw ingested_at the cleaning stage has fully
// committed.
type MetaStore interface {
	// CleanWatermark returns the stored watermark, or the zero time when no
	// cleaning pass has committed yet.
	CleanWatermark(ctx context.Context) (time.Time, error)

	SetCleanWatermark(ctx context.Context, t time.Time) error
}
