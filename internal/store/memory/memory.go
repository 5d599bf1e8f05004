// Package memory holds in-memory store implementations. They keep stage
// logic testable without a running cluster and intentionally favor clarity
// over performance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketmind/internal/domain"
	"marketmind/internal/store"
)

// RawStore is an append-only in-memory raw collection.
type RawStore struct {
	mu      sync.RWMutex
	records []domain.RawStartup
	ids     map[string]bool
}

func NewRawStore() *RawStore {
	return &RawStore{ids: make(map[string]bool)}
}

func (s *RawStore) InsertBatch(_ context.Context, records []domain.RawStartup) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inserted, duplicates := 0, 0
	for _, rec := range records {
		if s.ids[rec.ID] {
			duplicates++
			continue
		}
		s.ids[rec.ID] = true
		s.records = append(s.records, rec)
		inserted++
	}
	return inserted, duplicates, nil
}

func (s *RawStore) IterateSince(_ context.Context, watermark time.Time, fn func(domain.RawStartup) error) error {
	s.mu.RLock()
	snapshot := make([]domain.RawStartup, len(s.records))
	copy(snapshot, s.records)
	s.mu.RUnlock()

	for _, rec := range snapshot {
		if !rec.IngestedAt.After(watermark) {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *RawStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// CleanStore is an in-memory clean collection keyed by document _id.
type CleanStore struct {
	mu      sync.RWMutex
	records map[string]domain.CleanStartup
}

func NewCleanStore() *CleanStore {
	return &CleanStore{records: make(map[string]domain.CleanStartup)}
}

func (s *CleanStore) FindByID(_ context.Context, id string) (domain.CleanStartup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return domain.CleanStartup{}, store.ErrNotFound
}

func (s *CleanStore) Upsert(_ context.Context, rec domain.CleanStartup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

func (s *CleanStore) Iterate(_ context.Context, fn func(domain.CleanStartup) error) error {
	s.mu.RLock()
	// Stable order keeps test output deterministic.
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	snapshot := make([]domain.CleanStartup, 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, s.records[id])
	}
	s.mu.RUnlock()

	for _, rec := range snapshot {
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *CleanStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// AggregateStore is an in-memory per-sector summary collection.
type AggregateStore struct {
	mu   sync.RWMutex
	aggs map[domain.Sector]domain.SectorAggregate
}

func NewAggregateStore() *AggregateStore {
	return &AggregateStore{aggs: make(map[domain.Sector]domain.SectorAggregate)}
}

func (s *AggregateStore) ReplaceAll(_ context.Context, aggs []domain.SectorAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggs = make(map[domain.Sector]domain.SectorAggregate, len(aggs))
	for _, agg := range aggs {
		s.aggs[agg.Sector] = agg
	}
	return nil
}

func (s *AggregateStore) List(_ context.Context) ([]domain.SectorAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SectorAggregate, 0, len(s.aggs))
	for _, agg := range s.aggs {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sector < out[j].Sector })
	return out, nil
}

// MetaStore is in-memory pipeline bookkeeping.
type MetaStore struct {
	mu        sync.RWMutex
	watermark time.Time
}

func NewMetaStore() *MetaStore {
	return &MetaStore{}
}

func (s *MetaStore) CleanWatermark(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watermark, nil
}

func (s *MetaStore) SetCleanWatermark(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = t
	return nil
}
