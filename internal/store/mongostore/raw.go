package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketmind/internal/domain"
	"marketmind/internal/store"
)

const duplicateKeyCode = 11000

// RawStore writes and reads the sharded raw_startups collection.
type RawStore struct {
	coll *mongo.Collection
}

func NewRawStore(db *mongo.Database) *RawStore {
	return &RawStore{coll: db.Collection(RawCollection)}
}

// InsertBatch performs an unordered bulk insert. Duplicate-key write errors
// are replays of an already committed batch (ingest assigns _ids before the
// first attempt), so they are counted rather than surfaced.
func (s *RawStore) InsertBatch(ctx context.Context, records []domain.RawStartup) (int, int, error) {
	if len(records) == 0 {
		return 0, 0, nil
	}
	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = rec
	}

	var inserted, duplicates int
	err := withRetry(ctx, func() error {
		inserted, duplicates = 0, 0
		_, err := s.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err == nil {
			inserted = len(docs)
			return nil
		}
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) {
			for _, we := range bulkErr.WriteErrors {
				if we.Code != duplicateKeyCode {
					return fmt.Errorf("bulk write: %w", err)
				}
				duplicates++
			}
			inserted = len(docs) - duplicates
			return nil
		}
		return err
	})
	if err != nil {
		return inserted, duplicates, fmt.Errorf("insert raw batch: %w", err)
	}
	return inserted, duplicates, nil
}

// IterateSince streams raw documents with ingested_at after the watermark.
// The cursor reads through the router, which fans out across partitions
// transparently.
func (s *RawStore) IterateSince(ctx context.Context, watermark time.Time, fn func(domain.RawStartup) error) error {
	filter := bson.M{}
	if !watermark.IsZero() {
		filter["ingested_at"] = bson.M{"$gt": watermark}
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		if isUnavailable(err) {
			return fmt.Errorf("find raw: %w: %v", store.ErrUnavailable, err)
		}
		return fmt.Errorf("find raw: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec domain.RawStartup
		if err := cursor.Decode(&rec); err != nil {
			return fmt.Errorf("decode raw record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *RawStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := withRetry(ctx, func() error {
		var err error
		n, err = s.coll.CountDocuments(ctx, bson.M{})
		return err
	})
	return n, err
}
