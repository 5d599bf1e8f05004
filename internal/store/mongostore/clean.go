package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketmind/internal/domain"
	"marketmind/internal/store"
)

// CleanStore reads and writes the clean_startups collection, sharded on
// {sector: 1, _id: 1} so a sector's records are co-located.
type CleanStore struct {
	coll *mongo.Collection
}

func NewCleanStore(db *mongo.Database) *CleanStore {
	return &CleanStore{coll: db.Collection(CleanCollection)}
}

func (s *CleanStore) FindByID(ctx context.Context, id string) (domain.CleanStartup, error) {
	var rec domain.CleanStartup
	err := withRetry(ctx, func() error {
		res := s.coll.FindOne(ctx, bson.M{"_id": id})
		if err := res.Err(); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return store.ErrNotFound
			}
			return err
		}
		return res.Decode(&rec)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CleanStartup{}, store.ErrNotFound
		}
		return domain.CleanStartup{}, fmt.Errorf("find clean %s: %w", id, err)
	}
	return rec, nil
}

// Upsert replaces the whole document keyed by the dedup digest _id. The
// store's atomic replace-one is the serialization point for concurrent
// writers of the same key.
func (s *CleanStore) Upsert(ctx context.Context, rec domain.CleanStartup) error {
	err := withRetry(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": rec.ID},
			rec,
			options.Replace().SetUpsert(true),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert clean %s: %w", rec.ID, err)
	}
	return nil
}

func (s *CleanStore) Iterate(ctx context.Context, fn func(domain.CleanStartup) error) error {
	cursor, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		if isUnavailable(err) {
			return fmt.Errorf("find clean: %w: %v", store.ErrUnavailable, err)
		}
		return fmt.Errorf("find clean: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var rec domain.CleanStartup
		if err := cursor.Decode(&rec); err != nil {
			return fmt.Errorf("decode clean record: %w", err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (s *CleanStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := withRetry(ctx, func() error {
		var err error
		n, err = s.coll.CountDocuments(ctx, bson.M{})
		return err
	})
	return n, err
}
