package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketmind/internal/domain"
	"marketmind/internal/store"
)

// AggregateStore writes the unsharded aggregated_sectors collection.
type AggregateStore struct {
	coll *mongo.Collection
}

func NewAggregateStore(db *mongo.Database) *AggregateStore {
	return &AggregateStore{coll: db.Collection(AggregateCollection)}
}

// ReplaceAll gives each aggregation run replace semantics: every computed
// sector is upserted with full-document overwrite, then rows for sectors
// absent from this run are removed.
func (s *AggregateStore) ReplaceAll(ctx context.Context, aggs []domain.SectorAggregate) error {
	sectors := make([]string, 0, len(aggs))
	for _, agg := range aggs {
		agg := agg
		err := withRetry(ctx, func() error {
			_, err := s.coll.ReplaceOne(ctx,
				bson.M{"sector": agg.Sector},
				agg,
				options.Replace().SetUpsert(true),
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("upsert aggregate %s: %w", agg.Sector, err)
		}
		sectors = append(sectors, string(agg.Sector))
	}

	err := withRetry(ctx, func() error {
		_, err := s.coll.DeleteMany(ctx, bson.M{"sector": bson.M{"$nin": sectors}})
		return err
	})
	if err != nil {
		return fmt.Errorf("prune stale aggregates: %w", err)
	}
	return nil
}

func (s *AggregateStore) List(ctx context.Context) ([]domain.SectorAggregate, error) {
	var out []domain.SectorAggregate
	err := withRetry(ctx, func() error {
		out = out[:0]
		cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"sector": 1}))
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &out)
	})
	if err != nil {
		if isUnavailable(err) {
			return nil, fmt.Errorf("list aggregates: %w: %v", store.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("list aggregates: %w", err)
	}
	return out, nil
}
