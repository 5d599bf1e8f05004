package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cleanWatermarkID = "clean_watermark"

// MetaStore persists pipeline bookkeeping in the unsharded pipeline_meta
// collection.
type MetaStore struct {
	coll *mongo.Collection
}

func NewMetaStore(db *mongo.Database) *MetaStore {
	return &MetaStore{coll: db.Collection(MetaCollection)}
}

type watermarkDoc struct {
	ID        string    `bson:"_id"`
	Value     time.Time `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MetaStore) CleanWatermark(ctx context.Context) (time.Time, error) {
	var doc watermarkDoc
	err := withRetry(ctx, func() error {
		res := s.coll.FindOne(ctx, bson.M{"_id": cleanWatermarkID})
		if err := res.Err(); err != nil {
			return err
		}
		return res.Decode(&doc)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// No cleaning pass has committed yet.
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("load clean watermark: %w", err)
	}
	return doc.Value, nil
}

func (s *MetaStore) SetCleanWatermark(ctx context.Context, t time.Time) error {
	doc := watermarkDoc{ID: cleanWatermarkID, Value: t, UpdatedAt: time.Now().UTC()}
	err := withRetry(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx,
			bson.M{"_id": cleanWatermarkID},
			doc,
			options.Replace().SetUpsert(true),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("store clean watermark: %w", err)
	}
	return nil
}
