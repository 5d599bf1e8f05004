package mongostore

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureSharding enables sharding on the database and shards the two large
// collections:
//
//	raw_startups    {_id: hashed}      even write distribution for ingest
//	clean_startups  {sector: 1, _id: 1} sector co-location for aggregation
//
// aggregated_sectors is intentionally left unsharded; its row count equals
// the number of sectors. Rerunning against an already sharded database is a
// no-op.
func EnsureSharding(ctx context.Context, client *mongo.Client, dbName string) error {
	admin := client.Database("admin")

	if err := runShardingCommand(ctx, admin, bson.D{{Key: "enableSharding", Value: dbName}}); err != nil {
		return fmt.Errorf("enable sharding on %s: %w", dbName, err)
	}

	if err := runShardingCommand(ctx, admin, bson.D{
		{Key: "shardCollection", Value: dbName + "." + RawCollection},
		{Key: "key", Value: bson.D{{Key: "_id", Value: "hashed"}}},
	}); err != nil {
		return fmt.Errorf("shard %s: %w", RawCollection, err)
	}

	// The compound shard key needs a supporting index before the collection
	// can be sharded on it.
	db := client.Database(dbName)
	_, err := db.Collection(CleanCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sector", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create clean shard-key index: %w", err)
	}

	if err := runShardingCommand(ctx, admin, bson.D{
		{Key: "shardCollection", Value: dbName + "." + CleanCollection},
		{Key: "key", Value: bson.D{{Key: "sector", Value: 1}, {Key: "_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("shard %s: %w", CleanCollection, err)
	}

	return nil
}

// EnsureIndexes creates the secondary indexes the cleaning stage and the
// dashboard's sort/filter queries rely on. Safe to rerun.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	cleanIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sector", Value: 1}}},
		{Keys: bson.D{{Key: "founded_year", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	if _, err := db.Collection(CleanCollection).Indexes().CreateMany(ctx, cleanIndexes); err != nil {
		return fmt.Errorf("create clean indexes: %w", err)
	}

	aggIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sector", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "total_startups", Value: 1}}},
		{Keys: bson.D{{Key: "growth_rate", Value: 1}}},
		{Keys: bson.D{{Key: "risk_score", Value: 1}}},
	}
	if _, err := db.Collection(AggregateCollection).Indexes().CreateMany(ctx, aggIndexes); err != nil {
		return fmt.Errorf("create aggregate indexes: %w", err)
	}

	rawIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "ingested_at", Value: 1}}},
	}
	if _, err := db.Collection(RawCollection).Indexes().CreateMany(ctx, rawIndexes); err != nil {
		return fmt.Errorf("create raw indexes: %w", err)
	}

	return nil
}

func runShardingCommand(ctx context.Context, admin *mongo.Database, cmd bson.D) error {
	err := admin.RunCommand(ctx, cmd).Err()
	if err == nil || alreadyConfigured(err) {
		return nil
	}
	return err
}

// alreadyConfigured matches the server's "already enabled" / "already
// sharded" responses so setup stays idempotent across cluster versions that
// report them as errors.
func alreadyConfigured(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already enabled") || strings.Contains(msg, "already sharded")
}
