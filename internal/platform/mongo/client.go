package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"marketmind/internal/platform/config"
)

// Client wraps the driver client with health checking and router detection.
// The pipeline always connects through a single endpoint; when that endpoint
// is a mongos router, partition placement is transparent to callers.
type Client struct {
	*mongo.Client
	database string
	IsRouter bool
}

// Connect dials the configured endpoint and verifies it with a ping. It
// also records whether the endpoint is a mongos router, which the setup
// command requires before issuing sharding commands.
func Connect(ctx context.Context, cfg config.Pipeline) (*Client, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.MongoURI, err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", cfg.MongoURI, err)
	}

	c := &Client{Client: client, database: cfg.Database}
	c.IsRouter = detectRouter(ctx, client)
	return c, nil
}

// detectRouter issues the hello command; mongos identifies itself with
// msg "isdbgrid".
func detectRouter(ctx context.Context, client *mongo.Client) bool {
	var hello struct {
		Msg string `bson:"msg"`
	}
	res := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}})
	if err := res.Decode(&hello); err != nil {
		return false
	}
	return hello.Msg == "isdbgrid"
}

// Database returns the configured application database.
func (c *Client) Database() *mongo.Database {
	return c.Client.Database(c.database)
}

// Health checks the connection is still usable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx, readpref.Primary())
}

// Close disconnects from the router.
func (c *Client) Close(ctx context.Context) error {
	return c.Disconnect(ctx)
}
