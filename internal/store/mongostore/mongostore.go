// Package mongostore implements the store interfaces against a sharded
// MongoDB cluster reached through a mongos router. Pipeline code never
// addresses shards directly; the router places documents by each
// collection's shard key.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"marketmind/internal/store"
)

// Collection names. raw and clean are sharded, aggregated_sectors stays
// unsharded because its size is bounded by the sector enum.
const (
	RawCollection       = "raw_startups"
	CleanCollection     = "clean_startups"
	AggregateCollection = "aggregated_sectors"
	MetaCollection      = "pipeline_meta"
)

// Retry policy for unavailable-store conditions: bounded exponential
// backoff, then the stage aborts with partial progress.
const (
	maxRetries         = 5
	initialBackoff     = 200 * time.Millisecond
	maxBackoffInterval = 5 * time.Second
)

// withRetry runs op, retrying only genuine availability failures (network
// errors, timeouts). Any other error is permanent: a malformed document
// will not become well-formed by retrying.
func withRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBackoff(), maxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if isUnavailable(err) {
			return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
		}
		return backoff.Permanent(err)
	}, policy)
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialBackoff
	b.MaxInterval = maxBackoffInterval
	return b
}

func isUnavailable(err error) bool {
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		// 11602 InterruptedDueToReplStateChange, 10107 NotWritablePrimary:
		// transient during shard elections, safe to retry.
		return serverErr.HasErrorCode(11602) || serverErr.HasErrorCode(10107)
	}
	return errors.Is(err, mongo.ErrClientDisconnected)
}
