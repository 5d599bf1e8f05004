package config

import (
	"os"
	"strconv"
	"time"
)

// Pipeline captures runtime configuration for the batch pipeline. Values
// come from environment variables so main stays lean; every field has a
// local-development default.
type Pipeline struct {
	// MongoURI is the mongos router endpoint. Pipeline code never addresses
	// individual shards.
	MongoURI string
	Database string

	ConnectTimeout time.Duration

	// BatchSize bounds memory and round-trips for bulk writes.
	BatchSize int
	// WriterConcurrency is how many batches may be in flight at once during
	// ingestion.
	WriterConcurrency int

	// MaxRejectRatio is the sanity threshold: a stage rejecting more than
	// this fraction of its input flags the run for operator review and
	// stops the pipeline before the next stage.
	MaxRejectRatio float64

	// OpsAddr serves /healthz and /metrics while stages run. Empty disables
	// the ops server.
	OpsAddr string

	LogLevel  string
	LogFormat string
}

// FromEnv builds a Pipeline config from environment variables.
func FromEnv() Pipeline {
	return Pipeline{
		MongoURI:          envString("MARKETMIND_MONGO_URI", "mongodb://localhost:27017"),
		Database:          envString("MARKETMIND_DATABASE", "startup_analytics"),
		ConnectTimeout:    envDuration("MARKETMIND_CONNECT_TIMEOUT", 10*time.Second),
		BatchSize:         envInt("MARKETMIND_BATCH_SIZE", 1000),
		WriterConcurrency: envInt("MARKETMIND_WRITER_CONCURRENCY", 4),
		MaxRejectRatio:    envFloat("MARKETMIND_MAX_REJECT_RATIO", 0.5),
		OpsAddr:           envString("MARKETMIND_OPS_ADDR", ""),
		LogLevel:          envString("MARKETMIND_LOG_LEVEL", "info"),
		LogFormat:         envString("MARKETMIND_LOG_FORMAT", "text"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
