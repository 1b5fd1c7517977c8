// Package redis implements the shared seen-trade registry on go-redis/v9.
package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the connection parameters for the registry.
type Config struct {
	Addr       string
	Password   string
	DB         int
	PoolSize   int
	MaxRetries int
	TLSEnabled bool
}

// SeenRegistry implements domain.SeenRegistry on Redis, so multiple bot
// instances watching the same whale share one dedup horizon and restarts do
// not re-copy recent trades.
//
// Key schema:
//
//	seen:{tradeKey} - string "1" with the configured TTL
type SeenRegistry struct {
	rdb *redis.Client
}

// NewSeenRegistry connects to Redis, verifies the connection with a ping,
// and returns the registry.
func NewSeenRegistry(ctx context.Context, cfg Config) (*SeenRegistry, error) {
	opts := &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &SeenRegistry{rdb: rdb}, nil
}

func seenKey(key string) string { return "seen:" + key }

// Admit returns true exactly once per key within the TTL window. It relies
// on SET NX so concurrent callers race safely: the first writer wins.
func (r *SeenRegistry) Admit(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, seenKey(key), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: admit %s: %w", key, err)
	}
	return ok, nil
}

// Close releases the connection pool.
func (r *SeenRegistry) Close() error {
	return r.rdb.Close()
}
