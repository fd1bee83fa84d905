package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/storage"
	"github.com/utafrali/storefront/pkg/database"
)

// KV implements storage.KV on Redis strings. Every write refreshes the key's
// TTL, so an untouched session slot eventually expires.
type KV struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a Redis-backed store. A ttl of zero keeps keys forever.
func New(client redis.UniversalClient, ttl time.Duration) *KV {
	return &KV{client: client, ttl: ttl}
}

// Get reads the slot value.
func (s *KV) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "GetSlot", "GET")
	defer func() { end(err) }()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.NotFound(key)
		}
		return nil, fmt.Errorf("redis get slot: %w", err)
	}
	return data, nil
}

// Set writes the slot value with the configured TTL.
func (s *KV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "SetSlot", "SET")
	defer func() { end(err) }()

	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set slot: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *KV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
