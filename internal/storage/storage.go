// Package storage defines the key-value slot contract that collections are
// persisted to. Backends live in sub-packages.
package storage

import (
	"context"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Backend names accepted by configuration.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// KV is a flat key-value store of opaque byte values.
type KV interface {
	// Get returns the value stored at key. A missing key yields an error
	// wrapping apperrors.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored at key.
	Set(ctx context.Context, key string, value []byte) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// NotFound is the error backends return for a missing key.
func NotFound(key string) error {
	return apperrors.NotFound("slot", key)
}
