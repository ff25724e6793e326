package shared

import (
	"context"
	"time"
)

// IdempotencyStore reserves client-supplied request keys so a resubmitted
// request is recognised instead of being applied twice
type IdempotencyStore interface {
	// Reserve claims key for ttl. Returns false if the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsReserved checks whether key is currently held
	IsReserved(ctx context.Context, key string) (bool, error)

	// Release frees key so the same request may be submitted again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
