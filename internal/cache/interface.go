package cache

import (
	"context"
	"time"
)

// Cache stores JSON-serialisable values tagged with the version of the record they were read
// from. A miss is reported as (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	// Set stores value at version unless the entry already holds the same or a newer version,
	// in which case it reports false and leaves the entry alone.
	Set(ctx context.Context, key string, value any, version int64, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const CartKeyPrefix = "cart"
