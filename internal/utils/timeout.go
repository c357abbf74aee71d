package utils

import (
	"context"
	"time"
)

const (
	DefaultDBTimeout    = 5 * time.Second
	DefaultCacheTimeout = 500 * time.Millisecond
)

func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultDBTimeout)
}

// WithCacheTimeout keeps a slow cache from stalling a request that could be served from the
// database.
func WithCacheTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultCacheTimeout)
}
