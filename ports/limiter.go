package ports

import (
	"context"
	"time"
)

// Limiter bounds repeated attempts per key within a rolling window.
type Limiter interface {
	// Allow reports whether the attempt for key may proceed at instant now,
	// and how long to wait before retrying when it may not.
	Allow(ctx context.Context, key string, now time.Time) (bool, time.Duration, error)
}
