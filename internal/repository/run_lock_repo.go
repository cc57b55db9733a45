package repository

import (
	"context"
	"time"
)

// RunLock guards against overlapping runs across processes sharing a backend.
type RunLock interface {
	// Acquire takes the lock for at most ttl and reports whether it was free.
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	// Extend resets the ttl of a held lock and reports whether it is still ours.
	Extend(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}
