package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates access to a session across multiple processes
// sharing one store.
type DistributedLocker interface {
	// Lock acquires the lock for key, retrying until it succeeds or ctx is done.
	// The lock expires on its own after ttl so a crashed holder cannot block others.
	// The returned UnlockFunc MUST be called to release it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
