package redis

import "context"

// JobLock defines interface for distributed job locking
// This allows swapping implementations (Redis, PostgreSQL, etcd, etc.)
type JobLock interface {
	// TryAcquire attempts to acquire exclusive lock for the job
	// Returns true if lock was acquired, false if already locked
	TryAcquire(ctx context.Context) (bool, error)

	// Release releases the lock
	Release(ctx context.Context) error

	// CheckLockHeld verifies if we still hold the lock
	CheckLockHeld(ctx context.Context) (bool, error)

	// JobName returns the job this lock guards
	JobName() string
}
