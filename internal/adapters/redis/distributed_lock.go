package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/pkg/logger"
)

// DistributedLock wraps redlock-go so scheduled jobs run on exactly one
// replica at a time
type DistributedLock struct {
	lockManager *redlock.RedLock
	jobName     string
	lockName    string
	ttl         time.Duration
	locked      bool
}

// NewDistributedLock creates new distributed lock manager using redlock-go
func NewDistributedLock(lockManager *redlock.RedLock, jobName string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		lockManager: lockManager,
		jobName:     jobName,
		lockName:    fmt.Sprintf("coach:job:%s", jobName),
		ttl:         ttl,
		locked:      false,
	}
}

// TryAcquire attempts to acquire exclusive lock for the job using Redlock algorithm
// Returns true if lock was acquired, false if another replica already holds it
func (dl *DistributedLock) TryAcquire(ctx context.Context) (bool, error) {
	expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
	if err != nil {
		// Lock not acquired - another replica has it
		logger.Debug("job lock already held by another replica",
			zap.String("job", dl.jobName),
			zap.String("lock_name", dl.lockName),
		)
		return false, nil
	}

	if expiry <= 0 {
		return false, fmt.Errorf("failed to acquire lock: invalid expiry %v", expiry)
	}

	dl.locked = true

	logger.Info("job lock acquired",
		zap.String("job", dl.jobName),
		zap.String("lock_name", dl.lockName),
		zap.Duration("ttl", dl.ttl),
		zap.Duration("expiry", expiry),
	)

	// Start automatic lock renewal
	go dl.renewLock(ctx)

	return true, nil
}

// Release releases the Redis distributed lock
func (dl *DistributedLock) Release(ctx context.Context) error {
	if !dl.locked {
		return nil // No lock to release
	}

	err := dl.lockManager.UnLock(ctx, dl.lockName)
	if err != nil {
		logger.Warn("failed to release lock (may have already expired)",
			zap.String("job", dl.jobName),
			zap.String("lock_name", dl.lockName),
			zap.Error(err),
		)
		// Don't return error - lock may have already expired naturally
	} else {
		logger.Info("job lock released",
			zap.String("job", dl.jobName),
			zap.String("lock_name", dl.lockName),
		)
	}

	dl.locked = false
	return nil
}

// renewLock automatically renews the lock before it expires
func (dl *DistributedLock) renewLock(ctx context.Context) {
	// Renew at 2/3 of TTL to have safety margin
	renewInterval := (dl.ttl * 2) / 3
	ticker := time.NewTicker(renewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("lock renewal stopped (context cancelled)",
				zap.String("job", dl.jobName),
			)
			return

		case <-ticker.C:
			if !dl.locked {
				return // Lock was released
			}

			// Release and re-acquire to extend TTL
			// Redlock-go doesn't have built-in renewal, so we do release+acquire
			err := dl.lockManager.UnLock(ctx, dl.lockName)
			if err != nil {
				logger.Error("lock renewal failed (unlock)",
					zap.String("job", dl.jobName),
					zap.Error(err),
				)
				dl.locked = false
				return
			}

			expiry, err := dl.lockManager.Lock(ctx, dl.lockName, dl.ttl)
			if err != nil || expiry <= 0 {
				logger.Error("lock lost - another replica may have taken over",
					zap.String("job", dl.jobName),
					zap.String("lock_name", dl.lockName),
					zap.Error(err),
				)
				dl.locked = false
				return
			}

			logger.Debug("lock renewed successfully",
				zap.String("job", dl.jobName),
				zap.Duration("expiry", expiry),
			)
		}
	}
}

// CheckLockHeld verifies if we still hold the lock
func (dl *DistributedLock) CheckLockHeld(ctx context.Context) (bool, error) {
	return dl.locked, nil
}

// JobName returns the job this lock guards
func (dl *DistributedLock) JobName() string {
	return dl.jobName
}
