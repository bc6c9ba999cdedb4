package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	redisAdapter "github.com/physiqlab/coach-bot/internal/adapters/redis"
	"github.com/physiqlab/coach-bot/pkg/logger"
)

// EvaluationService is the slice of the coaching service the weekly
// job needs
type EvaluationService interface {
	RunWeeklyEvaluations(ctx context.Context, today time.Time) error
}

// WeeklyEvaluationJob runs the weekly progress evaluation on a cron
// schedule. A distributed lock keeps the sweep on a single replica
type WeeklyEvaluationJob struct {
	service  EvaluationService
	locks    redisAdapter.LockFactory
	schedule string
	lockTTL  time.Duration
	cron     *cron.Cron
}

// NewWeeklyEvaluationJob creates new weekly evaluation job
func NewWeeklyEvaluationJob(
	service EvaluationService,
	locks redisAdapter.LockFactory,
	schedule string,
	lockTTL time.Duration,
) *WeeklyEvaluationJob {
	return &WeeklyEvaluationJob{
		service:  service,
		locks:    locks,
		schedule: schedule,
		lockTTL:  lockTTL,
	}
}

// Start schedules the job
func (j *WeeklyEvaluationJob) Start() error {
	j.cron = cron.New()

	if _, err := j.cron.AddFunc(j.schedule, j.runOnce); err != nil {
		return fmt.Errorf("failed to schedule weekly evaluation: %w", err)
	}

	j.cron.Start()

	logger.Info("📅 weekly evaluation job scheduled",
		zap.String("schedule", j.schedule),
	)

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *WeeklyEvaluationJob) Stop() {
	if j.cron == nil {
		return
	}

	<-j.cron.Stop().Done()
	logger.Info("weekly evaluation job stopped")
}

// runOnce acquires the job lock and sweeps all athletes. When another
// replica holds the lock the run is skipped, not queued
func (j *WeeklyEvaluationJob) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	lock := j.locks.CreateJobLock("weekly-evaluation", j.lockTTL)

	acquired, err := lock.TryAcquire(ctx)
	if err != nil {
		logger.Error("failed to acquire weekly evaluation lock", zap.Error(err))
		return
	}
	if !acquired {
		logger.Info("weekly evaluation already running on another replica")
		return
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			logger.Warn("failed to release weekly evaluation lock", zap.Error(err))
		}
	}()

	logger.Info("🗓 weekly evaluation sweep starting")

	if err := j.service.RunWeeklyEvaluations(ctx, time.Now()); err != nil {
		logger.Error("weekly evaluation sweep failed", zap.Error(err))
	}
}
