package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/internal/coach"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// AssessmentService is the slice of the coaching service the worker needs
type AssessmentService interface {
	ListAthletes(ctx context.Context) ([]models.AthleteProfile, error)
	AssessDaily(ctx context.Context, athleteID uuid.UUID, today time.Time) (*coach.DailyAssessment, error)
}

// AssessmentWorker runs the daily decision flow for every athlete:
// phase timeline, recovery score and macro prescriptions
type AssessmentWorker struct {
	service AssessmentService
}

// NewAssessmentWorker creates new assessment worker
func NewAssessmentWorker(service AssessmentService) *AssessmentWorker {
	return &AssessmentWorker{service: service}
}

// Name returns worker name
func (aw *AssessmentWorker) Name() string {
	return "daily_assessment"
}

// Run executes one sweep over all athletes
// Called periodically by pkg/worker.PeriodicWorker
func (aw *AssessmentWorker) Run(ctx context.Context) error {
	athletes, err := aw.service.ListAthletes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list athletes: %w", err)
	}

	today := time.Now()
	assessed := 0
	skipped := 0

	for i := range athletes {
		athlete := &athletes[i]

		if _, err := aw.service.AssessDaily(ctx, athlete.ID, today); err != nil {
			// Athletes without a competition date or usable history
			// are not assessable yet, that is not a failure
			if models.IsValidationError(err) {
				skipped++
				logger.Debug("athlete not assessable yet",
					zap.String("athlete_id", athlete.ID.String()),
					zap.Error(err),
				)
				continue
			}

			logger.Warn("failed to assess athlete",
				zap.String("athlete_id", athlete.ID.String()),
				zap.String("name", athlete.Name),
				zap.Error(err),
			)
			continue
		}

		assessed++
	}

	logger.Info("daily assessment sweep complete",
		zap.Int("athletes", len(athletes)),
		zap.Int("assessed", assessed),
		zap.Int("skipped", skipped),
	)

	return nil
}
