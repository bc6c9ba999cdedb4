package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/internal/adapters/clickhouse"
	redisAdapter "github.com/physiqlab/coach-bot/internal/adapters/redis"
	"github.com/physiqlab/coach-bot/internal/adapters/telegram"
	"github.com/physiqlab/coach-bot/internal/nutrition"
	"github.com/physiqlab/coach-bot/internal/phase"
	"github.com/physiqlab/coach-bot/internal/recovery"
	"github.com/physiqlab/coach-bot/internal/weekly"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// ErrAthleteNotFound is returned when the requested athlete does not exist
var ErrAthleteNotFound = errors.New("athlete not found")

// Store is the persistence surface the service needs
type Store interface {
	CreateAthlete(ctx context.Context, profile *models.AthleteProfile) error
	UpdateAthlete(ctx context.Context, profile *models.AthleteProfile) error
	GetAthlete(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error)
	ListAthletes(ctx context.Context) ([]models.AthleteProfile, error)
	UpsertRecord(ctx context.Context, record *models.DailyRecord) error
	ListRecords(ctx context.Context, athleteID uuid.UUID) ([]models.DailyRecord, error)
	GetRecord(ctx context.Context, athleteID uuid.UUID, date time.Time) (*models.DailyRecord, error)
	StampPhaseLabel(ctx context.Context, athleteID uuid.UUID, date time.Time, label string) error
	SavePrescription(ctx context.Context, athleteID uuid.UUID, date time.Time, day models.MacroDay) error
}

// DailyAssessment bundles everything the engine decides for one athlete day
type DailyAssessment struct {
	AthleteID   string                   `json:"athlete_id"`
	Date        string                   `json:"date"`
	Timeline    *models.PhaseTimeline    `json:"timeline"`
	Recovery    *models.RecoveryDecision `json:"recovery"`
	Macros      *models.MacroTable       `json:"macros,omitempty"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Service runs the coaching decision flow: phase determination, recovery
// scoring, macro planning and weekly evaluation, with persistence, caching,
// history archiving and athlete notifications around the pure engines.
// Cache, archive and notifier are optional; nil skips that concern
type Service struct {
	store     Store
	phases    *phase.Engine
	nutrition *nutrition.Engine
	recovery  *recovery.Scorer
	evaluator *weekly.Evaluator

	cache    *redisAdapter.Client
	cacheTTL time.Duration
	archive  *clickhouse.AssessmentBatchWriter
	history  *clickhouse.Repository
	notifier *telegram.Notifier
}

// NewService creates the coaching service
func NewService(
	store Store,
	cache *redisAdapter.Client,
	cacheTTL time.Duration,
	archive *clickhouse.AssessmentBatchWriter,
	history *clickhouse.Repository,
	notifier *telegram.Notifier,
) *Service {
	return &Service{
		store:     store,
		phases:    phase.NewEngine(),
		nutrition: nutrition.NewEngine(),
		recovery:  recovery.NewScorer(),
		evaluator: weekly.NewEvaluator(),
		cache:     cache,
		cacheTTL:  cacheTTL,
		archive:   archive,
		history:   history,
		notifier:  notifier,
	}
}

// RegisterAthlete creates a new athlete profile
func (s *Service) RegisterAthlete(ctx context.Context, profile *models.AthleteProfile) error {
	return s.store.CreateAthlete(ctx, profile)
}

// UpdateAthlete updates an athlete profile and drops the cached assessment
func (s *Service) UpdateAthlete(ctx context.Context, profile *models.AthleteProfile) error {
	if err := s.store.UpdateAthlete(ctx, profile); err != nil {
		return err
	}
	s.invalidateAssessment(ctx, profile.ID, time.Now())
	return nil
}

// GetAthlete finds an athlete profile
func (s *Service) GetAthlete(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error) {
	profile, err := s.store.GetAthlete(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrAthleteNotFound
	}
	return profile, nil
}

// ListAthletes returns all athlete profiles
func (s *Service) ListAthletes(ctx context.Context) ([]models.AthleteProfile, error) {
	return s.store.ListAthletes(ctx)
}

// SubmitRecord stores a daily check-in, replacing any earlier check-in
// for the same day, and drops cached assessments it may invalidate
func (s *Service) SubmitRecord(ctx context.Context, record *models.DailyRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if err := s.store.UpsertRecord(ctx, record); err != nil {
		return err
	}

	s.invalidateAssessment(ctx, record.AthleteID, record.Date)
	s.invalidateAssessment(ctx, record.AthleteID, time.Now())

	return nil
}

// ListRecords returns the athlete's full check-in history, oldest first
func (s *Service) ListRecords(ctx context.Context, athleteID uuid.UUID) ([]models.DailyRecord, error) {
	if _, err := s.GetAthlete(ctx, athleteID); err != nil {
		return nil, err
	}
	return s.store.ListRecords(ctx, athleteID)
}

// GetRecord returns one day's check-in, nil when the day is empty
func (s *Service) GetRecord(ctx context.Context, athleteID uuid.UUID, date time.Time) (*models.DailyRecord, error) {
	return s.store.GetRecord(ctx, athleteID, date)
}

// DeterminePhase computes the phase timeline for the athlete. Pure read,
// no side effects
func (s *Service) DeterminePhase(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.PhaseTimeline, error) {
	profile, records, err := s.load(ctx, athleteID, today)
	if err != nil {
		return nil, err
	}
	return s.phases.Timeline(profile, records, today)
}

// ComputeWeeklyMacros computes the 7-day macro prescription for the
// athlete's current phase. Pure read, no side effects
func (s *Service) ComputeWeeklyMacros(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.MacroTable, error) {
	profile, records, err := s.load(ctx, athleteID, today)
	if err != nil {
		return nil, err
	}

	timeline, err := s.phases.Timeline(profile, records, today)
	if err != nil {
		return nil, err
	}

	return s.nutrition.Plan(profile, records, timeline)
}

// ScoreRecovery scores training readiness as of the given day. Pure read,
// no side effects
func (s *Service) ScoreRecovery(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.RecoveryDecision, error) {
	profile, records, err := s.load(ctx, athleteID, today)
	if err != nil {
		return nil, err
	}

	snapshot := recovery.BuildSnapshot(profile, records)
	return s.recovery.Score(snapshot, records), nil
}

// GetAssessment returns the cached daily assessment when fresh, otherwise
// runs a full assessment
func (s *Service) GetAssessment(ctx context.Context, athleteID uuid.UUID, today time.Time) (*DailyAssessment, error) {
	if cached := s.cachedAssessment(ctx, athleteID, today); cached != nil {
		return cached, nil
	}
	return s.AssessDaily(ctx, athleteID, today)
}

// AssessDaily runs the full decision flow for one athlete day: phase
// timeline, recovery score and macro plan. The determined phase is stamped
// onto today's record, prescriptions are written for the seven planned
// days, and the result is cached and archived. Macros are best-effort: an
// athlete with no usable measurements still gets phase and recovery
func (s *Service) AssessDaily(ctx context.Context, athleteID uuid.UUID, today time.Time) (*DailyAssessment, error) {
	profile, records, err := s.load(ctx, athleteID, today)
	if err != nil {
		return nil, err
	}

	prior := s.cachedAssessment(ctx, athleteID, today)

	timeline, err := s.phases.Timeline(profile, records, today)
	if err != nil {
		return nil, err
	}

	snapshot := recovery.BuildSnapshot(profile, records)
	decision := s.recovery.Score(snapshot, records)

	table, err := s.nutrition.Plan(profile, records, timeline)
	if err != nil {
		if !models.IsValidationError(err) {
			return nil, err
		}
		logger.Warn("macro plan skipped",
			zap.String("athlete_id", athleteID.String()),
			zap.Error(err),
		)
		table = nil
	}

	assessment := &DailyAssessment{
		AthleteID:   athleteID.String(),
		Date:        models.Day(today).Format(models.DateLayout),
		Timeline:    timeline,
		Recovery:    decision,
		Macros:      table,
		GeneratedAt: time.Now(),
	}

	if err := s.store.StampPhaseLabel(ctx, athleteID, today, string(timeline.Current)); err != nil {
		logger.Warn("failed to stamp phase label",
			zap.String("athlete_id", athleteID.String()),
			zap.Error(err),
		)
	}

	if table != nil {
		for i, day := range table.Days {
			date := models.Day(today).AddDate(0, 0, i)
			if err := s.store.SavePrescription(ctx, athleteID, date, day); err != nil {
				logger.Warn("failed to save prescription",
					zap.String("athlete_id", athleteID.String()),
					zap.String("date", date.Format(models.DateLayout)),
					zap.Error(err),
				)
			}
		}
	}

	s.cacheAssessment(ctx, assessment)

	if s.archive != nil {
		s.archive.AddAssessment(clickhouse.NewAssessmentRow(time.Now(), timeline, decision))
	}

	// Sweeps reassess every athlete on a timer. Only a status change
	// since the last cached assessment for the day notifies
	if s.notifier != nil && decision.Status != models.RecoveryFullyRecovered && recoveryStatusChanged(prior, decision) {
		if err := s.notifier.SendRecoveryAlert(ctx, profile, decision); err != nil {
			logger.Warn("failed to send recovery alert",
				zap.String("athlete_id", athleteID.String()),
				zap.Error(err),
			)
		}
	}

	return assessment, nil
}

func recoveryStatusChanged(prior *DailyAssessment, decision *models.RecoveryDecision) bool {
	if prior == nil || prior.Recovery == nil {
		return true
	}
	return prior.Recovery.Status != decision.Status
}

// EvaluateWeek judges the trailing week against the current phase's
// progress bands, archives the verdict and notifies the athlete
func (s *Service) EvaluateWeek(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.WeeklyEvaluation, error) {
	profile, records, err := s.load(ctx, athleteID, today)
	if err != nil {
		return nil, err
	}

	timeline, err := s.phases.Timeline(profile, records, today)
	if err != nil {
		return nil, err
	}

	eval := s.evaluator.Evaluate(profile, records, timeline.Current)

	if s.history != nil {
		row := clickhouse.NewEvaluationRow(time.Now(), eval)
		if err := s.history.SaveEvaluations(ctx, []clickhouse.EvaluationRow{row}); err != nil {
			logger.Warn("failed to archive weekly evaluation",
				zap.String("athlete_id", athleteID.String()),
				zap.Error(err),
			)
		}
	}

	if s.notifier != nil && eval.Status != models.EvaluationInsufficient {
		var sendErr error
		if eval.Status == models.EvaluationConflict {
			sendErr = s.notifier.SendConflictPrompt(ctx, profile, eval)
		} else {
			sendErr = s.notifier.SendWeeklyReport(ctx, profile, eval)
		}
		if sendErr != nil {
			logger.Warn("failed to send weekly report",
				zap.String("athlete_id", athleteID.String()),
				zap.Error(sendErr),
			)
		}
	}

	return eval, nil
}

// RunWeeklyEvaluations evaluates every athlete, logging failures without
// stopping the sweep
func (s *Service) RunWeeklyEvaluations(ctx context.Context, today time.Time) error {
	athletes, err := s.store.ListAthletes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list athletes for weekly evaluation: %w", err)
	}

	var failures int
	for i := range athletes {
		athlete := &athletes[i]
		if _, err := s.EvaluateWeek(ctx, athlete.ID, today); err != nil {
			failures++
			logger.Error("weekly evaluation failed",
				zap.String("athlete_id", athlete.ID.String()),
				zap.String("name", athlete.Name),
				zap.Error(err),
			)
			if s.notifier != nil {
				_ = s.notifier.SendErrorAlert(athlete.Name, err.Error())
			}
		}
	}

	logger.Info("weekly evaluation sweep finished",
		zap.Int("athletes", len(athletes)),
		zap.Int("failures", failures),
	)

	return nil
}

// Cache helpers

func assessmentKey(athleteID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("coach:assessment:%s:%s", athleteID, models.Day(date).Format(models.DateLayout))
}

func (s *Service) cachedAssessment(ctx context.Context, athleteID uuid.UUID, date time.Time) *DailyAssessment {
	if s.cache == nil {
		return nil
	}

	raw, err := s.cache.Get(ctx, assessmentKey(athleteID, date)).Result()
	if err != nil {
		return nil
	}

	var assessment DailyAssessment
	if err := json.Unmarshal([]byte(raw), &assessment); err != nil {
		logger.Warn("dropping unreadable cached assessment",
			zap.String("athlete_id", athleteID.String()),
			zap.Error(err),
		)
		return nil
	}

	return &assessment
}

func (s *Service) cacheAssessment(ctx context.Context, assessment *DailyAssessment) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(assessment)
	if err != nil {
		return
	}

	id, err := uuid.Parse(assessment.AthleteID)
	if err != nil {
		return
	}

	date, err := time.Parse(models.DateLayout, assessment.Date)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, assessmentKey(id, date), data, s.cacheTTL).Err(); err != nil {
		logger.Warn("failed to cache assessment",
			zap.String("athlete_id", assessment.AthleteID),
			zap.Error(err),
		)
	}
}

func (s *Service) invalidateAssessment(ctx context.Context, athleteID uuid.UUID, date time.Time) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, assessmentKey(athleteID, date)).Err()
}

// load fetches the athlete and the check-ins dated through the given day.
// Assessments write prescription rows for the week ahead; rows dated past
// the decision day must not feed back into the engines
func (s *Service) load(ctx context.Context, athleteID uuid.UUID, through time.Time) (*models.AthleteProfile, []models.DailyRecord, error) {
	profile, err := s.store.GetAthlete(ctx, athleteID)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil {
		return nil, nil, ErrAthleteNotFound
	}

	records, err := s.store.ListRecords(ctx, athleteID)
	if err != nil {
		return nil, nil, err
	}

	day := models.Day(through)
	kept := make([]models.DailyRecord, 0, len(records))
	for i := range records {
		if !models.Day(records[i].Date).After(day) {
			kept = append(kept, records[i])
		}
	}

	return profile, kept, nil
}
