package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// AssessmentRow is one flattened daily assessment for the analytics store
type AssessmentRow struct {
	AthleteID      string
	AssessedAt     time.Time
	Phase          string
	FatiguePoints  int32
	RecoveryStatus string
	Action         string
	WeightLossRate *float64
	HRVMean7d      *float64
	HRVCV          *float64
	ACWR           *float64
	Plateau        bool
	Regain         bool
}

// NewAssessmentRow flattens a phase timeline and recovery decision into
// one history row
func NewAssessmentRow(at time.Time, timeline *models.PhaseTimeline, decision *models.RecoveryDecision) AssessmentRow {
	return AssessmentRow{
		AthleteID:      timeline.AthleteID,
		AssessedAt:     at,
		Phase:          string(timeline.Current),
		FatiguePoints:  int32(decision.FatiguePoints),
		RecoveryStatus: string(decision.Status),
		Action:         decision.Action,
		WeightLossRate: timeline.Flags.WeightLossRatePctWeek,
		HRVMean7d:      timeline.Flags.HRVMean7d,
		HRVCV:          decision.HRVCV,
		ACWR:           decision.ACWR,
		Plateau:        timeline.Flags.Plateau,
		Regain:         timeline.Flags.Regain,
	}
}

// EvaluationRow is one flattened weekly evaluation for the analytics store
type EvaluationRow struct {
	AthleteID       string
	EvaluatedAt     time.Time
	Phase           string
	Status          string
	StartWeightKg   float64
	EndWeightKg     float64
	DeltaWeightKg   float64
	DeltaBodyFatPct float64
	DeltaLeanKg     float64
	DeltaFatKg      float64
	Adjustments     int32
	Options         int32
	Summary         string
}

// NewEvaluationRow flattens a weekly evaluation into one history row
func NewEvaluationRow(at time.Time, eval *models.WeeklyEvaluation) EvaluationRow {
	return EvaluationRow{
		AthleteID:       eval.AthleteID,
		EvaluatedAt:     at,
		Phase:           string(eval.Phase),
		Status:          string(eval.Status),
		StartWeightKg:   eval.StartWeightKg,
		EndWeightKg:     eval.EndWeightKg,
		DeltaWeightKg:   eval.DeltaWeightKg,
		DeltaBodyFatPct: eval.DeltaBodyFatPct,
		DeltaLeanKg:     eval.DeltaLeanKg,
		DeltaFatKg:      eval.DeltaFatKg,
		Adjustments:     int32(len(eval.Adjustments)),
		Options:         int32(len(eval.Options)),
		Summary:         eval.Summary,
	}
}

// Repository handles ClickHouse data operations
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates new ClickHouse repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the history tables when they do not exist yet.
// Both are append-only MergeTree tables; engines never read them back
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS assessment_history (
			athlete_id       String,
			assessed_at      DateTime,
			phase            LowCardinality(String),
			fatigue_points   Int32,
			recovery_status  LowCardinality(String),
			action           String,
			weight_loss_rate Nullable(Float64),
			hrv_mean_7d      Nullable(Float64),
			hrv_cv           Nullable(Float64),
			acwr             Nullable(Float64),
			plateau          Bool,
			regain           Bool
		) ENGINE = MergeTree()
		ORDER BY (athlete_id, assessed_at)`,
		`CREATE TABLE IF NOT EXISTS evaluation_history (
			athlete_id         String,
			evaluated_at       DateTime,
			phase              LowCardinality(String),
			status             LowCardinality(String),
			start_weight_kg    Float64,
			end_weight_kg      Float64,
			delta_weight_kg    Float64,
			delta_body_fat_pct Float64,
			delta_lean_kg      Float64,
			delta_fat_kg       Float64,
			adjustments        Int32,
			options            Int32,
			summary            String
		) ENGINE = MergeTree()
		ORDER BY (athlete_id, evaluated_at)`,
	}

	for _, stmt := range ddl {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure clickhouse schema: %w", err)
		}
	}

	logger.Info("clickhouse history schema ensured")

	return nil
}

// SaveAssessments saves daily assessments to ClickHouse history
func (r *Repository) SaveAssessments(ctx context.Context, rows []AssessmentRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO assessment_history
		(athlete_id, assessed_at, phase, fatigue_points, recovery_status, action,
		 weight_loss_rate, hrv_mean_7d, hrv_cv, acwr, plateau, regain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx,
			row.AthleteID,
			row.AssessedAt,
			row.Phase,
			row.FatiguePoints,
			row.RecoveryStatus,
			row.Action,
			row.WeightLossRate,
			row.HRVMean7d,
			row.HRVCV,
			row.ACWR,
			row.Plateau,
			row.Regain,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert assessment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved assessments to ClickHouse",
		zap.Int("count", len(rows)),
	)

	return nil
}

// SaveEvaluations saves weekly evaluations to ClickHouse history
func (r *Repository) SaveEvaluations(ctx context.Context, rows []EvaluationRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	stmt, err := tx.Preparex(`
		INSERT INTO evaluation_history
		(athlete_id, evaluated_at, phase, status, start_weight_kg, end_weight_kg,
		 delta_weight_kg, delta_body_fat_pct, delta_lean_kg, delta_fat_kg,
		 adjustments, options, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx,
			row.AthleteID,
			row.EvaluatedAt,
			row.Phase,
			row.Status,
			row.StartWeightKg,
			row.EndWeightKg,
			row.DeltaWeightKg,
			row.DeltaBodyFatPct,
			row.DeltaLeanKg,
			row.DeltaFatKg,
			row.Adjustments,
			row.Options,
			row.Summary,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert evaluation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("saved evaluations to ClickHouse",
		zap.Int("count", len(rows)),
	)

	return nil
}
