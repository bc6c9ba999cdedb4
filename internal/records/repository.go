package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physiqlab/coach-bot/internal/adapters/database"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// Repository handles athlete and daily record persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates new records repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// CreateAthlete creates new athlete profile
func (r *Repository) CreateAthlete(ctx context.Context, profile *models.AthleteProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO athletes (
			id, name, sex, birth_date, height_cm, training_age_years,
			ped_use, target_category, target_body_fat_pct, competition_date,
			baseline_hrv, telegram_chat_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`,
		profile.ID, profile.Name, profile.Sex, profile.BirthDate,
		profile.HeightCm, profile.TrainingAgeYears, profile.PEDUse,
		profile.TargetCategory, profile.TargetBodyFatPct, profile.CompetitionDate,
		profile.BaselineHRV, profile.TelegramChatID, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create athlete: %w", err)
	}

	return nil
}

// UpdateAthlete updates an existing athlete profile
func (r *Repository) UpdateAthlete(ctx context.Context, profile *models.AthleteProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	profile.UpdatedAt = time.Now()

	result, err := r.db.Conn().ExecContext(ctx, `
		UPDATE athletes SET
			name = $2, sex = $3, birth_date = $4, height_cm = $5,
			training_age_years = $6, ped_use = $7, target_category = $8,
			target_body_fat_pct = $9, competition_date = $10,
			baseline_hrv = $11, telegram_chat_id = $12, updated_at = $13
		WHERE id = $1
	`,
		profile.ID, profile.Name, profile.Sex, profile.BirthDate,
		profile.HeightCm, profile.TrainingAgeYears, profile.PEDUse,
		profile.TargetCategory, profile.TargetBodyFatPct, profile.CompetitionDate,
		profile.BaselineHRV, profile.TelegramChatID, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update athlete: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("athlete %s not found", profile.ID)
	}

	return nil
}

// GetAthlete finds athlete by ID, returns nil when not found
func (r *Repository) GetAthlete(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error) {
	var profile models.AthleteProfile

	err := r.db.DB().GetContext(ctx, &profile, `
		SELECT id, name, sex, birth_date, height_cm, training_age_years,
		       ped_use, target_category, target_body_fat_pct, competition_date,
		       baseline_hrv, telegram_chat_id, created_at, updated_at
		FROM athletes
		WHERE id = $1
	`, id)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get athlete: %w", err)
	}

	return &profile, nil
}

// ListAthletes returns all athlete profiles ordered by name
func (r *Repository) ListAthletes(ctx context.Context) ([]models.AthleteProfile, error) {
	var profiles []models.AthleteProfile

	err := r.db.DB().SelectContext(ctx, &profiles, `
		SELECT id, name, sex, birth_date, height_cm, training_age_years,
		       ped_use, target_category, target_body_fat_pct, competition_date,
		       baseline_hrv, telegram_chat_id, created_at, updated_at
		FROM athletes
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list athletes: %w", err)
	}

	return profiles, nil
}

// UpsertRecord stores a daily check-in. A second write for the same
// athlete and date replaces the measurements; the phase label and the
// prescription columns are owned by StampPhaseLabel and SavePrescription
// and left alone
func (r *Repository) UpsertRecord(ctx context.Context, record *models.DailyRecord) error {
	record.Date = models.Day(record.Date)
	now := time.Now()

	err := r.db.Conn().QueryRowContext(ctx, `
		INSERT INTO daily_records (
			athlete_id, record_date, weight_kg, body_fat_pct, training_load,
			hrv, sleep_score, recovery_hours, resting_hr, phase_label,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (athlete_id, record_date) DO UPDATE SET
			weight_kg = EXCLUDED.weight_kg,
			body_fat_pct = EXCLUDED.body_fat_pct,
			training_load = EXCLUDED.training_load,
			hrv = EXCLUDED.hrv,
			sleep_score = EXCLUDED.sleep_score,
			recovery_hours = EXCLUDED.recovery_hours,
			resting_hr = EXCLUDED.resting_hr,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`,
		record.AthleteID, record.Date, record.WeightKg, record.BodyFatPct,
		record.TrainingLoad, record.HRV, record.SleepScore, record.RecoveryHrs,
		record.RestingHR, record.PhaseLabel, now,
	).Scan(&record.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert daily record: %w", err)
	}

	return nil
}

// ListRecords returns every daily record for the athlete, oldest first
func (r *Repository) ListRecords(ctx context.Context, athleteID uuid.UUID) ([]models.DailyRecord, error) {
	var records []models.DailyRecord

	err := r.db.DB().SelectContext(ctx, &records, `
		SELECT id, athlete_id, record_date, weight_kg, body_fat_pct,
		       training_load, hrv, sleep_score, recovery_hours, resting_hr,
		       phase_label, diet_strategy, calories, carbs_g, protein_g, fat_g,
		       created_at, updated_at
		FROM daily_records
		WHERE athlete_id = $1
		ORDER BY record_date ASC
	`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily records: %w", err)
	}

	return records, nil
}

// GetRecord finds one daily record by athlete and date, returns nil when
// the day has no check-in
func (r *Repository) GetRecord(ctx context.Context, athleteID uuid.UUID, date time.Time) (*models.DailyRecord, error) {
	var record models.DailyRecord

	err := r.db.DB().GetContext(ctx, &record, `
		SELECT id, athlete_id, record_date, weight_kg, body_fat_pct,
		       training_load, hrv, sleep_score, recovery_hours, resting_hr,
		       phase_label, diet_strategy, calories, carbs_g, protein_g, fat_g,
		       created_at, updated_at
		FROM daily_records
		WHERE athlete_id = $1 AND record_date = $2
	`, athleteID, models.Day(date))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily record: %w", err)
	}

	return &record, nil
}

// StampPhaseLabel writes the determined phase onto the day's record so
// the historical timeline and deficit counter see it later
func (r *Repository) StampPhaseLabel(ctx context.Context, athleteID uuid.UUID, date time.Time, label string) error {
	now := time.Now()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO daily_records (athlete_id, record_date, phase_label, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (athlete_id, record_date) DO UPDATE SET
			phase_label = EXCLUDED.phase_label,
			updated_at = EXCLUDED.updated_at
	`, athleteID, models.Day(date), label, now)

	if err != nil {
		return fmt.Errorf("failed to stamp phase label: %w", err)
	}

	return nil
}

// SavePrescription writes the prescribed strategy and macros onto the
// day's record, creating the row when the athlete has not checked in yet
func (r *Repository) SavePrescription(ctx context.Context, athleteID uuid.UUID, date time.Time, day models.MacroDay) error {
	now := time.Now()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO daily_records (
			athlete_id, record_date, diet_strategy, calories, carbs_g,
			protein_g, fat_g, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (athlete_id, record_date) DO UPDATE SET
			diet_strategy = EXCLUDED.diet_strategy,
			calories = EXCLUDED.calories,
			carbs_g = EXCLUDED.carbs_g,
			protein_g = EXCLUDED.protein_g,
			fat_g = EXCLUDED.fat_g,
			updated_at = EXCLUDED.updated_at
	`,
		athleteID, models.Day(date), day.Strategy,
		models.NewNullDecimal(float64(day.Calories)),
		models.NewNullDecimal(float64(day.CarbsG)),
		models.NewNullDecimal(float64(day.ProteinG)),
		models.NewNullDecimal(float64(day.FatG)),
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to save prescription: %w", err)
	}

	return nil
}
