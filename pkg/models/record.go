package models

import (
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the canonical calendar-day format used across storage,
// the HTTP API and CSV import
const DateLayout = "2006-01-02"

// Day truncates a timestamp to its UTC calendar day
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyRecord is one check-in row: measured biometrics plus whatever the
// engine prescribed for that day. Every biometric is optional because
// athletes skip measurements
type DailyRecord struct {
	ID           int64               `json:"id" db:"id"`
	AthleteID    uuid.UUID           `json:"athlete_id" db:"athlete_id"`
	Date         time.Time           `json:"date" db:"record_date"`
	WeightKg     decimal.NullDecimal `json:"weight_kg" db:"weight_kg"`
	BodyFatPct   decimal.NullDecimal `json:"body_fat_pct" db:"body_fat_pct"`
	TrainingLoad decimal.NullDecimal `json:"training_load" db:"training_load"`
	HRV          decimal.NullDecimal `json:"hrv" db:"hrv"`
	SleepScore   sql.NullInt64       `json:"sleep_score" db:"sleep_score"`
	RecoveryHrs  sql.NullInt64       `json:"recovery_hours" db:"recovery_hours"`
	RestingHR    sql.NullInt64       `json:"resting_hr" db:"resting_hr"`
	PhaseLabel   string              `json:"phase_label" db:"phase_label"`
	DietStrategy string              `json:"diet_strategy" db:"diet_strategy"`
	Calories     decimal.NullDecimal `json:"calories" db:"calories"`
	CarbsG       decimal.NullDecimal `json:"carbs_g" db:"carbs_g"`
	ProteinG     decimal.NullDecimal `json:"protein_g" db:"protein_g"`
	FatG         decimal.NullDecimal `json:"fat_g" db:"fat_g"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// Validate checks the measured fields a check-in is allowed to carry.
// Absent values are fine; present values must be physiological
func (r *DailyRecord) Validate() error {
	if r.AthleteID == uuid.Nil {
		return NewValidationError("athlete_id", "is required")
	}
	if r.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	if w, ok := r.Weight(); ok && w <= 0 {
		return NewValidationError("weight_kg", "must be positive")
	}
	if bf, ok := r.BodyFat(); ok && (bf <= 0 || bf >= 100) {
		return NewValidationError("body_fat_pct", "must be between 0 and 100")
	}
	if load, ok := r.Load(); ok && load < 0 {
		return NewValidationError("training_load", "must not be negative")
	}
	if hrv, ok := r.HRVValue(); ok && hrv <= 0 {
		return NewValidationError("hrv", "must be positive")
	}
	if score, ok := r.Sleep(); ok && (score < 0 || score > 100) {
		return NewValidationError("sleep_score", "must be between 0 and 100")
	}
	if hrs, ok := r.RecoveryHours(); ok && hrs < 0 {
		return NewValidationError("recovery_hours", "must not be negative")
	}
	return nil
}

// Weight returns the measured weight in kg when present
func (r *DailyRecord) Weight() (float64, bool) {
	return NullFloat(r.WeightKg)
}

// BodyFat returns the measured body-fat percentage when present
func (r *DailyRecord) BodyFat() (float64, bool) {
	return NullFloat(r.BodyFatPct)
}

// Load returns the session training load when present
func (r *DailyRecord) Load() (float64, bool) {
	return NullFloat(r.TrainingLoad)
}

// HRVValue returns the morning HRV reading when present
func (r *DailyRecord) HRVValue() (float64, bool) {
	return NullFloat(r.HRV)
}

// Sleep returns the sleep score when present
func (r *DailyRecord) Sleep() (int, bool) {
	if !r.SleepScore.Valid {
		return 0, false
	}
	return int(r.SleepScore.Int64), true
}

// RecoveryHours returns hours since the last training session when present
func (r *DailyRecord) RecoveryHours() (int, bool) {
	if !r.RecoveryHrs.Valid {
		return 0, false
	}
	return int(r.RecoveryHrs.Int64), true
}

// Phase parses the stored phase label; records without a recognizable
// label report false and are skipped by span reconstruction
func (r *DailyRecord) Phase() (PhaseState, bool) {
	return ParsePhase(r.PhaseLabel)
}

// LeanMassKg derives lean mass from weight and body fat when both are present
func (r *DailyRecord) LeanMassKg() (float64, bool) {
	w, okW := r.Weight()
	bf, okBF := r.BodyFat()
	if !okW || !okBF {
		return 0, false
	}
	return w * (1 - bf/100), true
}

// FatMassKg derives fat mass from weight and body fat when both are present
func (r *DailyRecord) FatMassKg() (float64, bool) {
	w, okW := r.Weight()
	bf, okBF := r.BodyFat()
	if !okW || !okBF {
		return 0, false
	}
	return w * bf / 100, true
}

// SortedByDate returns a copy of records ordered by date ascending.
// Engines never trust storage order
func SortedByDate(records []DailyRecord) []DailyRecord {
	out := append([]DailyRecord(nil), records...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
