package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sex represents athlete biological sex used by sex-dependent thresholds
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Valid reports whether the sex value is one of the known variants
func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

// BodyFatCeiling returns the off-season body-fat ceiling used to pick
// between bulking and recomposition
func (s Sex) BodyFatCeiling() float64 {
	if s == SexFemale {
		return 22.0
	}
	return 15.0
}

// TargetCategory represents the competitive division the athlete prepares for
type TargetCategory string

const (
	CategoryOpenBodybuilding TargetCategory = "open_bodybuilding"
	CategoryClassicPhysique  TargetCategory = "classic_physique"
	CategoryMensPhysique     TargetCategory = "mens_physique"
	CategoryWellness         TargetCategory = "wellness"
	CategoryBikini           TargetCategory = "bikini"
)

// Valid reports whether the category is one of the known divisions
func (c TargetCategory) Valid() bool {
	switch c {
	case CategoryOpenBodybuilding, CategoryClassicPhysique, CategoryMensPhysique, CategoryWellness, CategoryBikini:
		return true
	}
	return false
}

// AthleteProfile holds the long-lived athlete data created at onboarding
// and mutated by profile edits
type AthleteProfile struct {
	ID               uuid.UUID           `json:"id" db:"id"`
	Name             string              `json:"name" db:"name"`
	Sex              Sex                 `json:"sex" db:"sex"`
	BirthDate        time.Time           `json:"birth_date" db:"birth_date"`
	HeightCm         decimal.Decimal     `json:"height_cm" db:"height_cm"`
	TrainingAgeYears int                 `json:"training_age_years" db:"training_age_years"`
	PEDUse           bool                `json:"ped_use" db:"ped_use"`
	TargetCategory   TargetCategory      `json:"target_category" db:"target_category"`
	TargetBodyFatPct decimal.Decimal     `json:"target_body_fat_pct" db:"target_body_fat_pct"`
	CompetitionDate  time.Time           `json:"competition_date" db:"competition_date"`
	BaselineHRV      decimal.NullDecimal `json:"baseline_hrv" db:"baseline_hrv"`
	TelegramChatID   int64               `json:"telegram_chat_id" db:"telegram_chat_id"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// Validate checks profile fields that the engines structurally require
func (p *AthleteProfile) Validate() error {
	if p.Name == "" {
		return NewValidationError("name", "required")
	}
	if !p.Sex.Valid() {
		return NewValidationError("sex", fmt.Sprintf("must be %q or %q", SexMale, SexFemale))
	}
	if !p.TargetCategory.Valid() {
		return NewValidationError("target_category", fmt.Sprintf("unknown division %q", p.TargetCategory))
	}
	if p.HeightCm.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("height_cm", "must be positive")
	}
	if p.TrainingAgeYears < 0 {
		return NewValidationError("training_age_years", "cannot be negative")
	}
	tbf := ToFloat64(p.TargetBodyFatPct)
	if tbf <= 0 || tbf >= 100 {
		return NewValidationError("target_body_fat_pct", "must be between 0 and 100")
	}
	return nil
}

// Age returns full years at the given date
func (p *AthleteProfile) Age(today time.Time) int {
	years := today.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(today) {
		years--
	}
	return years
}

// BaselineHRVValue returns the baseline HRV when recorded
func (p *AthleteProfile) BaselineHRVValue() (float64, bool) {
	return NullFloat(p.BaselineHRV)
}
