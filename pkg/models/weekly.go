package models

// EvaluationStatus is the outcome class of a weekly progress evaluation
type EvaluationStatus string

const (
	EvaluationInsufficient EvaluationStatus = "insufficient"
	EvaluationOnTrack      EvaluationStatus = "on_track"
	EvaluationAdjustments  EvaluationStatus = "adjustments_needed"
	EvaluationConflict     EvaluationStatus = "conflict"
)

// Adjustment is one recommended correction. Lower priority value means
// more urgent
type Adjustment struct {
	Priority     int     `json:"priority"`
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	CalorieDelta float64 `json:"calorie_delta"`
}

// ResolutionOption is one of the mutually exclusive paths offered when
// adjustment rules contradict each other
type ResolutionOption struct {
	Code         string  `json:"code"`
	Label        string  `json:"label"`
	CalorieDelta float64 `json:"calorie_delta"`
	Description  string  `json:"description"`
}

// PhaseTargets are the weekly progress bands evaluated for one phase.
// Fields irrelevant to the phase stay zero
type PhaseTargets struct {
	Phase             PhaseState `json:"phase"`
	GainMinPctWeek    float64    `json:"gain_min_pct_week"`
	GainMaxPctWeek    float64    `json:"gain_max_pct_week"`
	FatGainCapKg      float64    `json:"fat_gain_cap_kg"`
	BodyFatCeilingPct float64    `json:"body_fat_ceiling_pct"`
	LossMinPctWeek    float64    `json:"loss_min_pct_week"`
	LossMaxPctWeek    float64    `json:"loss_max_pct_week"`
	LeanLossCapKg     float64    `json:"lean_loss_cap_kg"`
	DriftBandPctWeek  float64    `json:"drift_band_pct_week"`
}

// WeeklyEvaluation is the verdict over the trailing seven check-ins
type WeeklyEvaluation struct {
	AthleteID       string             `json:"athlete_id"`
	Phase           PhaseState         `json:"phase"`
	Status          EvaluationStatus   `json:"status"`
	StartWeightKg   float64            `json:"start_weight_kg"`
	EndWeightKg     float64            `json:"end_weight_kg"`
	DeltaWeightKg   float64            `json:"delta_weight_kg"`
	DeltaBodyFatPct float64            `json:"delta_body_fat_pct"`
	DeltaLeanKg     float64            `json:"delta_lean_kg"`
	DeltaFatKg      float64            `json:"delta_fat_kg"`
	Adjustments     []Adjustment       `json:"adjustments,omitempty"`
	Options         []ResolutionOption `json:"options,omitempty"`
	Summary         string             `json:"summary"`
}
