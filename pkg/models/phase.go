package models

import (
	"strings"
	"time"
)

// PhaseState represents a periodization phase
type PhaseState string

const (
	PhaseBulking         PhaseState = "bulking"
	PhaseCutting         PhaseState = "cutting"
	PhasePeakWeek        PhaseState = "peak_week"
	PhaseRecomposition   PhaseState = "recomposition"
	PhaseOffSeason       PhaseState = "off_season"
	PhasePostCompetition PhaseState = "post_competition"
)

// Valid reports whether the phase is one of the known states
func (p PhaseState) Valid() bool {
	switch p {
	case PhaseBulking, PhaseCutting, PhasePeakWeek, PhaseRecomposition, PhaseOffSeason, PhasePostCompetition:
		return true
	}
	return false
}

// IsDeficit reports whether the phase prescribes a sustained caloric deficit
func (p PhaseState) IsDeficit() bool {
	return p == PhaseCutting
}

// DisplayName returns a human-readable phase name for reports
func (p PhaseState) DisplayName() string {
	switch p {
	case PhaseBulking:
		return "Bulking"
	case PhaseCutting:
		return "Cutting"
	case PhasePeakWeek:
		return "Peak Week"
	case PhaseRecomposition:
		return "Recomposition"
	case PhaseOffSeason:
		return "Off-Season"
	case PhasePostCompetition:
		return "Post-Competition"
	}
	return string(p)
}

// phaseAliases maps normalized free-form labels to canonical states.
// Check-in sources disagree on naming, so common synonyms are accepted
var phaseAliases = map[string]PhaseState{
	"bulking":            PhaseBulking,
	"bulk":               PhaseBulking,
	"off-season bulk":    PhaseBulking,
	"offseason bulk":     PhaseBulking,
	"cutting":            PhaseCutting,
	"cut":                PhaseCutting,
	"contest prep":       PhaseCutting,
	"pre-contest":        PhaseCutting,
	"pre contest":        PhaseCutting,
	"peak week":          PhasePeakWeek,
	"peak_week":          PhasePeakWeek,
	"peakweek":           PhasePeakWeek,
	"recomposition":      PhaseRecomposition,
	"recomp":             PhaseRecomposition,
	"body recomposition": PhaseRecomposition,
	"off season":         PhaseOffSeason,
	"off_season":         PhaseOffSeason,
	"offseason":          PhaseOffSeason,
	"off-season":         PhaseOffSeason,
	"post competition":   PhasePostCompetition,
	"post_competition":   PhasePostCompetition,
	"post-competition":   PhasePostCompetition,
	"transition":         PhasePostCompetition,
}

// ParsePhase normalizes a stored phase label to its canonical state
func ParsePhase(label string) (PhaseState, bool) {
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "" {
		return "", false
	}
	if state, ok := phaseAliases[norm]; ok {
		return state, true
	}
	return "", false
}

// PhaseSpan is a contiguous run of days spent (or planned) in one phase
type PhaseSpan struct {
	Phase     PhaseState `json:"phase"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Projected bool       `json:"projected"`
}

// Days returns the inclusive span length in days
func (s PhaseSpan) Days() int {
	return int(s.End.Sub(s.Start).Hours()/24) + 1
}

// PhaseFlags carries the trend signals evaluated alongside the timeline
type PhaseFlags struct {
	WeightLossRatePctWeek *float64 `json:"weight_loss_rate_pct_week"`
	Plateau               bool     `json:"plateau"`
	Regain                bool     `json:"regain"`
	HRVMean7d             *float64 `json:"hrv_mean_7d"`
}

// PhaseTimeline is the full phase determination: where the athlete is now,
// where they have been, and the projected path to the competition
type PhaseTimeline struct {
	AthleteID  string      `json:"athlete_id"`
	Today      time.Time   `json:"today"`
	Current    PhaseState  `json:"current"`
	Historical []PhaseSpan `json:"historical"`
	Projected  []PhaseSpan `json:"projected"`
	Flags      PhaseFlags  `json:"flags"`
}
