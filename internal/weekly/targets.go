package weekly

import "github.com/physiqlab/coach-bot/pkg/models"

// Weekly progress bands. Rates are percent of starting body weight per
// week, caps are kilograms of the respective compartment
const (
	bulkGainMinPctWeek = 0.25
	bulkGainMaxPctWeek = 0.50
	bulkFatGainCapKg   = 0.3

	cutLossMinPctWeek = 0.5
	cutLossMaxPctWeek = 1.0
	cutLeanLossCapKg  = 0.2

	recompDriftBandPctWeek = 0.35
)

// DefaultTargets returns the progress bands evaluated for a phase. Peak
// week and the post-competition block are deliberately unconditioned:
// water manipulation and rebound make weekly weight meaningless there
func DefaultTargets(phase models.PhaseState, sex models.Sex) models.PhaseTargets {
	switch phase {
	case models.PhaseBulking:
		return models.PhaseTargets{
			Phase:             phase,
			GainMinPctWeek:    bulkGainMinPctWeek,
			GainMaxPctWeek:    bulkGainMaxPctWeek,
			FatGainCapKg:      bulkFatGainCapKg,
			BodyFatCeilingPct: sex.BodyFatCeiling(),
		}
	case models.PhaseCutting:
		return models.PhaseTargets{
			Phase:          phase,
			LossMinPctWeek: cutLossMinPctWeek,
			LossMaxPctWeek: cutLossMaxPctWeek,
			LeanLossCapKg:  cutLeanLossCapKg,
		}
	case models.PhaseRecomposition, models.PhaseOffSeason:
		return models.PhaseTargets{
			Phase:            phase,
			DriftBandPctWeek: recompDriftBandPctWeek,
		}
	default:
		return models.PhaseTargets{Phase: phase}
	}
}
