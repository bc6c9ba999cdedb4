package weekly

import (
	"fmt"
	"sort"

	"github.com/physiqlab/coach-bot/pkg/models"
)

// Adjustment codes. Priority 0 is the most urgent
const (
	AdjSlowGain  = "slow_gain"
	AdjFastGain  = "fast_gain"
	AdjFatGain   = "fat_gain"
	AdjMiniCut   = "mini_cut"
	AdjSlowLoss  = "slow_loss"
	AdjFastLoss  = "fast_loss"
	AdjLeanLoss  = "lean_loss"
	AdjDriftUp   = "drift_up"
	AdjDriftDown = "drift_down"
	OptionHold   = "hold"
)

const evaluationWindow = 7

// Evaluator judges the trailing week of check-ins against the phase's
// progress bands and recommends calorie corrections. When two rules
// pull in opposite directions it refuses to average them away and
// hands the decision back to the coach
type Evaluator struct{}

// NewEvaluator creates new weekly evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate runs the evaluation with the default bands for the phase
func (e *Evaluator) Evaluate(profile *models.AthleteProfile, records []models.DailyRecord, phase models.PhaseState) *models.WeeklyEvaluation {
	return e.EvaluateWithTargets(profile, records, DefaultTargets(phase, profile.Sex))
}

// EvaluateWithTargets judges the last seven check-ins against explicit
// bands. Every one of the seven needs both a weight and a body fat
// reading; anything less reports insufficient and nothing else
func (e *Evaluator) EvaluateWithTargets(profile *models.AthleteProfile, records []models.DailyRecord, targets models.PhaseTargets) *models.WeeklyEvaluation {
	eval := &models.WeeklyEvaluation{
		AthleteID: profile.ID.String(),
		Phase:     targets.Phase,
		Status:    models.EvaluationInsufficient,
	}

	ordered := models.SortedByDate(records)
	if len(ordered) < evaluationWindow {
		return eval
	}

	window := ordered[len(ordered)-evaluationWindow:]
	for i := range window {
		if _, ok := window[i].Weight(); !ok {
			return eval
		}
		if _, ok := window[i].BodyFat(); !ok {
			return eval
		}
	}

	startWeight, _ := window[0].Weight()
	startBF, _ := window[0].BodyFat()
	endWeight, _ := window[len(window)-1].Weight()
	endBF, _ := window[len(window)-1].BodyFat()
	if startWeight <= 0 {
		return eval
	}

	eval.StartWeightKg = startWeight
	eval.EndWeightKg = endWeight
	eval.DeltaWeightKg = endWeight - startWeight
	eval.DeltaBodyFatPct = endBF - startBF
	eval.DeltaLeanKg = endWeight*(1-endBF/100) - startWeight*(1-startBF/100)
	eval.DeltaFatKg = endWeight*endBF/100 - startWeight*startBF/100

	adjustments := phaseRules(eval, targets, endBF)

	up, down := false, false
	for _, adj := range adjustments {
		if adj.CalorieDelta > 0 {
			up = true
		}
		if adj.CalorieDelta < 0 {
			down = true
		}
	}

	switch {
	case up && down:
		eval.Status = models.EvaluationConflict
		eval.Options = resolutionOptions(adjustments)
		eval.Summary = "progress signals disagree, pick one path and hold it for a week"
	case len(adjustments) > 0:
		sort.SliceStable(adjustments, func(i, j int) bool {
			return adjustments[i].Priority < adjustments[j].Priority
		})
		eval.Status = models.EvaluationAdjustments
		eval.Adjustments = adjustments
		eval.Summary = fmt.Sprintf("%d correction(s) recommended for %s", len(adjustments), targets.Phase.DisplayName())
	default:
		eval.Status = models.EvaluationOnTrack
		eval.Summary = fmt.Sprintf("weight %+.2f kg this week, %s on track", eval.DeltaWeightKg, targets.Phase.DisplayName())
	}

	return eval
}

// phaseRules applies the band checks for the phase. Rates are weekly
// because the window is seven daily check-ins
func phaseRules(eval *models.WeeklyEvaluation, targets models.PhaseTargets, endBF float64) []models.Adjustment {
	var adjustments []models.Adjustment

	switch targets.Phase {
	case models.PhaseBulking:
		gainPct := eval.DeltaWeightKg / eval.StartWeightKg * 100
		if gainPct < targets.GainMinPctWeek {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     2,
				Code:         AdjSlowGain,
				Description:  fmt.Sprintf("gaining %.2f%%/week, below the %.2f%% floor: add calories", gainPct, targets.GainMinPctWeek),
				CalorieDelta: 200,
			})
		}
		if gainPct > targets.GainMaxPctWeek {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     1,
				Code:         AdjFastGain,
				Description:  fmt.Sprintf("gaining %.2f%%/week, above the %.2f%% ceiling: pull calories back", gainPct, targets.GainMaxPctWeek),
				CalorieDelta: -200,
			})
		}
		if eval.DeltaFatKg > targets.FatGainCapKg {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     1,
				Code:         AdjFatGain,
				Description:  fmt.Sprintf("%.2f kg of fat gained against a %.1f kg cap: trim the surplus", eval.DeltaFatKg, targets.FatGainCapKg),
				CalorieDelta: -150,
			})
		}
		if endBF > targets.BodyFatCeilingPct {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     0,
				Code:         AdjMiniCut,
				Description:  fmt.Sprintf("body fat %.1f%% crossed the %.0f%% ceiling: run a two week mini-cut", endBF, targets.BodyFatCeilingPct),
				CalorieDelta: -300,
			})
		}

	case models.PhaseCutting:
		lossPct := -eval.DeltaWeightKg / eval.StartWeightKg * 100
		if lossPct < targets.LossMinPctWeek {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     2,
				Code:         AdjSlowLoss,
				Description:  fmt.Sprintf("losing %.2f%%/week, below the %.2f%% floor: deepen the deficit", lossPct, targets.LossMinPctWeek),
				CalorieDelta: -200,
			})
		}
		if lossPct > targets.LossMaxPctWeek {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     1,
				Code:         AdjFastLoss,
				Description:  fmt.Sprintf("losing %.2f%%/week, above the %.2f%% ceiling: ease the deficit", lossPct, targets.LossMaxPctWeek),
				CalorieDelta: 150,
			})
		}
		if -eval.DeltaLeanKg > targets.LeanLossCapKg {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     0,
				Code:         AdjLeanLoss,
				Description:  fmt.Sprintf("%.2f kg of lean mass lost against a %.1f kg cap: add calories and audit protein", -eval.DeltaLeanKg, targets.LeanLossCapKg),
				CalorieDelta: 200,
			})
		}

	case models.PhaseRecomposition, models.PhaseOffSeason:
		driftPct := eval.DeltaWeightKg / eval.StartWeightKg * 100
		if driftPct > targets.DriftBandPctWeek {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     1,
				Code:         AdjDriftUp,
				Description:  fmt.Sprintf("weight drifting up %.2f%%/week outside the ±%.2f%% band", driftPct, targets.DriftBandPctWeek),
				CalorieDelta: -150,
			})
		}
		if driftPct < -targets.DriftBandPctWeek {
			adjustments = append(adjustments, models.Adjustment{
				Priority:     2,
				Code:         AdjDriftDown,
				Description:  fmt.Sprintf("weight drifting down %.2f%%/week outside the ±%.2f%% band", driftPct, targets.DriftBandPctWeek),
				CalorieDelta: 150,
			})
		}
	}

	return adjustments
}

// resolutionOptions turns a contradictory rule set into explicit paths.
// The most urgent pull in each direction becomes an option, plus holding
// steady, so the coach always picks among two or three
func resolutionOptions(adjustments []models.Adjustment) []models.ResolutionOption {
	sorted := append([]models.Adjustment(nil), adjustments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	var options []models.ResolutionOption
	var haveUp, haveDown bool
	for _, adj := range sorted {
		if adj.CalorieDelta < 0 && !haveDown {
			haveDown = true
			options = append(options, models.ResolutionOption{
				Code:         adj.Code,
				Label:        fmt.Sprintf("Cut %d kcal", int(-adj.CalorieDelta)),
				CalorieDelta: adj.CalorieDelta,
				Description:  adj.Description,
			})
		}
		if adj.CalorieDelta > 0 && !haveUp {
			haveUp = true
			options = append(options, models.ResolutionOption{
				Code:         adj.Code,
				Label:        fmt.Sprintf("Add %d kcal", int(adj.CalorieDelta)),
				CalorieDelta: adj.CalorieDelta,
				Description:  adj.Description,
			})
		}
	}

	options = append(options, models.ResolutionOption{
		Code:        OptionHold,
		Label:       "Hold steady",
		Description: "keep current intake for another week and reassess with more data",
	})

	return options
}
