package nutrition

import (
	"fmt"
	"math"

	"github.com/physiqlab/coach-bot/pkg/models"
)

// Energy baseline constants. Resting rate is Katch-McArdle, driven by
// lean mass rather than total weight
const (
	bmrBaseKcal    = 370.0
	bmrPerKgLean   = 21.6
	activityFactor = 1.55
)

// Adaptive thermogenesis: after four free weeks every further week in a
// deficit shaves 15 kcal off the baseline, capped at 200
const (
	suppressionFreeWeeks = 4
	suppressionPerWeek   = 15.0
	suppressionCapKcal   = 200.0
)

// Losing faster than 1 percent of body weight per week costs muscle;
// the guard adds calories back before any phase math
const (
	rapidLossThresholdPctWeek = 1.0
	rapidLossGuardKcal        = 100.0
)

// Phase calorie offsets and macro coefficients
const (
	carbFloorG = 50.0

	bulkSurplusKcal    = 300.0
	bulkSurplusPEDKcal = 500.0
	bulkProteinPerKg   = 2.2
	bulkProteinPEDKg   = 2.8
	bulkFatPerKgWeight = 1.0

	cutDeficitKcal     = 500.0
	plateauDeficitKcal = 650.0
	cutProteinPerKg    = 3.1
	cutFatPerKgWeight  = 0.7

	peakDepletionCarbsG   = 50.0
	peakDepletionProtein  = 3.0
	peakDepletionFat      = 0.8
	peakLoadingCarbsPerKg = 8.0
	peakLoadingProtein    = 2.0
	peakLoadingFat        = 0.4
	peakFinalProtein      = 3.0
	peakFinalFat          = 0.4

	recompDeficitKcal    = 200.0
	recompProteinPerKg   = 2.5
	recompFatPerKgWeight = 0.9
)

// Engine prescribes a seven day calorie and macro plan for the phase the
// athlete is in. All prescriptions start from the same adjusted energy
// baseline: maintenance minus adaptive suppression plus the rapid-loss
// guard, in that order
type Engine struct{}

// NewEngine creates new nutrition engine
func NewEngine() *Engine {
	return &Engine{}
}

// Plan builds the weekly macro table for the timeline's current phase.
// It needs a positive weight and body fat on file and fails with a
// validation error otherwise
func (e *Engine) Plan(profile *models.AthleteProfile, records []models.DailyRecord, timeline *models.PhaseTimeline) (*models.MacroTable, error) {
	ordered := models.SortedByDate(records)

	weight, bodyFat, err := latestMeasurements(ordered)
	if err != nil {
		return nil, err
	}

	lean := weight * (1 - bodyFat/100)
	bmr := bmrBaseKcal + bmrPerKgLean*lean
	maintenance := bmr * activityFactor

	alerts := map[string]string{
		models.AlertEnergyBaseline: fmt.Sprintf(
			"BMR %d kcal from %.1f kg lean mass, maintenance %d kcal at activity factor %.2f",
			roundToInt(bmr), lean, roundToInt(maintenance), activityFactor),
	}

	weeks, deficitRows := weeksInDeficit(ordered)
	suppression := suppressionKcal(weeks)
	if suppression > 0 {
		alerts[models.AlertMetabolicSuppression] = fmt.Sprintf(
			"%d consecutive weeks in a deficit (%d check-ins), baseline lowered by %d kcal",
			weeks, deficitRows, roundToInt(suppression))
	}

	adjusted := maintenance - suppression

	if rate := timeline.Flags.WeightLossRatePctWeek; rate != nil && *rate > rapidLossThresholdPctWeek {
		adjusted += rapidLossGuardKcal
		alerts[models.AlertCalorieAdjustment] = fmt.Sprintf(
			"losing %.2f%% of body weight per week, %d kcal added back to protect lean mass",
			*rate, int(rapidLossGuardKcal))
	}

	table := &models.MacroTable{
		Phase:            timeline.Current,
		MaintenanceKcal:  roundToInt(maintenance),
		AdjustedBaseKcal: roundToInt(adjusted),
		SuppressionKcal:  roundToInt(suppression),
		WeeksInDeficit:   weeks,
		Alerts:           alerts,
	}

	switch timeline.Current {
	case models.PhaseBulking:
		table.Days = bulkingDays(adjusted, weight, lean, profile.PEDUse)
	case models.PhaseCutting:
		table.Days = cuttingDays(adjusted, weight, lean, timeline.Flags.Plateau, alerts)
	case models.PhasePeakWeek:
		table.Days = peakWeekDays(adjusted, weight)
	default:
		// Recomposition, off-season and post-competition share a gentle
		// deficit around maintenance
		table.Days = recompDays(adjusted, weight, lean)
	}

	return table, nil
}

// bulkingDays prescribes a flat surplus week. Enhanced athletes can
// productively absorb a larger surplus and more protein
func bulkingDays(adjusted, weight, lean float64, pedUse bool) []models.MacroDay {
	surplus := bulkSurplusKcal
	proteinPerKg := bulkProteinPerKg
	if pedUse {
		surplus = bulkSurplusPEDKcal
		proteinPerKg = bulkProteinPEDKg
	}

	calories := adjusted + surplus
	protein := proteinPerKg * lean
	fat := bulkFatPerKgWeight * weight
	carbs := backSolveCarbs(calories, protein, fat)

	days := make([]models.MacroDay, 7)
	for i := range days {
		days[i] = macroDay(i+1, models.StrategySurplus, calories, protein, carbs, fat)
	}
	return days
}

// cuttingDays prescribes five deficit days and two refeed days at the
// adjusted maintenance. Refeeds add back the deficit as carbohydrate
// only; protein and fat stay fixed across the week
func cuttingDays(adjusted, weight, lean float64, plateau bool, alerts map[string]string) []models.MacroDay {
	deficit := cutDeficitKcal
	if plateau {
		deficit = plateauDeficitKcal
		alerts[models.AlertPlateauProtocol] = fmt.Sprintf(
			"weight loss stalled, deficit deepened to %d kcal with refeed days preserved", int(plateauDeficitKcal))
	}

	lowCalories := adjusted - deficit
	protein := cutProteinPerKg * lean
	fat := cutFatPerKgWeight * weight
	lowCarbs := backSolveCarbs(lowCalories, protein, fat)
	refeedCarbs := lowCarbs + deficit/4

	days := make([]models.MacroDay, 7)
	for i := 0; i < 5; i++ {
		days[i] = macroDay(i+1, models.StrategyDeficit, lowCalories, protein, lowCarbs, fat)
	}
	for i := 5; i < 7; i++ {
		days[i] = macroDay(i+1, models.StrategyRefeed, adjusted, protein, refeedCarbs, fat)
	}
	return days
}

// peakWeekDays prescribes the stage-week manipulation: three depletion
// days, two days of aggressive carb loading, then two controlled days
// into the show. Peak week doses protein and fat on total weight since
// lean mass estimates drift with glycogen
func peakWeekDays(adjusted, weight float64) []models.MacroDay {
	days := make([]models.MacroDay, 7)

	depProtein := peakDepletionProtein * weight
	depFat := peakDepletionFat * weight
	depCalories := depProtein*4 + peakDepletionCarbsG*4 + depFat*9
	for i := 0; i < 3; i++ {
		days[i] = macroDay(i+1, models.StrategyDepletion, depCalories, depProtein, peakDepletionCarbsG, depFat)
	}

	loadCarbs := peakLoadingCarbsPerKg * weight
	loadProtein := peakLoadingProtein * weight
	loadFat := peakLoadingFat * weight
	loadCalories := loadProtein*4 + loadCarbs*4 + loadFat*9
	for i := 3; i < 5; i++ {
		days[i] = macroDay(i+1, models.StrategyCarbLoading, loadCalories, loadProtein, loadCarbs, loadFat)
	}

	finalProtein := peakFinalProtein * weight
	finalFat := peakFinalFat * weight
	finalCarbs := backSolveCarbs(adjusted, finalProtein, finalFat)
	days[5] = macroDay(6, models.StrategySpilloverCtrl, adjusted, finalProtein, finalCarbs, finalFat)
	days[6] = macroDay(7, models.StrategyShowDay, adjusted, finalProtein, finalCarbs, finalFat)

	return days
}

// recompDays prescribes a light deficit that lets fat fund muscle
func recompDays(adjusted, weight, lean float64) []models.MacroDay {
	calories := adjusted - recompDeficitKcal
	protein := recompProteinPerKg * lean
	fat := recompFatPerKgWeight * weight
	carbs := backSolveCarbs(calories, protein, fat)

	days := make([]models.MacroDay, 7)
	for i := range days {
		days[i] = macroDay(i+1, models.StrategyMaintenance, calories, protein, carbs, fat)
	}
	return days
}

// latestMeasurements finds the most recent logged weight and body fat.
// The two can come from different days
func latestMeasurements(ordered []models.DailyRecord) (float64, float64, error) {
	var weight, bodyFat float64
	foundWeight, foundBodyFat := false, false

	for i := len(ordered) - 1; i >= 0 && (!foundWeight || !foundBodyFat); i-- {
		if !foundWeight {
			if w, ok := ordered[i].Weight(); ok {
				weight, foundWeight = w, true
			}
		}
		if !foundBodyFat {
			if bf, ok := ordered[i].BodyFat(); ok {
				bodyFat, foundBodyFat = bf, true
			}
		}
	}

	if !foundWeight || weight <= 0 {
		return 0, 0, models.NewValidationError("weight_kg", "a positive weight measurement is required")
	}
	if !foundBodyFat || bodyFat <= 0 || bodyFat >= 100 {
		return 0, 0, models.NewValidationError("body_fat_pct", "a body fat measurement between 0 and 100 is required")
	}

	return weight, bodyFat, nil
}

// weeksInDeficit counts how long the current cut has run: consecutive
// cutting-labeled check-ins scanned backward from the latest. Unlabeled
// days do not interrupt the streak, any other phase label does
func weeksInDeficit(ordered []models.DailyRecord) (int, int) {
	rows := 0
	for i := len(ordered) - 1; i >= 0; i-- {
		state, ok := ordered[i].Phase()
		if !ok {
			continue
		}
		if state != models.PhaseCutting {
			break
		}
		rows++
	}
	return rows / 7, rows
}

func suppressionKcal(weeks int) float64 {
	over := float64(weeks-suppressionFreeWeeks) * suppressionPerWeek
	if over <= 0 {
		return 0
	}
	return math.Min(over, suppressionCapKcal)
}

// backSolveCarbs fills the remaining calories with carbohydrate, never
// below the cognitive floor
func backSolveCarbs(calories, proteinG, fatG float64) float64 {
	carbs := (calories - proteinG*4 - fatG*9) / 4
	if carbs < carbFloorG {
		return carbFloorG
	}
	return carbs
}

func macroDay(day int, strategy string, calories, protein, carbs, fat float64) models.MacroDay {
	return models.MacroDay{
		Day:      day,
		Strategy: strategy,
		Calories: roundToInt(calories),
		ProteinG: roundToInt(protein),
		CarbsG:   roundToInt(carbs),
		FatG:     roundToInt(fat),
	}
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}
