package phase

import (
	"time"

	"github.com/physiqlab/coach-bot/internal/trends"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// Season timeline constants, counted back from the competition date
const (
	PeakWeekDays         = 7   // final taper before stepping on stage
	CuttingDays          = 112 // 16 week contest prep
	PostCompRecoveryDays = 30  // structured recovery block after the show
)

// Plateau band for the normalized weekly loss rate during a cut.
// Below the lower bound the athlete is regaining, not stalling
const (
	plateauLowerBound = -0.1
	plateauUpperBound = 0.5
)

// Engine places an athlete on the season timeline: which phase they are
// in today, which phases the check-in history shows, and the projected
// path to the competition
type Engine struct {
	trends *trends.Calculator
}

// NewEngine creates new phase engine
func NewEngine() *Engine {
	return &Engine{trends: trends.NewCalculator()}
}

// Timeline reconstructs past phase spans from check-in labels and projects
// the remaining path to the competition date. The same inputs always
// produce the same timeline
func (e *Engine) Timeline(profile *models.AthleteProfile, records []models.DailyRecord, today time.Time) (*models.PhaseTimeline, error) {
	if profile.CompetitionDate.IsZero() {
		return nil, models.NewValidationError("competition_date", "required to project the season timeline")
	}

	day := models.Day(today)
	comp := models.Day(profile.CompetitionDate)
	peakStart := comp.AddDate(0, 0, -PeakWeekDays)
	cutStart := peakStart.AddDate(0, 0, -CuttingDays)

	ordered := models.SortedByDate(records)

	timeline := &models.PhaseTimeline{
		AthleteID:  profile.ID.String(),
		Today:      day,
		Historical: historicalSpans(ordered, day),
	}

	switch {
	case !comp.After(day):
		// The show already happened, everything funnels into recovery
		timeline.Current = models.PhasePostCompetition
		timeline.Projected = []models.PhaseSpan{
			{Phase: models.PhasePostCompetition, Start: day, End: day.AddDate(0, 0, PostCompRecoveryDays), Projected: true},
		}

	case !day.After(cutStart):
		offPhase := offSeasonLabel(profile, ordered)
		timeline.Current = offPhase
		timeline.Projected = []models.PhaseSpan{
			{Phase: offPhase, Start: day, End: cutStart, Projected: true},
			{Phase: models.PhaseCutting, Start: cutStart, End: peakStart, Projected: true},
			{Phase: models.PhasePeakWeek, Start: peakStart, End: comp, Projected: true},
		}

	case day.Before(peakStart):
		timeline.Current = models.PhaseCutting
		timeline.Projected = []models.PhaseSpan{
			{Phase: models.PhaseCutting, Start: day, End: peakStart, Projected: true},
			{Phase: models.PhasePeakWeek, Start: peakStart, End: comp, Projected: true},
		}

	default:
		timeline.Current = models.PhasePeakWeek
		timeline.Projected = []models.PhaseSpan{
			{Phase: models.PhasePeakWeek, Start: day, End: comp, Projected: true},
		}
	}

	timeline.Flags = e.flags(timeline.Current, ordered)

	return timeline, nil
}

// flags evaluates the trend signals that ride along with the timeline.
// Plateau detection only means something mid-cut: a flat scale during
// bulking is not a stall
func (e *Engine) flags(current models.PhaseState, records []models.DailyRecord) models.PhaseFlags {
	flags := models.PhaseFlags{
		WeightLossRatePctWeek: e.trends.WeightLossRate(records),
	}

	if trend := e.trends.HRVTrend(records); trend != nil {
		flags.HRVMean7d = models.FloatPtr(trend.Mean7d)
	}

	if current == models.PhaseCutting && flags.WeightLossRatePctWeek != nil {
		rate := *flags.WeightLossRatePctWeek
		flags.Regain = rate < plateauLowerBound
		flags.Plateau = rate >= plateauLowerBound && rate < plateauUpperBound
	}

	return flags
}

// historicalSpans run-length encodes the phase labels stored on past
// check-ins. Unlabeled or unrecognized rows are skipped. The most recent
// span is still open, so it closes at today
func historicalSpans(ordered []models.DailyRecord, today time.Time) []models.PhaseSpan {
	var spans []models.PhaseSpan

	for i := range ordered {
		state, ok := ordered[i].Phase()
		if !ok {
			continue
		}

		date := models.Day(ordered[i].Date)
		if len(spans) == 0 || spans[len(spans)-1].Phase != state {
			spans = append(spans, models.PhaseSpan{Phase: state, Start: date, End: date})
		} else {
			spans[len(spans)-1].End = date
		}
	}

	if len(spans) > 0 {
		spans[len(spans)-1].End = today
	}

	return spans
}

// offSeasonLabel picks the phase far from a competition: lean athletes
// bulk, everyone else recomps. The latest measured body fat decides;
// without any reading on file the profile target stands in, and an
// unset target recomps as the conservative call
func offSeasonLabel(profile *models.AthleteProfile, ordered []models.DailyRecord) models.PhaseState {
	ceiling := profile.Sex.BodyFatCeiling()

	for i := len(ordered) - 1; i >= 0; i-- {
		bf, ok := ordered[i].BodyFat()
		if !ok {
			continue
		}
		if bf < ceiling {
			return models.PhaseBulking
		}
		return models.PhaseRecomposition
	}

	if target := models.ToFloat64(profile.TargetBodyFatPct); target > 0 && target < ceiling {
		return models.PhaseBulking
	}
	return models.PhaseRecomposition
}
