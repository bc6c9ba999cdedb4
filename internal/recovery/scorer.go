package recovery

import (
	"fmt"
	"strings"

	"github.com/physiqlab/coach-bot/internal/trends"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// Fatigue point weights. HRV suppression dominates because it reacts
// first; the rest corroborate
const (
	hrvDropSeverePct = 20.0
	hrvDropModPct    = 10.0
	hrvDropSeverePts = 3
	hrvDropModPts    = 2
	sleepPoorScore   = 50
	sleepMehScore    = 70
	sleepPoorPts     = 2
	sleepMehPts      = 1
	recoveryLongHrs  = 48
	recoveryShortHrs = 36
	recoveryLongPts  = 2
	recoveryShortPts = 1
	acwrDangerPts    = 1
	hrvUnstablePts   = 1
	severeThreshold  = 5
	incompleteCutoff = 3
)

// Scorer turns the morning readiness picture into a train/modify/rest
// decision by accumulating fatigue points across independent signals
type Scorer struct {
	trends *trends.Calculator
}

// NewScorer creates new recovery scorer
func NewScorer() *Scorer {
	return &Scorer{trends: trends.NewCalculator()}
}

// BuildSnapshot assembles the readiness inputs: the baseline comes from
// the profile, everything else from the latest check-in only. A reading
// skipped today is missing today, older values do not stand in
func BuildSnapshot(profile *models.AthleteProfile, records []models.DailyRecord) models.RecoverySnapshot {
	snapshot := models.RecoverySnapshot{}

	if baseline, ok := profile.BaselineHRVValue(); ok {
		snapshot.BaselineHRV = models.FloatPtr(baseline)
	}

	ordered := models.SortedByDate(records)
	if len(ordered) == 0 {
		return snapshot
	}

	latest := ordered[len(ordered)-1]
	if hrv, ok := latest.HRVValue(); ok {
		snapshot.CurrentHRV = models.FloatPtr(hrv)
	}
	if sleep, ok := latest.Sleep(); ok {
		snapshot.SleepScore = models.IntPtr(sleep)
	}
	if hours, ok := latest.RecoveryHours(); ok {
		snapshot.RecoveryHours = models.IntPtr(hours)
	}
	if latest.RestingHR.Valid {
		snapshot.RestingHR = models.IntPtr(int(latest.RestingHR.Int64))
	}

	return snapshot
}

// Score accumulates fatigue points from the snapshot and the workload
// history, then maps the total to a training decision
func (s *Scorer) Score(snapshot models.RecoverySnapshot, records []models.DailyRecord) *models.RecoveryDecision {
	points := 0
	var rationale []string
	var summary []string

	// HRV suppression against the athlete's own baseline
	switch {
	case snapshot.BaselineHRV == nil || *snapshot.BaselineHRV <= 0:
		summary = append(summary, "no usable HRV baseline, suppression not scored")
	case snapshot.CurrentHRV == nil:
		summary = append(summary, "no HRV reading today, suppression not scored")
	default:
		drop := (*snapshot.BaselineHRV - *snapshot.CurrentHRV) / *snapshot.BaselineHRV * 100
		summary = append(summary, fmt.Sprintf("hrv %.0f vs baseline %.0f", *snapshot.CurrentHRV, *snapshot.BaselineHRV))
		switch {
		case drop >= hrvDropSeverePct:
			points += hrvDropSeverePts
			rationale = append(rationale, fmt.Sprintf("HRV %.1f%% below baseline (+%d)", drop, hrvDropSeverePts))
		case drop >= hrvDropModPct:
			points += hrvDropModPts
			rationale = append(rationale, fmt.Sprintf("HRV %.1f%% below baseline (+%d)", drop, hrvDropModPts))
		}
	}

	if snapshot.SleepScore != nil {
		sleep := *snapshot.SleepScore
		summary = append(summary, fmt.Sprintf("sleep %d", sleep))
		switch {
		case sleep < sleepPoorScore:
			points += sleepPoorPts
			rationale = append(rationale, fmt.Sprintf("sleep score %d (+%d)", sleep, sleepPoorPts))
		case sleep < sleepMehScore:
			points += sleepMehPts
			rationale = append(rationale, fmt.Sprintf("sleep score %d (+%d)", sleep, sleepMehPts))
		}
	}

	if snapshot.RecoveryHours != nil {
		hours := *snapshot.RecoveryHours
		summary = append(summary, fmt.Sprintf("recovery %dh", hours))
		switch {
		case hours >= recoveryLongHrs:
			points += recoveryLongPts
			rationale = append(rationale, fmt.Sprintf("%dh since last session (+%d)", hours, recoveryLongPts))
		case hours >= recoveryShortHrs:
			points += recoveryShortPts
			rationale = append(rationale, fmt.Sprintf("%dh since last session (+%d)", hours, recoveryShortPts))
		}
	}

	decision := &models.RecoveryDecision{}

	if acwr := s.trends.ACWR(records); acwr != nil {
		decision.ACWR = models.FloatPtr(acwr.Value)
		decision.ACWRStatus = acwr.Status
		summary = append(summary, fmt.Sprintf("acwr %.2f (%s)", acwr.Value, acwr.Status))
		if acwr.Status == trends.ACWRDanger {
			points += acwrDangerPts
			rationale = append(rationale, fmt.Sprintf("workload ratio %.2f in the danger band (+%d)", acwr.Value, acwrDangerPts))
		}
	}

	if trend := s.trends.HRVTrend(records); trend != nil && trend.CV != nil {
		decision.HRVCV = trend.CV
		decision.HRVCVStatus = trend.Status
		summary = append(summary, fmt.Sprintf("hrv cv %.1f%% (%s)", *trend.CV, trend.Status))
		if trend.Status == trends.HRVUnstable {
			points += hrvUnstablePts
			rationale = append(rationale, fmt.Sprintf("HRV variation %.1f%% is unstable (+%d)", *trend.CV, hrvUnstablePts))
		}
	}

	decision.FatiguePoints = points
	decision.Rationale = rationale
	decision.MetricsSummary = strings.Join(summary, ", ")

	switch {
	case points >= severeThreshold:
		decision.Status = models.RecoverySevereFatigue
	case points >= incompleteCutoff:
		decision.Status = models.RecoveryIncompleteRecovery
	default:
		decision.Status = models.RecoveryFullyRecovered
	}
	decision.Action = decision.Status.Action()

	return decision
}
