package models

// RecoveryStatus classifies accumulated fatigue into a training decision
type RecoveryStatus string

const (
	RecoverySevereFatigue      RecoveryStatus = "severe_fatigue"
	RecoveryIncompleteRecovery RecoveryStatus = "incomplete_recovery"
	RecoveryFullyRecovered     RecoveryStatus = "fully_recovered"
)

// Action returns the prescribed session for the status
func (s RecoveryStatus) Action() string {
	switch s {
	case RecoverySevereFatigue:
		return "full rest day"
	case RecoveryIncompleteRecovery:
		return "zone-2 cardio only, no resistance training"
	case RecoveryFullyRecovered:
		return "train as planned"
	}
	return "train as planned"
}

// RecoverySnapshot is the per-day readiness input. Pointers distinguish
// a missing measurement from a legitimate zero
type RecoverySnapshot struct {
	BaselineHRV   *float64 `json:"baseline_hrv"`
	CurrentHRV    *float64 `json:"current_hrv"`
	SleepScore    *int     `json:"sleep_score"`
	RecoveryHours *int     `json:"recovery_hours"`
	RestingHR     *int     `json:"resting_hr"`
}

// RecoveryDecision is the readiness verdict for one training day
type RecoveryDecision struct {
	Status         RecoveryStatus `json:"status"`
	Action         string         `json:"action"`
	FatiguePoints  int            `json:"fatigue_points"`
	Rationale      []string       `json:"rationale"`
	MetricsSummary string         `json:"metrics_summary"`
	ACWR           *float64       `json:"acwr"`
	ACWRStatus     string         `json:"acwr_status"`
	HRVCV          *float64       `json:"hrv_cv"`
	HRVCVStatus    string         `json:"hrv_cv_status"`
}
