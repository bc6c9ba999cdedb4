package trends

import (
	"math"

	"github.com/cinar/indicator"

	"github.com/physiqlab/coach-bot/pkg/models"
)

// ACWR status bands
const (
	ACWRUndertraining = "undertraining"
	ACWRSafe          = "safe"
	ACWRCaution       = "caution"
	ACWRDanger        = "danger"
)

// HRV coefficient-of-variation stability classes
const (
	HRVStable   = "stable"
	HRVModerate = "moderate"
	HRVUnstable = "unstable"
)

// HRVTrend is the autonomic trend over the trailing week of readings
type HRVTrend struct {
	Mean7d float64  `json:"mean_7d"`
	CV     *float64 `json:"cv,omitempty"`
	Status string   `json:"status,omitempty"`
}

// ACWRResult is the acute:chronic workload ratio with its risk band
type ACWRResult struct {
	Value   float64 `json:"value"`
	Acute   float64 `json:"acute"`
	Chronic float64 `json:"chronic"`
	Status  string  `json:"status"`
}

// Calculator derives trend signals from daily check-in history.
// Every method tolerates gaps: missing measurements are skipped, and a
// series too short to be meaningful yields nil instead of a guess
type Calculator struct{}

// NewCalculator creates new trend calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// WeightLossRate returns the normalized weekly weight change as a percent
// of the two-week starting weight, positive when losing. The two-week
// window needs at least 7 weigh-ins; otherwise nil
func (c *Calculator) WeightLossRate(records []models.DailyRecord) *float64 {
	weights := weightSeries(records)
	if len(weights) < 7 {
		return nil
	}

	start := weights[max(0, len(weights)-14)]
	end := weights[len(weights)-1]
	if start == 0 {
		return nil
	}

	rate := (start - end) / start * 100 / 2
	return &rate
}

// HRVTrend returns the 7-day HRV mean and its coefficient of variation.
// The mean needs at least 3 readings, the CV at least 5; with 3 or 4
// readings the trend carries a mean but no stability class
func (c *Calculator) HRVTrend(records []models.DailyRecord) *HRVTrend {
	hrvs := hrvSeries(records)
	if len(hrvs) < 3 {
		return nil
	}

	sma := indicator.Sma(7, hrvs)
	trend := &HRVTrend{Mean7d: sma[len(sma)-1]}

	if len(hrvs) < 5 || trend.Mean7d == 0 {
		return trend
	}

	window := hrvs[max(0, len(hrvs)-7):]
	cv := sampleStdDev(window) / trend.Mean7d * 100
	trend.CV = &cv

	switch {
	case cv > 10:
		trend.Status = HRVUnstable
	case cv > 7:
		trend.Status = HRVModerate
	default:
		trend.Status = HRVStable
	}

	return trend
}

// ACWR returns the acute (7-day) to chronic (28-day) workload ratio.
// The chronic window includes the acute one, so a perfectly steady
// athlete sits at exactly 1.0. Needs at least 7 logged loads
func (c *Calculator) ACWR(records []models.DailyRecord) *ACWRResult {
	loads := loadSeries(records)
	if len(loads) < 7 {
		return nil
	}

	acuteSma := indicator.Sma(7, loads)
	chronicSma := indicator.Sma(28, loads)
	acute := acuteSma[len(acuteSma)-1]
	chronic := chronicSma[len(chronicSma)-1]
	if chronic == 0 {
		return nil
	}

	result := &ACWRResult{
		Value:   acute / chronic,
		Acute:   acute,
		Chronic: chronic,
	}

	switch {
	case result.Value < 0.8:
		result.Status = ACWRUndertraining
	case result.Value <= 1.3:
		result.Status = ACWRSafe
	case result.Value <= 1.5:
		result.Status = ACWRCaution
	default:
		result.Status = ACWRDanger
	}

	return result
}

// WeightSeries returns the date-ordered logged weights, gaps skipped
func (c *Calculator) WeightSeries(records []models.DailyRecord) []float64 {
	return weightSeries(records)
}

// HRVSeries returns the date-ordered logged HRV readings, gaps skipped
func (c *Calculator) HRVSeries(records []models.DailyRecord) []float64 {
	return hrvSeries(records)
}

// LoadSeries returns the date-ordered logged training loads, gaps skipped
func (c *Calculator) LoadSeries(records []models.DailyRecord) []float64 {
	return loadSeries(records)
}

// Helper functions

func weightSeries(records []models.DailyRecord) []float64 {
	return series(records, func(r *models.DailyRecord) (float64, bool) { return r.Weight() })
}

func hrvSeries(records []models.DailyRecord) []float64 {
	return series(records, func(r *models.DailyRecord) (float64, bool) { return r.HRVValue() })
}

func loadSeries(records []models.DailyRecord) []float64 {
	return series(records, func(r *models.DailyRecord) (float64, bool) { return r.Load() })
}

func series(records []models.DailyRecord, get func(*models.DailyRecord) (float64, bool)) []float64 {
	ordered := models.SortedByDate(records)
	values := make([]float64, 0, len(ordered))
	for i := range ordered {
		if v, ok := get(&ordered[i]); ok {
			values = append(values, v)
		}
	}
	return values
}

// sampleStdDev is the n-1 denominator standard deviation
func sampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n - 1)

	return math.Sqrt(variance)
}
