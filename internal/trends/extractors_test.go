package trends

import (
	"math"
	"testing"
	"time"

	"github.com/physiqlab/coach-bot/pkg/models"
)

func TestCalculator_WeightLossRate(t *testing.T) {
	calc := NewCalculator()

	t.Run("two week drop from 100 to 95 halves to 2.5 percent per week", func(t *testing.T) {
		weights := make([]float64, 14)
		for i := range weights {
			weights[i] = 100 - float64(i)*5/13
		}
		weights[0] = 100
		weights[13] = 95

		rate := calc.WeightLossRate(weightRecords(weights...))
		if rate == nil {
			t.Fatal("Expected rate, got nil")
		}
		if *rate != 2.5 {
			t.Errorf("Expected exactly 2.5, got %v", *rate)
		}
	})

	t.Run("start anchors to 14th from last weigh-in", func(t *testing.T) {
		// Older noise must not shift the anchor
		weights := []float64{120, 118, 117, 116, 115, 114,
			100, 99.6, 99.2, 98.8, 98.4, 98, 97.6, 97.2, 96.8, 96.4, 96, 95.7, 95.3, 95}

		rate := calc.WeightLossRate(weightRecords(weights...))
		if rate == nil {
			t.Fatal("Expected rate, got nil")
		}
		if *rate != 2.5 {
			t.Errorf("Expected exactly 2.5, got %v", *rate)
		}
	})

	t.Run("fewer than seven weigh-ins yields nil", func(t *testing.T) {
		rate := calc.WeightLossRate(weightRecords(100, 99, 98, 97, 96, 95))
		if rate != nil {
			t.Errorf("Expected nil with 6 weigh-ins, got %v", *rate)
		}
	})

	t.Run("gaps are skipped not treated as zero", func(t *testing.T) {
		weights := []float64{100, gap, 99, gap, 98, 97, gap, 96, 95.5, 95}
		rate := calc.WeightLossRate(weightRecords(weights...))
		if rate == nil {
			t.Fatal("Expected rate despite gaps, got nil")
		}
		if *rate != 2.5 {
			t.Errorf("Expected exactly 2.5, got %v", *rate)
		}
	})

	t.Run("zero starting weight yields nil", func(t *testing.T) {
		rate := calc.WeightLossRate(weightRecords(0, 0, 0, 0, 0, 0, 0))
		if rate != nil {
			t.Errorf("Expected nil for zero start, got %v", *rate)
		}
	})

	t.Run("records are ordered by date before extraction", func(t *testing.T) {
		records := weightRecords(100, 99, 98.5, 98, 97, 96, 95)
		// Reverse the slice; dates still identify the order
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}

		rate := calc.WeightLossRate(records)
		if rate == nil {
			t.Fatal("Expected rate, got nil")
		}
		if *rate != 2.5 {
			t.Errorf("Expected exactly 2.5 after reordering, got %v", *rate)
		}
	})
}

func TestCalculator_HRVTrend(t *testing.T) {
	calc := NewCalculator()

	t.Run("fewer than three readings yields nil", func(t *testing.T) {
		trend := calc.HRVTrend(hrvRecords(62, 64))
		if trend != nil {
			t.Errorf("Expected nil with 2 readings, got %+v", trend)
		}
	})

	t.Run("three readings give mean without stability class", func(t *testing.T) {
		trend := calc.HRVTrend(hrvRecords(60, 62, 64))
		if trend == nil {
			t.Fatal("Expected trend, got nil")
		}
		if trend.Mean7d != 62 {
			t.Errorf("Expected mean 62, got %v", trend.Mean7d)
		}
		if trend.CV != nil {
			t.Errorf("Expected no CV with 3 readings, got %v", *trend.CV)
		}
		if trend.Status != "" {
			t.Errorf("Expected empty status, got %s", trend.Status)
		}
	})

	t.Run("mean uses only the trailing seven readings", func(t *testing.T) {
		hrvs := []float64{999, 999, 999, 60, 60, 60, 60, 60, 60, 60}
		trend := calc.HRVTrend(hrvRecords(hrvs...))
		if trend == nil {
			t.Fatal("Expected trend, got nil")
		}
		if trend.Mean7d != 60 {
			t.Errorf("Expected mean 60 from trailing window, got %v", trend.Mean7d)
		}
	})

	t.Run("stability classes", func(t *testing.T) {
		cases := []struct {
			name   string
			hrvs   []float64
			status string
		}{
			{"tight series is stable", []float64{98, 99, 100, 101, 102}, HRVStable},
			{"moderate swing", []float64{88, 94, 100, 106, 112}, HRVModerate},
			{"wide swing is unstable", []float64{80, 90, 100, 110, 120}, HRVUnstable},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				trend := calc.HRVTrend(hrvRecords(tc.hrvs...))
				if trend == nil {
					t.Fatal("Expected trend, got nil")
				}
				if trend.CV == nil {
					t.Fatal("Expected CV with 5 readings")
				}
				if trend.Status != tc.status {
					t.Errorf("Expected %s, got %s (cv=%.2f)", tc.status, trend.Status, *trend.CV)
				}
			})
		}
	})

	t.Run("coefficient uses sample deviation", func(t *testing.T) {
		// n-1 denominator: [88 94 100 106 112] has sd sqrt(90)
		trend := calc.HRVTrend(hrvRecords(88, 94, 100, 106, 112))
		if trend == nil || trend.CV == nil {
			t.Fatal("Expected trend with CV")
		}
		want := math.Sqrt(90)
		if math.Abs(*trend.CV-want) > 1e-9 {
			t.Errorf("Expected CV %.6f, got %.6f", want, *trend.CV)
		}
	})
}

func TestCalculator_ACWR(t *testing.T) {
	calc := NewCalculator()

	t.Run("steady training sits at exactly one", func(t *testing.T) {
		loads := make([]float64, 35)
		for i := range loads {
			loads[i] = 500
		}

		result := calc.ACWR(loadRecords(loads...))
		if result == nil {
			t.Fatal("Expected result, got nil")
		}
		if result.Value != 1.0 {
			t.Errorf("Expected exactly 1.0, got %v", result.Value)
		}
		if result.Status != ACWRSafe {
			t.Errorf("Expected %s, got %s", ACWRSafe, result.Status)
		}
	})

	t.Run("ratio is invariant under load rescaling", func(t *testing.T) {
		loads := []float64{300, 420, 380, 510, 450, 390, 480, 520, 310, 400,
			460, 350, 430, 470, 500, 360, 410, 440, 490, 370,
			330, 455, 415, 475, 385, 525, 445, 395}
		scaled := make([]float64, len(loads))
		for i, l := range loads {
			scaled[i] = l * 3
		}

		base := calc.ACWR(loadRecords(loads...))
		tripled := calc.ACWR(loadRecords(scaled...))
		if base == nil || tripled == nil {
			t.Fatal("Expected results for both series")
		}
		if math.Abs(base.Value-tripled.Value) > 1e-9 {
			t.Errorf("Expected scale-invariant ratio, got %v vs %v", base.Value, tripled.Value)
		}
	})

	t.Run("risk bands", func(t *testing.T) {
		cases := []struct {
			name   string
			early  float64
			late   float64
			status string
		}{
			{"sharp taper undertrains", 1000, 100, ACWRUndertraining},
			{"moderate ramp is caution", 340, 560, ACWRCaution},
			{"spike is danger", 100, 1000, ACWRDanger},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				loads := make([]float64, 28)
				for i := range loads {
					if i < 21 {
						loads[i] = tc.early
					} else {
						loads[i] = tc.late
					}
				}

				result := calc.ACWR(loadRecords(loads...))
				if result == nil {
					t.Fatal("Expected result, got nil")
				}
				if result.Status != tc.status {
					t.Errorf("Expected %s, got %s (acwr=%.3f)", tc.status, result.Status, result.Value)
				}
			})
		}
	})

	t.Run("fewer than seven loads yields nil", func(t *testing.T) {
		result := calc.ACWR(loadRecords(500, 500, 500, 500, 500, 500))
		if result != nil {
			t.Errorf("Expected nil with 6 loads, got %+v", result)
		}
	})

	t.Run("zero chronic load yields nil", func(t *testing.T) {
		result := calc.ACWR(loadRecords(0, 0, 0, 0, 0, 0, 0))
		if result != nil {
			t.Errorf("Expected nil for zero chronic, got %+v", result)
		}
	})

	t.Run("chronic window spans at most 28 loads", func(t *testing.T) {
		// 40 loads: ancient heavy block beyond the window must not count
		loads := make([]float64, 40)
		for i := range loads {
			if i < 12 {
				loads[i] = 5000
			} else {
				loads[i] = 500
			}
		}

		result := calc.ACWR(loadRecords(loads...))
		if result == nil {
			t.Fatal("Expected result, got nil")
		}
		if result.Value != 1.0 {
			t.Errorf("Expected 1.0 once old block ages out, got %v", result.Value)
		}
	})
}

// gap marks a day where the measurement was skipped
var gap = math.NaN()

func weightRecords(values ...float64) []models.DailyRecord {
	return testRecords(values, func(r *models.DailyRecord, v float64) {
		r.WeightKg = models.NewNullDecimal(v)
	})
}

func hrvRecords(values ...float64) []models.DailyRecord {
	return testRecords(values, func(r *models.DailyRecord, v float64) {
		r.HRV = models.NewNullDecimal(v)
	})
}

func loadRecords(values ...float64) []models.DailyRecord {
	return testRecords(values, func(r *models.DailyRecord, v float64) {
		r.TrainingLoad = models.NewNullDecimal(v)
	})
}

func testRecords(values []float64, set func(*models.DailyRecord, float64)) []models.DailyRecord {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]models.DailyRecord, len(values))
	for i, v := range values {
		records[i] = models.DailyRecord{Date: base.AddDate(0, 0, i)}
		if !math.IsNaN(v) {
			set(&records[i], v)
		}
	}
	return records
}
