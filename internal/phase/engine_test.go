package phase

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/physiqlab/coach-bot/pkg/models"
)

func TestEngine_Timeline_SeasonBoundaries(t *testing.T) {
	engine := NewEngine()
	comp := time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)
	profile := testProfile(models.SexMale, comp)

	// One lean reading so the off-season label resolves to bulking
	records := []models.DailyRecord{
		dailyRecord(comp.AddDate(0, 0, -130), 82, 12, ""),
	}

	t.Run("119 days out is still off-season with three projected spans", func(t *testing.T) {
		today := comp.AddDate(0, 0, -119)

		timeline, err := engine.Timeline(profile, records, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Current != models.PhaseBulking {
			t.Errorf("Expected bulking at 119 days out, got %s", timeline.Current)
		}
		if len(timeline.Projected) != 3 {
			t.Fatalf("Expected 3 projected spans, got %d", len(timeline.Projected))
		}

		phases := []models.PhaseState{
			timeline.Projected[0].Phase,
			timeline.Projected[1].Phase,
			timeline.Projected[2].Phase,
		}
		want := []models.PhaseState{models.PhaseBulking, models.PhaseCutting, models.PhasePeakWeek}
		if !reflect.DeepEqual(phases, want) {
			t.Errorf("Expected projection %v, got %v", want, phases)
		}

		if !timeline.Projected[2].End.Equal(comp) {
			t.Errorf("Expected projection to end on competition day, got %s", timeline.Projected[2].End)
		}
	})

	t.Run("118 days out the cut has started", func(t *testing.T) {
		today := comp.AddDate(0, 0, -118)

		timeline, err := engine.Timeline(profile, records, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Current != models.PhaseCutting {
			t.Errorf("Expected cutting at 118 days out, got %s", timeline.Current)
		}
		if len(timeline.Projected) != 2 {
			t.Errorf("Expected 2 projected spans, got %d", len(timeline.Projected))
		}
	})

	t.Run("seven days out is peak week", func(t *testing.T) {
		today := comp.AddDate(0, 0, -7)

		timeline, err := engine.Timeline(profile, records, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Current != models.PhasePeakWeek {
			t.Errorf("Expected peak week, got %s", timeline.Current)
		}
		if len(timeline.Projected) != 1 {
			t.Fatalf("Expected 1 projected span, got %d", len(timeline.Projected))
		}
		if !timeline.Projected[0].End.Equal(comp) {
			t.Errorf("Expected peak span to end on competition day, got %s", timeline.Projected[0].End)
		}
	})

	t.Run("competition day flips to post-competition", func(t *testing.T) {
		timeline, err := engine.Timeline(profile, records, comp)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Current != models.PhasePostCompetition {
			t.Errorf("Expected post-competition, got %s", timeline.Current)
		}
		if len(timeline.Projected) != 1 {
			t.Fatalf("Expected single recovery span, got %d", len(timeline.Projected))
		}

		span := timeline.Projected[0]
		if span.Phase != models.PhasePostCompetition {
			t.Errorf("Expected post-competition span, got %s", span.Phase)
		}
		if !span.End.Equal(models.Day(comp).AddDate(0, 0, PostCompRecoveryDays)) {
			t.Errorf("Expected 30 day recovery span, got end %s", span.End)
		}
	})

	t.Run("past competition date stays post-competition regardless of labels", func(t *testing.T) {
		today := comp.AddDate(0, 0, 14)
		labeled := []models.DailyRecord{
			dailyRecord(comp.AddDate(0, 0, -10), 80, 6, "Cutting"),
		}

		timeline, err := engine.Timeline(profile, labeled, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}
		if timeline.Current != models.PhasePostCompetition {
			t.Errorf("Expected post-competition, got %s", timeline.Current)
		}
	})
}

func TestEngine_Timeline_OffSeasonLabel(t *testing.T) {
	engine := NewEngine()
	comp := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)
	today := comp.AddDate(0, 0, -200)

	cases := []struct {
		name string
		sex  models.Sex
		bf   float64
		want models.PhaseState
	}{
		{"lean male bulks", models.SexMale, 12, models.PhaseBulking},
		{"male at ceiling recomps", models.SexMale, 15, models.PhaseRecomposition},
		{"soft male recomps", models.SexMale, 18, models.PhaseRecomposition},
		{"lean female bulks", models.SexFemale, 18, models.PhaseBulking},
		{"soft female recomps", models.SexFemale, 24, models.PhaseRecomposition},
		{"no body fat on file falls back to the lean target", models.SexMale, 0, models.PhaseBulking},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := testProfile(tc.sex, comp)
			var records []models.DailyRecord
			if tc.bf > 0 {
				records = append(records, dailyRecord(today.AddDate(0, 0, -1), 80, tc.bf, ""))
			}

			timeline, err := engine.Timeline(profile, records, today)
			if err != nil {
				t.Fatalf("Timeline failed: %v", err)
			}
			if timeline.Current != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, timeline.Current)
			}
		})
	}

	t.Run("latest reading wins", func(t *testing.T) {
		profile := testProfile(models.SexMale, comp)
		records := []models.DailyRecord{
			dailyRecord(today.AddDate(0, 0, -30), 80, 19, ""),
			dailyRecord(today.AddDate(0, 0, -1), 78, 13, ""),
		}

		timeline, err := engine.Timeline(profile, records, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}
		if timeline.Current != models.PhaseBulking {
			t.Errorf("Expected bulking from latest reading, got %s", timeline.Current)
		}
	})

	t.Run("a measured reading beats the profile target", func(t *testing.T) {
		profile := testProfile(models.SexMale, comp)
		records := []models.DailyRecord{
			dailyRecord(today.AddDate(0, 0, -1), 84, 17, ""),
		}

		timeline, err := engine.Timeline(profile, records, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}
		if timeline.Current != models.PhaseRecomposition {
			t.Errorf("Expected recomposition from the measurement, got %s", timeline.Current)
		}
	})

	t.Run("unset target without readings recomps", func(t *testing.T) {
		profile := testProfile(models.SexMale, comp)
		profile.TargetBodyFatPct = models.NewDecimal(0)

		timeline, err := engine.Timeline(profile, nil, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}
		if timeline.Current != models.PhaseRecomposition {
			t.Errorf("Expected recomposition without any body fat signal, got %s", timeline.Current)
		}
	})
}

func TestEngine_Timeline_HistoricalSpans(t *testing.T) {
	engine := NewEngine()
	comp := time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)
	profile := testProfile(models.SexMale, comp)
	base := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	today := base.AddDate(0, 0, 10)

	labels := []string{"Bulking", "bulking", "", "Cutting", "cutting", "Pre-Contest", "", "Peak Week"}
	records := make([]models.DailyRecord, len(labels))
	for i, label := range labels {
		records[i] = dailyRecord(base.AddDate(0, 0, i), 80, 10, label)
	}

	timeline, err := engine.Timeline(profile, records, today)
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}

	if len(timeline.Historical) != 3 {
		t.Fatalf("Expected 3 historical spans, got %d", len(timeline.Historical))
	}

	first := timeline.Historical[0]
	if first.Phase != models.PhaseBulking || !first.Start.Equal(base) || !first.End.Equal(base.AddDate(0, 0, 1)) {
		t.Errorf("Unexpected first span: %+v", first)
	}

	second := timeline.Historical[1]
	if second.Phase != models.PhaseCutting || !second.Start.Equal(base.AddDate(0, 0, 3)) || !second.End.Equal(base.AddDate(0, 0, 5)) {
		t.Errorf("Unexpected second span: %+v", second)
	}

	// Open span runs through today
	third := timeline.Historical[2]
	if third.Phase != models.PhasePeakWeek || !third.End.Equal(models.Day(today)) {
		t.Errorf("Expected open peak week span ending today, got %+v", third)
	}

	t.Run("no labels means no spans", func(t *testing.T) {
		unlabeled := []models.DailyRecord{
			dailyRecord(base, 80, 10, ""),
			dailyRecord(base.AddDate(0, 0, 1), 80, 10, "something else"),
		}

		timeline, err := engine.Timeline(profile, unlabeled, today)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}
		if len(timeline.Historical) != 0 {
			t.Errorf("Expected no spans, got %d", len(timeline.Historical))
		}
	})
}

func TestEngine_Timeline_PlateauFlags(t *testing.T) {
	engine := NewEngine()
	comp := time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)
	profile := testProfile(models.SexMale, comp)
	midCut := comp.AddDate(0, 0, -60)

	weightsOver := func(start, end float64, days int, lastDay time.Time) []models.DailyRecord {
		records := make([]models.DailyRecord, days)
		step := (end - start) / float64(days-1)
		for i := 0; i < days; i++ {
			w := start + step*float64(i)
			records[i] = dailyRecord(lastDay.AddDate(0, 0, i-days+1), w, 11, "")
		}
		// Pin the endpoints against accumulation drift
		records[0] = dailyRecord(lastDay.AddDate(0, 0, -days+1), start, 11, "")
		records[days-1] = dailyRecord(lastDay, end, 11, "")
		return records
	}

	t.Run("flat scale mid-cut is a plateau", func(t *testing.T) {
		timeline, err := engine.Timeline(profile, weightsOver(90, 90, 14, midCut), midCut)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Current != models.PhaseCutting {
			t.Fatalf("Expected cutting, got %s", timeline.Current)
		}
		if !timeline.Flags.Plateau {
			t.Error("Expected plateau flag for flat weights")
		}
		if timeline.Flags.Regain {
			t.Error("Flat weights must not flag regain")
		}
	})

	t.Run("rising scale mid-cut is regain, never plateau", func(t *testing.T) {
		timeline, err := engine.Timeline(profile, weightsOver(90, 92, 14, midCut), midCut)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if !timeline.Flags.Regain {
			t.Error("Expected regain flag for rising weights")
		}
		if timeline.Flags.Plateau {
			t.Error("Regain must not be reported as plateau")
		}
	})

	t.Run("adequate loss rate clears both flags", func(t *testing.T) {
		timeline, err := engine.Timeline(profile, weightsOver(100, 95, 14, midCut), midCut)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Flags.Plateau || timeline.Flags.Regain {
			t.Errorf("Expected clean flags at 2.5%%/week, got plateau=%v regain=%v",
				timeline.Flags.Plateau, timeline.Flags.Regain)
		}
		if timeline.Flags.WeightLossRatePctWeek == nil || *timeline.Flags.WeightLossRatePctWeek != 2.5 {
			t.Errorf("Expected loss rate 2.5, got %v", timeline.Flags.WeightLossRatePctWeek)
		}
	})

	t.Run("loss rate at the upper bound is not a plateau", func(t *testing.T) {
		// 100 to 99 over two weeks normalizes to exactly 0.5 percent per week
		timeline, err := engine.Timeline(profile, weightsOver(100, 99, 14, midCut), midCut)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Flags.Plateau {
			t.Error("Rate of exactly 0.5 sits outside the plateau band")
		}
	})

	t.Run("too little data means no flags", func(t *testing.T) {
		timeline, err := engine.Timeline(profile, weightsOver(90, 90, 4, midCut), midCut)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Flags.WeightLossRatePctWeek != nil {
			t.Errorf("Expected nil rate, got %v", *timeline.Flags.WeightLossRatePctWeek)
		}
		if timeline.Flags.Plateau || timeline.Flags.Regain {
			t.Error("Expected no flags without a computable rate")
		}
	})

	t.Run("flat scale outside a cut is not a plateau", func(t *testing.T) {
		farOut := comp.AddDate(0, 0, -200)
		timeline, err := engine.Timeline(profile, weightsOver(90, 90, 14, farOut), farOut)
		if err != nil {
			t.Fatalf("Timeline failed: %v", err)
		}

		if timeline.Current == models.PhaseCutting {
			t.Fatalf("Test setup wrong, got cutting at 200 days out")
		}
		if timeline.Flags.Plateau {
			t.Error("Plateau must only be flagged during a cut")
		}
	})
}

func TestEngine_Timeline_Deterministic(t *testing.T) {
	engine := NewEngine()
	comp := time.Date(2025, 12, 6, 0, 0, 0, 0, time.UTC)
	profile := testProfile(models.SexFemale, comp)
	today := comp.AddDate(0, 0, -45)

	records := []models.DailyRecord{
		dailyRecord(today.AddDate(0, 0, -3), 62.5, 19, "cutting"),
		dailyRecord(today.AddDate(0, 0, -2), 62.3, 19, "cutting"),
		dailyRecord(today.AddDate(0, 0, -1), 62.2, 18.8, "cutting"),
	}

	first, err := engine.Timeline(profile, records, today)
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}
	second, err := engine.Timeline(profile, records, today)
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Same inputs must produce the same timeline")
	}
}

func TestEngine_Timeline_RequiresCompetitionDate(t *testing.T) {
	engine := NewEngine()
	profile := testProfile(models.SexMale, time.Time{})

	_, err := engine.Timeline(profile, nil, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("Expected error without competition date")
	}
	if !models.IsValidationError(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

// Test fixtures

func testProfile(sex models.Sex, comp time.Time) *models.AthleteProfile {
	return &models.AthleteProfile{
		ID:               uuid.New(),
		Name:             "Test Athlete",
		Sex:              sex,
		BirthDate:        time.Date(1993, 4, 12, 0, 0, 0, 0, time.UTC),
		HeightCm:         models.NewDecimal(178),
		TargetCategory:   models.CategoryClassicPhysique,
		TargetBodyFatPct: models.NewDecimal(5),
		CompetitionDate:  comp,
	}
}

func dailyRecord(date time.Time, weight, bf float64, label string) models.DailyRecord {
	r := models.DailyRecord{Date: date, PhaseLabel: label}
	if weight > 0 {
		r.WeightKg = models.NewNullDecimal(weight)
	}
	if bf > 0 {
		r.BodyFatPct = models.NewNullDecimal(bf)
	}
	return r
}
