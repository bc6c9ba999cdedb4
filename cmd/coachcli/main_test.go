package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/physiqlab/coach-bot/internal/coach"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// setupTest initializes logger for tests
func setupTest(t *testing.T) {
	t.Helper()
	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			t.Fatalf("Failed to initialize logger: %v", err)
		}
	}
}

func TestImportCSV(t *testing.T) {
	setupTest(t)
	ctx := context.Background()
	athleteID := uuid.New()

	t.Run("imports rows with gaps in the measurements", func(t *testing.T) {
		store := &captureStore{}
		svc := coach.NewService(store, nil, 0, nil, nil, nil)

		csvData := strings.Join([]string{
			"date,weight_kg,body_fat_pct,hrv,sleep_score",
			"2025-06-01,84.2,12.1,68,85",
			"2025-06-02,,,72,",
			"2025-06-03,83.9,11.9,,80",
		}, "\n")

		imported, err := importCSV(ctx, svc, athleteID, strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("importCSV failed: %v", err)
		}
		if imported != 3 {
			t.Errorf("Expected 3 imported rows, got %d", imported)
		}
		if len(store.records) != 3 {
			t.Fatalf("Expected 3 stored records, got %d", len(store.records))
		}

		first := store.records[0]
		if first.AthleteID != athleteID {
			t.Errorf("Expected athlete id %s, got %s", athleteID, first.AthleteID)
		}
		if w, ok := first.Weight(); !ok || w != 84.2 {
			t.Errorf("Expected weight 84.2, got %v (%v)", w, ok)
		}

		second := store.records[1]
		if _, ok := second.Weight(); ok {
			t.Error("Expected no weight on the second row")
		}
		if hrv, ok := second.HRVValue(); !ok || hrv != 72 {
			t.Errorf("Expected hrv 72, got %v (%v)", hrv, ok)
		}
		if _, ok := second.Sleep(); ok {
			t.Error("Expected no sleep score on the second row")
		}
	})

	t.Run("reports the failing line", func(t *testing.T) {
		store := &captureStore{}
		svc := coach.NewService(store, nil, 0, nil, nil, nil)

		csvData := "date,weight_kg\n2025-06-01,84.2\n01.06.2025,83.9\n"

		imported, err := importCSV(ctx, svc, athleteID, strings.NewReader(csvData))
		if err == nil {
			t.Fatal("Expected an error for a bad date")
		}
		if !strings.Contains(err.Error(), "line 3") {
			t.Errorf("Expected the error to name line 3, got %v", err)
		}
		if imported != 1 {
			t.Errorf("Expected 1 row imported before the failure, got %d", imported)
		}
	})

	t.Run("rejects a header without a date column", func(t *testing.T) {
		svc := coach.NewService(&captureStore{}, nil, 0, nil, nil, nil)

		_, err := importCSV(ctx, svc, athleteID, strings.NewReader("weight_kg\n84.2\n"))
		if err == nil {
			t.Error("Expected an error for a missing date column")
		}
	})

	t.Run("rejects implausible values through validation", func(t *testing.T) {
		svc := coach.NewService(&captureStore{}, nil, 0, nil, nil, nil)

		csvData := "date,weight_kg\n2025-06-01,-12\n"
		_, err := importCSV(ctx, svc, athleteID, strings.NewReader(csvData))
		if err == nil {
			t.Error("Expected a validation error for a negative weight")
		}
	})
}

// Fixtures

// captureStore records upserts and answers every read with nothing
type captureStore struct {
	records []models.DailyRecord
}

func (s *captureStore) CreateAthlete(_ context.Context, _ *models.AthleteProfile) error { return nil }
func (s *captureStore) UpdateAthlete(_ context.Context, _ *models.AthleteProfile) error { return nil }

func (s *captureStore) GetAthlete(_ context.Context, _ uuid.UUID) (*models.AthleteProfile, error) {
	return nil, nil
}

func (s *captureStore) ListAthletes(_ context.Context) ([]models.AthleteProfile, error) {
	return nil, nil
}

func (s *captureStore) UpsertRecord(_ context.Context, record *models.DailyRecord) error {
	s.records = append(s.records, *record)
	return nil
}

func (s *captureStore) ListRecords(_ context.Context, _ uuid.UUID) ([]models.DailyRecord, error) {
	return nil, nil
}

func (s *captureStore) GetRecord(_ context.Context, _ uuid.UUID, _ time.Time) (*models.DailyRecord, error) {
	return nil, nil
}

func (s *captureStore) StampPhaseLabel(_ context.Context, _ uuid.UUID, _ time.Time, _ string) error {
	return nil
}

func (s *captureStore) SavePrescription(_ context.Context, _ uuid.UUID, _ time.Time, _ models.MacroDay) error {
	return nil
}
