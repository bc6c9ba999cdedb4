package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/physiqlab/coach-bot/internal/adapters/config"
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

func TestServer_Athletes(t *testing.T) {
	setupTest(t)

	t.Run("create returns 201 with the stored profile", func(t *testing.T) {
		svc := newStubService()
		server := testServer(svc)

		body := `{"name":"Test Athlete","sex":"male","birth_date":"1992-04-15","height_cm":180,"training_age_years":8,"target_category":"classic_physique","target_body_fat_pct":6.5,"competition_date":"2025-09-01"}`
		rec := do(t, server, "POST", "/api/v1/athletes", body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var profile models.AthleteProfile
		decodeBody(t, rec, &profile)
		if profile.ID == uuid.Nil {
			t.Error("Expected an assigned athlete id")
		}
		if profile.Name != "Test Athlete" {
			t.Errorf("Expected name Test Athlete, got %q", profile.Name)
		}
	})

	t.Run("create rejects malformed JSON", func(t *testing.T) {
		server := testServer(newStubService())
		rec := do(t, server, "POST", "/api/v1/athletes", `{"name":`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("create maps profile validation to 400", func(t *testing.T) {
		server := testServer(newStubService())

		for name, body := range map[string]string{
			"unknown sex":     `{"name":"X","sex":"other","birth_date":"1992-04-15","height_cm":180,"target_category":"classic_physique","target_body_fat_pct":6.5}`,
			"zero height":     `{"name":"X","sex":"male","birth_date":"1992-04-15","height_cm":0,"target_category":"classic_physique","target_body_fat_pct":6.5}`,
			"absurd body fat": `{"name":"X","sex":"male","birth_date":"1992-04-15","height_cm":180,"target_category":"classic_physique","target_body_fat_pct":120}`,
		} {
			rec := do(t, server, "POST", "/api/v1/athletes", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
			}
		}
	})

	t.Run("create rejects a bad birth date", func(t *testing.T) {
		server := testServer(newStubService())
		rec := do(t, server, "POST", "/api/v1/athletes", `{"name":"X","sex":"male","birth_date":"15.04.1992"}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("get returns the profile", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String(), "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var got models.AthleteProfile
		decodeBody(t, rec, &got)
		if got.ID != athlete.ID {
			t.Errorf("Expected id %s, got %s", athlete.ID, got.ID)
		}
	})

	t.Run("get unknown athlete returns 404", func(t *testing.T) {
		server := testServer(newStubService())
		rec := do(t, server, "GET", "/api/v1/athletes/"+uuid.NewString(), "")

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("get with a malformed id returns 400", func(t *testing.T) {
		server := testServer(newStubService())
		rec := do(t, server, "GET", "/api/v1/athletes/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("list returns an array", func(t *testing.T) {
		svc := newStubService()
		svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var got []models.AthleteProfile
		decodeBody(t, rec, &got)
		if len(got) != 1 {
			t.Errorf("Expected 1 athlete, got %d", len(got))
		}
	})

	t.Run("update replaces the profile", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		body := `{"name":"Renamed","sex":"male","height_cm":180,"target_category":"classic_physique","target_body_fat_pct":7}`
		rec := do(t, server, "PUT", "/api/v1/athletes/"+athlete.ID.String(), body)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.athletes[athlete.ID].Name != "Renamed" {
			t.Errorf("Expected stored name Renamed, got %q", svc.athletes[athlete.ID].Name)
		}
	})

	t.Run("update of an unknown athlete returns 404", func(t *testing.T) {
		server := testServer(newStubService())
		rec := do(t, server, "PUT", "/api/v1/athletes/"+uuid.NewString(), `{"name":"X"}`)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})
}

func TestServer_Records(t *testing.T) {
	setupTest(t)

	t.Run("submit stores the check-in for the path athlete", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		body := `{"date":"2025-06-02","weight_kg":82.4,"body_fat_pct":11.8,"sleep_score":85}`
		rec := do(t, server, "POST", "/api/v1/athletes/"+athlete.ID.String()+"/records", body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(svc.submitted) != 1 {
			t.Fatalf("Expected 1 submitted record, got %d", len(svc.submitted))
		}

		stored := svc.submitted[0]
		if stored.AthleteID != athlete.ID {
			t.Errorf("Expected athlete id from the path, got %s", stored.AthleteID)
		}
		if w, ok := stored.Weight(); !ok || w != 82.4 {
			t.Errorf("Expected weight 82.4, got %v (%v)", w, ok)
		}
		if score, ok := stored.Sleep(); !ok || score != 85 {
			t.Errorf("Expected sleep score 85, got %v (%v)", score, ok)
		}
	})

	t.Run("submit rejects a malformed date", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "POST", "/api/v1/athletes/"+athlete.ID.String()+"/records", `{"date":"02.06.2025"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("submit rejects implausible measurements", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "POST", "/api/v1/athletes/"+athlete.ID.String()+"/records", `{"date":"2025-06-02","weight_kg":-5}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("submit for an unknown athlete returns 404", func(t *testing.T) {
		server := testServer(newStubService())
		rec := do(t, server, "POST", "/api/v1/athletes/"+uuid.NewString()+"/records", `{"date":"2025-06-02"}`)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("get record returns 404 for an empty day", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/records/2025-06-02", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rec.Code)
		}
	})

	t.Run("list records returns an empty array, not null", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/records", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("Expected [], got %s", got)
		}
	})
}

func TestServer_Decisions(t *testing.T) {
	setupTest(t)

	t.Run("phase endpoint returns the timeline", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/phase?date=2025-06-02", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var timeline models.PhaseTimeline
		decodeBody(t, rec, &timeline)
		if timeline.Current != models.PhaseCutting {
			t.Errorf("Expected cutting, got %s", timeline.Current)
		}
		if got := svc.askedDate.Format(models.DateLayout); got != "2025-06-02" {
			t.Errorf("Expected query date passed through, got %s", got)
		}
	})

	t.Run("phase endpoint maps validation errors to 400", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		svc.err = models.NewValidationError("competition_date", "required to project the season timeline")
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/phase", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("phase endpoint rejects a malformed date parameter", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/phase?date=junk", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rec.Code)
		}
	})

	t.Run("recovery endpoint returns the decision", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/recovery", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var decision models.RecoveryDecision
		decodeBody(t, rec, &decision)
		if decision.Status != models.RecoveryFullyRecovered {
			t.Errorf("Expected fully recovered, got %s", decision.Status)
		}
	})

	t.Run("macros endpoint returns the table", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/macros", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var table models.MacroTable
		decodeBody(t, rec, &table)
		if len(table.Days) != 7 {
			t.Errorf("Expected 7 days, got %d", len(table.Days))
		}
	})

	t.Run("assessment endpoint returns the bundle", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/assessment?date=2025-06-02", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var assessment coach.DailyAssessment
		decodeBody(t, rec, &assessment)
		if assessment.Date != "2025-06-02" {
			t.Errorf("Expected date 2025-06-02, got %s", assessment.Date)
		}
	})

	t.Run("evaluation endpoint returns the weekly verdict", func(t *testing.T) {
		svc := newStubService()
		athlete := svc.seedAthlete()
		server := testServer(svc)

		rec := do(t, server, "GET", "/api/v1/athletes/"+athlete.ID.String()+"/evaluation", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rec.Code)
		}

		var eval models.WeeklyEvaluation
		decodeBody(t, rec, &eval)
		if eval.Status != models.EvaluationOnTrack {
			t.Errorf("Expected on_track, got %s", eval.Status)
		}
	})

	t.Run("decision endpoints for an unknown athlete return 404", func(t *testing.T) {
		server := testServer(newStubService())

		for _, endpoint := range []string{"phase", "macros", "recovery", "assessment", "evaluation"} {
			rec := do(t, server, "GET", "/api/v1/athletes/"+uuid.NewString()+"/"+endpoint, "")
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected 404, got %d", endpoint, rec.Code)
			}
		}
	})
}

// Fixtures

type stubService struct {
	athletes  map[uuid.UUID]*models.AthleteProfile
	records   map[uuid.UUID][]models.DailyRecord
	submitted []models.DailyRecord
	askedDate time.Time
	err       error
}

func newStubService() *stubService {
	return &stubService{
		athletes: make(map[uuid.UUID]*models.AthleteProfile),
		records:  make(map[uuid.UUID][]models.DailyRecord),
	}
}

func (s *stubService) seedAthlete() *models.AthleteProfile {
	profile := &models.AthleteProfile{
		ID:   uuid.New(),
		Name: "Seeded Athlete",
		Sex:  models.SexMale,
	}
	s.athletes[profile.ID] = profile
	return profile
}

func (s *stubService) RegisterAthlete(_ context.Context, profile *models.AthleteProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	profile.ID = uuid.New()
	s.athletes[profile.ID] = profile
	return nil
}

func (s *stubService) UpdateAthlete(_ context.Context, profile *models.AthleteProfile) error {
	if _, ok := s.athletes[profile.ID]; !ok {
		return coach.ErrAthleteNotFound
	}
	s.athletes[profile.ID] = profile
	return nil
}

func (s *stubService) GetAthlete(_ context.Context, id uuid.UUID) (*models.AthleteProfile, error) {
	profile, ok := s.athletes[id]
	if !ok {
		return nil, coach.ErrAthleteNotFound
	}
	return profile, nil
}

func (s *stubService) ListAthletes(_ context.Context) ([]models.AthleteProfile, error) {
	out := make([]models.AthleteProfile, 0, len(s.athletes))
	for _, p := range s.athletes {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubService) SubmitRecord(_ context.Context, record *models.DailyRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.submitted = append(s.submitted, *record)
	s.records[record.AthleteID] = append(s.records[record.AthleteID], *record)
	return nil
}

func (s *stubService) ListRecords(_ context.Context, athleteID uuid.UUID) ([]models.DailyRecord, error) {
	if _, ok := s.athletes[athleteID]; !ok {
		return nil, coach.ErrAthleteNotFound
	}
	return s.records[athleteID], nil
}

func (s *stubService) GetRecord(_ context.Context, athleteID uuid.UUID, date time.Time) (*models.DailyRecord, error) {
	for i := range s.records[athleteID] {
		if models.Day(s.records[athleteID][i].Date).Equal(models.Day(date)) {
			return &s.records[athleteID][i], nil
		}
	}
	return nil, nil
}

func (s *stubService) guard(athleteID uuid.UUID, today time.Time) error {
	if _, ok := s.athletes[athleteID]; !ok {
		return coach.ErrAthleteNotFound
	}
	s.askedDate = today
	return s.err
}

func (s *stubService) DeterminePhase(_ context.Context, athleteID uuid.UUID, today time.Time) (*models.PhaseTimeline, error) {
	if err := s.guard(athleteID, today); err != nil {
		return nil, err
	}
	return &models.PhaseTimeline{
		AthleteID: athleteID.String(),
		Today:     models.Day(today),
		Current:   models.PhaseCutting,
	}, nil
}

func (s *stubService) ComputeWeeklyMacros(_ context.Context, athleteID uuid.UUID, today time.Time) (*models.MacroTable, error) {
	if err := s.guard(athleteID, today); err != nil {
		return nil, err
	}
	table := &models.MacroTable{Phase: models.PhaseCutting, MaintenanceKcal: 2800}
	for i := 0; i < 7; i++ {
		table.Days = append(table.Days, models.MacroDay{Day: i + 1, Strategy: "moderate", Calories: 2300})
	}
	return table, nil
}

func (s *stubService) ScoreRecovery(_ context.Context, athleteID uuid.UUID, today time.Time) (*models.RecoveryDecision, error) {
	if err := s.guard(athleteID, today); err != nil {
		return nil, err
	}
	return &models.RecoveryDecision{
		Status: models.RecoveryFullyRecovered,
		Action: "train as planned",
	}, nil
}

func (s *stubService) GetAssessment(_ context.Context, athleteID uuid.UUID, today time.Time) (*coach.DailyAssessment, error) {
	if err := s.guard(athleteID, today); err != nil {
		return nil, err
	}
	return &coach.DailyAssessment{
		AthleteID:   athleteID.String(),
		Date:        models.Day(today).Format(models.DateLayout),
		GeneratedAt: time.Now(),
	}, nil
}

func (s *stubService) EvaluateWeek(_ context.Context, athleteID uuid.UUID, today time.Time) (*models.WeeklyEvaluation, error) {
	if err := s.guard(athleteID, today); err != nil {
		return nil, err
	}
	return &models.WeeklyEvaluation{
		AthleteID: athleteID.String(),
		Phase:     models.PhaseCutting,
		Status:    models.EvaluationOnTrack,
	}, nil
}

func testServer(svc CoachService) *Server {
	cfg := &config.HTTPConfig{
		Host:           "127.0.0.1",
		Port:           8080,
		AllowedOrigins: []string{"*"},
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Second,
	}
	return NewServer(cfg, svc)
}

func do(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}
