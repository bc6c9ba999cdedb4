package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/internal/coach"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// athleteRequest is the JSON body for creating or updating an athlete.
// Dates travel as YYYY-MM-DD strings
type athleteRequest struct {
	Name             string   `json:"name"`
	Sex              string   `json:"sex"`
	BirthDate        string   `json:"birth_date"`
	HeightCm         float64  `json:"height_cm"`
	TrainingAgeYears int      `json:"training_age_years"`
	PEDUse           bool     `json:"ped_use"`
	TargetCategory   string   `json:"target_category"`
	TargetBodyFatPct float64  `json:"target_body_fat_pct"`
	CompetitionDate  string   `json:"competition_date"`
	BaselineHRV      *float64 `json:"baseline_hrv"`
	TelegramChatID   int64    `json:"telegram_chat_id"`
}

func (req *athleteRequest) toProfile() (*models.AthleteProfile, error) {
	profile := &models.AthleteProfile{
		Name:             req.Name,
		Sex:              models.Sex(req.Sex),
		HeightCm:         decimal.NewFromFloat(req.HeightCm),
		TrainingAgeYears: req.TrainingAgeYears,
		PEDUse:           req.PEDUse,
		TargetCategory:   models.TargetCategory(req.TargetCategory),
		TargetBodyFatPct: decimal.NewFromFloat(req.TargetBodyFatPct),
		TelegramChatID:   req.TelegramChatID,
	}

	if req.BirthDate != "" {
		t, err := time.Parse(models.DateLayout, req.BirthDate)
		if err != nil {
			return nil, models.NewValidationError("birth_date", "must be YYYY-MM-DD")
		}
		profile.BirthDate = t
	}

	if req.CompetitionDate != "" {
		t, err := time.Parse(models.DateLayout, req.CompetitionDate)
		if err != nil {
			return nil, models.NewValidationError("competition_date", "must be YYYY-MM-DD")
		}
		profile.CompetitionDate = t
	}

	if req.BaselineHRV != nil {
		profile.BaselineHRV = models.NewNullDecimal(*req.BaselineHRV)
	}

	return profile, nil
}

// recordRequest is the JSON body for a daily check-in. Every biometric
// is optional
type recordRequest struct {
	Date         string   `json:"date"`
	WeightKg     *float64 `json:"weight_kg"`
	BodyFatPct   *float64 `json:"body_fat_pct"`
	TrainingLoad *float64 `json:"training_load"`
	HRV          *float64 `json:"hrv"`
	SleepScore   *int64   `json:"sleep_score"`
	RecoveryHrs  *int64   `json:"recovery_hours"`
	RestingHR    *int64   `json:"resting_hr"`
}

func (req *recordRequest) toRecord(athleteID uuid.UUID) (*models.DailyRecord, error) {
	date, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return nil, models.NewValidationError("date", "must be YYYY-MM-DD")
	}

	record := &models.DailyRecord{
		AthleteID: athleteID,
		Date:      date,
	}

	if req.WeightKg != nil {
		record.WeightKg = models.NewNullDecimal(*req.WeightKg)
	}
	if req.BodyFatPct != nil {
		record.BodyFatPct = models.NewNullDecimal(*req.BodyFatPct)
	}
	if req.TrainingLoad != nil {
		record.TrainingLoad = models.NewNullDecimal(*req.TrainingLoad)
	}
	if req.HRV != nil {
		record.HRV = models.NewNullDecimal(*req.HRV)
	}
	if req.SleepScore != nil {
		record.SleepScore = sql.NullInt64{Int64: *req.SleepScore, Valid: true}
	}
	if req.RecoveryHrs != nil {
		record.RecoveryHrs = sql.NullInt64{Int64: *req.RecoveryHrs, Valid: true}
	}
	if req.RestingHR != nil {
		record.RestingHR = sql.NullInt64{Int64: *req.RestingHR, Valid: true}
	}

	return record, nil
}

// Athlete handlers

func (s *Server) createAthlete(w http.ResponseWriter, r *http.Request) {
	var req athleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := req.toProfile()
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.service.RegisterAthlete(r.Context(), profile); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profile)
}

func (s *Server) listAthletes(w http.ResponseWriter, r *http.Request) {
	athletes, err := s.service.ListAthletes(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if athletes == nil {
		athletes = []models.AthleteProfile{}
	}
	writeJSON(w, http.StatusOK, athletes)
}

func (s *Server) getAthlete(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	profile, err := s.service.GetAthlete(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) updateAthlete(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	existing, err := s.service.GetAthlete(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var req athleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := req.toProfile()
	if err != nil {
		s.respondError(w, err)
		return
	}
	profile.ID = id
	profile.CreatedAt = existing.CreatedAt

	if err := s.service.UpdateAthlete(r.Context(), profile); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Check-in handlers

func (s *Server) submitRecord(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	if _, err := s.service.GetAthlete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := req.toRecord(id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.service.SubmitRecord(r.Context(), record); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// upsertRecord writes the check-in for the day named in the path. The
// path date wins over whatever the body carries, so a repeated PUT to
// the same URL always lands on the same row
func (s *Server) upsertRecord(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	if _, err := s.service.GetAthlete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Date = mux.Vars(r)["date"]

	record, err := req.toRecord(id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if err := s.service.SubmitRecord(r.Context(), record); err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	records, err := s.service.ListRecords(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if records == nil {
		records = []models.DailyRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	date, err := time.Parse(models.DateLayout, mux.Vars(r)["date"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	record, err := s.service.GetRecord(r.Context(), id, date)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no check-in for that day")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Decision handlers

func (s *Server) getPhase(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	today, err := queryDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	timeline, err := s.service.DeterminePhase(r.Context(), id, today)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, timeline)
}

func (s *Server) getMacros(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	today, err := queryDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	table, err := s.service.ComputeWeeklyMacros(r.Context(), id, today)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, table)
}

func (s *Server) getRecovery(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	today, err := queryDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	decision, err := s.service.ScoreRecovery(r.Context(), id, today)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	today, err := queryDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	assessment, err := s.service.GetAssessment(r.Context(), id, today)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	id, err := athleteID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid athlete id")
		return
	}

	today, err := queryDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	eval, err := s.service.EvaluateWeek(r.Context(), id, today)
	if err != nil {
		s.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, eval)
}

// Helpers

func athleteID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

// queryDate reads the optional ?date=YYYY-MM-DD parameter, defaulting
// to now
func queryDate(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(models.DateLayout, raw)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coach.ErrAthleteNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case models.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
