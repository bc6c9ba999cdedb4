package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/internal/adapters/config"
	"github.com/physiqlab/coach-bot/internal/coach"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// CoachService is the decision surface the API exposes over HTTP
type CoachService interface {
	RegisterAthlete(ctx context.Context, profile *models.AthleteProfile) error
	UpdateAthlete(ctx context.Context, profile *models.AthleteProfile) error
	GetAthlete(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error)
	ListAthletes(ctx context.Context) ([]models.AthleteProfile, error)
	SubmitRecord(ctx context.Context, record *models.DailyRecord) error
	ListRecords(ctx context.Context, athleteID uuid.UUID) ([]models.DailyRecord, error)
	GetRecord(ctx context.Context, athleteID uuid.UUID, date time.Time) (*models.DailyRecord, error)
	DeterminePhase(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.PhaseTimeline, error)
	ComputeWeeklyMacros(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.MacroTable, error)
	ScoreRecovery(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.RecoveryDecision, error)
	GetAssessment(ctx context.Context, athleteID uuid.UUID, today time.Time) (*coach.DailyAssessment, error)
	EvaluateWeek(ctx context.Context, athleteID uuid.UUID, today time.Time) (*models.WeeklyEvaluation, error)
}

// Server serves the coaching REST API
type Server struct {
	server  *http.Server
	router  *mux.Router
	service CoachService
}

// NewServer creates the API server with routing, CORS and request logging
func NewServer(cfg *config.HTTPConfig, service CoachService) *Server {
	router := mux.NewRouter()

	s := &Server{
		router:  router,
		service: service,
	}
	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"*"},
	})

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      c.Handler(loggingMiddleware(router)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) registerRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/athletes", s.createAthlete).Methods("POST")
	v1.HandleFunc("/athletes", s.listAthletes).Methods("GET")
	v1.HandleFunc("/athletes/{id}", s.getAthlete).Methods("GET")
	v1.HandleFunc("/athletes/{id}", s.updateAthlete).Methods("PUT")

	v1.HandleFunc("/athletes/{id}/records", s.submitRecord).Methods("POST")
	v1.HandleFunc("/athletes/{id}/records", s.listRecords).Methods("GET")
	v1.HandleFunc("/athletes/{id}/records/{date}", s.getRecord).Methods("GET")

	v1.HandleFunc("/athletes/{id}/phase", s.getPhase).Methods("GET")
	v1.HandleFunc("/athletes/{id}/macros", s.getMacros).Methods("GET")
	v1.HandleFunc("/athletes/{id}/recovery", s.getRecovery).Methods("GET")
	v1.HandleFunc("/athletes/{id}/assessment", s.getAssessment).Methods("GET")
	v1.HandleFunc("/athletes/{id}/evaluation", s.getEvaluation).Methods("GET")
}

// Handler exposes the fully wrapped handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server
func (s *Server) Start() error {
	logger.Info("🌐 API server starting",
		zap.String("addr", s.server.Addr),
	)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	logger.Info("stopping API server...")
	return s.server.Shutdown(ctx)
}
