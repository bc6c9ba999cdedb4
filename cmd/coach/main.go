package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/internal/adapters/clickhouse"
	"github.com/physiqlab/coach-bot/internal/adapters/config"
	"github.com/physiqlab/coach-bot/internal/adapters/database"
	redisAdapter "github.com/physiqlab/coach-bot/internal/adapters/redis"
	"github.com/physiqlab/coach-bot/internal/adapters/telegram"
	"github.com/physiqlab/coach-bot/internal/api"
	"github.com/physiqlab/coach-bot/internal/coach"
	"github.com/physiqlab/coach-bot/internal/health"
	"github.com/physiqlab/coach-bot/internal/records"
	"github.com/physiqlab/coach-bot/internal/workers"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/worker"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Run application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration and initialize logger
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("🏋️ Physique Coach starting...")

	// Initialize core infrastructure
	db, redisClient, err := initInfrastructure(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer redisClient.Close()

	// Initialize ClickHouse assessment archive (optional)
	chDB, chRepo, batchWriter := initClickHouse(ctx, cfg)
	if chDB != nil {
		defer chDB.Close()
	}

	// Initialize Telegram notifications (optional)
	notifier := initTelegramSystem(cfg)

	// Assemble the coaching service
	repo := records.NewRepository(db)
	service := coach.NewService(repo, redisClient, cfg.Redis.CacheTTL, batchWriter, chRepo, notifier)

	// Start background workers
	workerGroup := worker.NewWorkerGroup(ctx)
	workerGroup.Add(workers.NewAssessmentWorker(service), cfg.Scheduler.AssessmentInterval)
	workerGroup.Start()

	weeklyJob := workers.NewWeeklyEvaluationJob(
		service,
		redisClient.GetLockFactory(),
		cfg.Scheduler.WeeklyCron,
		cfg.Scheduler.WeeklyLockTTL,
	)
	if err := weeklyJob.Start(); err != nil {
		return err
	}

	// Start API server
	apiServer := api.NewServer(&cfg.HTTP, service)
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("api server error", zap.Error(err))
		}
	}()

	// Start health server and mark ready
	healthServer := startHealthServer(cfg, db, redisClient, chDB, workerGroup)

	// Wait for shutdown signal
	<-ctx.Done()

	// Perform graceful shutdown
	return performGracefulShutdown(healthServer, apiServer, weeklyJob, workerGroup, batchWriter, db, redisClient)
}

// initConfig loads configuration and initializes logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initInfrastructure initializes database and Redis connections
func initInfrastructure(cfg *config.Config) (*database.DB, *redisAdapter.Client, error) {
	db, err := initDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := initRedis(cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, redisClient, nil
}

// initDatabase initializes database connection with sqlx
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	migrationsPath := "./migrations"
	if err := database.RunMigrations(db.Conn(), migrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database connection established (sqlx)",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	return db, nil
}

// initRedis initializes Redis client with Redlock support
func initRedis(cfg *config.Config) (*redisAdapter.Client, error) {
	redisClient, err := redisAdapter.New(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Test connection
	if err := redisClient.Health(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("redis health check failed: %w", err)
	}

	logger.Info("redis connection established (redlock)",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	return redisClient, nil
}

// initClickHouse initializes the optional assessment archive. Failures
// are logged and the service runs without history
func initClickHouse(ctx context.Context, cfg *config.Config) (*database.DB, *clickhouse.Repository, *clickhouse.AssessmentBatchWriter) {
	if !cfg.ClickHouse.Enabled {
		logger.Info("clickhouse disabled, assessment history will not be archived")
		return nil, nil, nil
	}

	ch, err := database.NewClickHouse(cfg.ClickHouse.GetDSN())
	if err != nil {
		logger.Warn("⚠️ ClickHouse not available, assessment history disabled", zap.Error(err))
		return nil, nil, nil
	}

	chRepo := clickhouse.NewRepository(ch.DB())
	if err := chRepo.EnsureSchema(ctx); err != nil {
		logger.Warn("⚠️ failed to prepare clickhouse schema, assessment history disabled", zap.Error(err))
		ch.Close()
		return nil, nil, nil
	}

	batchWriter := clickhouse.NewAssessmentBatchWriter(chRepo, 50, 30*time.Second)

	logger.Info("✅ ClickHouse assessment archive ready",
		zap.String("host", cfg.ClickHouse.Host),
		zap.String("database", cfg.ClickHouse.Database),
	)

	return ch, chRepo, batchWriter
}

// initTelegramSystem initializes Telegram notifier
func initTelegramSystem(cfg *config.Config) *telegram.Notifier {
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken == "" {
		logger.Info("telegram notifications disabled")
		return nil
	}

	templateManager, err := telegram.NewTemplateManager("")
	if err != nil {
		logger.Warn("failed to load telegram templates", zap.Error(err))
		return nil
	}

	notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, &cfg.Telegram, templateManager)
	if err != nil {
		logger.Warn("failed to initialize telegram notifier", zap.Error(err))
		return nil
	}

	logger.Info("📱 Telegram notifier initialized")
	return notifier
}

// startHealthServer initializes and starts health check server for K8s probes
func startHealthServer(
	cfg *config.Config,
	db *database.DB,
	redisClient *redisAdapter.Client,
	chDB *database.DB,
	workerGroup *worker.WorkerGroup,
) *health.Server {
	healthServer := health.NewServer(cfg.HTTP.HealthPort, db, redisClient, chDB, workerGroup)

	go func() {
		if err := healthServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	logger.Info("🏆 Physique Coach ready!",
		zap.String("api_addr", cfg.HTTP.Addr()),
		zap.String("health_port", cfg.HTTP.HealthPort),
	)

	// Mark service as ready after initialization
	healthServer.SetReady(true)

	return healthServer
}

// performGracefulShutdown handles graceful shutdown of all components
func performGracefulShutdown(
	healthServer *health.Server,
	apiServer *api.Server,
	weeklyJob *workers.WeeklyEvaluationJob,
	workerGroup *worker.WorkerGroup,
	batchWriter *clickhouse.AssessmentBatchWriter,
	db *database.DB,
	redisClient *redisAdapter.Client,
) error {
	logger.Info("🛑 Shutdown signal received, starting graceful shutdown...")

	// Mark service as not ready (stop accepting new traffic)
	healthServer.SetReady(false)

	// Create shutdown context with timeout (K8s gives 30s terminationGracePeriodSeconds)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	// Stop the API server first (drain in-flight requests)
	logger.Info("stopping API server...")
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("api server stop error", zap.Error(err))
	}

	// Stop scheduled jobs and workers
	weeklyJob.Stop()
	workerGroup.Stop(10 * time.Second)

	// Flush any buffered assessment history
	if batchWriter != nil {
		logger.Info("flushing assessment archive...")
		if err := batchWriter.Close(); err != nil {
			logger.Error("assessment archive flush error", zap.Error(err))
		}
	}

	// Close database connection
	logger.Info("closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	// Close redis connection
	logger.Info("closing redis connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}

	// Stop health server
	logger.Info("stopping health server...")
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server stop error", zap.Error(err))
	}

	// Sync logger
	logger.Sync()

	// Check if shutdown completed in time
	select {
	case <-shutdownCtx.Done():
		logger.Warn("⚠️ shutdown timeout exceeded")
		return fmt.Errorf("graceful shutdown timeout")
	default:
		logger.Info("✅ shutdown completed successfully")
	}

	return nil
}
