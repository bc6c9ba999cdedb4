package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	HTTP       HTTPConfig       `envconfig:"HTTP"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Scheduler  SchedulerConfig  `envconfig:"SCHEDULER"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// HTTPConfig represents the public API server parameters
type HTTPConfig struct {
	Host           string        `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthPort     string        `envconfig:"HEALTH_PORT" default:"8081"`
	AllowedOrigins []string      `envconfig:"HTTP_ALLOWED_ORIGINS" default:"*"`
	ReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"coach"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

// ClickHouseConfig represents the analytics store connection parameters
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"coach"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" required:"false"`
}

// RedisConfig represents Redis connection parameters
type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"15m"`
}

// TelegramConfig represents Telegram bot configuration. Per-athlete chat
// IDs live on the athlete profile; this covers the bot itself
type TelegramConfig struct {
	Enabled     bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken    string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	AdminChatID int64  `envconfig:"TELEGRAM_ADMIN_CHAT_ID" default:"0"`
}

// SchedulerConfig represents background job timing
type SchedulerConfig struct {
	AssessmentInterval time.Duration `envconfig:"SCHEDULER_ASSESSMENT_INTERVAL" default:"1h"`
	WeeklyCron         string        `envconfig:"SCHEDULER_WEEKLY_CRON" default:"0 7 * * 1"`
	WeeklyLockTTL      time.Duration `envconfig:"SCHEDULER_WEEKLY_LOCK_TTL" default:"10m"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:"logs/coach.log"`
}

// Load reads configuration from environment variables. A .env file is
// loaded first when present so local runs need no exported variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required when telegram is enabled")
	}

	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse host is required when clickhouse is enabled")
	}

	if c.Scheduler.AssessmentInterval <= 0 {
		return fmt.Errorf("assessment interval must be positive")
	}
	if c.Scheduler.WeeklyCron == "" {
		return fmt.Errorf("weekly cron expression is required")
	}
	if c.Scheduler.WeeklyLockTTL <= 0 {
		return fmt.Errorf("weekly lock ttl must be positive")
	}

	if c.Redis.CacheTTL < 0 {
		return fmt.Errorf("redis cache ttl must not be negative")
	}

	return nil
}

// Addr returns the API server listen address
func (c *HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%d/%s?dial_timeout=10s",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// Addr returns the Redis host:port pair
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
