package testdb

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	_ "github.com/lib/pq"

	"github.com/physiqlab/coach-bot/internal/adapters/database"
	"github.com/physiqlab/coach-bot/pkg/logger"
)

// Setup connects to the database named by TEST_DATABASE_URL, applies the
// migrations and registers a cleanup that truncates the coaching tables.
// Tests calling Setup are skipped when the variable is unset, so the suite
// stays green on machines without Postgres
func Setup(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database test")
	}

	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			t.Fatalf("failed to init logger: %v", err)
		}
	}

	db, err := database.NewPostgres(dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(db.Conn(), migrationsDir()); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		Truncate(t, db)
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close database: %v", err)
		}
	})

	return db
}

// Truncate wipes the coaching tables between tests
func Truncate(t *testing.T, db *database.DB) {
	t.Helper()

	if _, err := db.Conn().Exec("TRUNCATE daily_records, athletes RESTART IDENTITY CASCADE"); err != nil {
		t.Logf("warning: failed to truncate tables: %v", err)
	}
}

// CountRecords returns the number of daily_records rows for the athlete
func CountRecords(t *testing.T, db *database.DB, athleteID string) int {
	t.Helper()

	var count int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM daily_records WHERE athlete_id = $1", athleteID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count records: %v", err)
	}
	return count
}

// migrationsDir resolves the migrations directory relative to this file,
// so tests work from any package directory
func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}
