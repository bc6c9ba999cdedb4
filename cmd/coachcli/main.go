package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guptarohit/asciigraph"

	"github.com/physiqlab/coach-bot/internal/adapters/config"
	"github.com/physiqlab/coach-bot/internal/adapters/database"
	"github.com/physiqlab/coach-bot/internal/coach"
	"github.com/physiqlab/coach-bot/internal/records"
	"github.com/physiqlab/coach-bot/internal/trends"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

const usage = `Physique coach CLI

Usage: coachcli <command> [flags]

Commands:
  import    Import daily check-ins from a CSV file
  trends    Render trend charts for an athlete
  assess    Run the daily assessment for an athlete
  evaluate  Run the weekly evaluation for an athlete
  migrate   Manage database schema migrations

Run 'coachcli <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	// Keep service logs out of CLI output
	if err := logger.Init("error", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "import":
		err = runImport(os.Args[2:])
	case "trends":
		err = runTrends(os.Args[2:])
	case "assess":
		err = runAssess(os.Args[2:])
	case "evaluate":
		err = runEvaluate(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase loads config and connects to the primary database
func openDatabase() (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// newService assembles a storage-only coaching service. The CLI never
// caches, archives or notifies
func newService(db *database.DB) *coach.Service {
	return coach.NewService(records.NewRepository(db), nil, 0, nil, nil, nil)
}

func parseAthleteFlag(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid athlete id %q: %w", raw, err)
	}
	return id, nil
}

func parseDateFlag(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(models.DateLayout, raw)
}

// import

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	athlete := fs.String("athlete", "", "Athlete ID (UUID)")
	file := fs.String("file", "", "CSV file with daily check-ins")
	fs.Parse(args)

	athleteID, err := parseAthleteFlag(*athlete)
	if err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("a CSV file is required (-file)")
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", *file, err)
	}
	defer f.Close()

	imported, err := importCSV(context.Background(), newService(db), athleteID, f)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d check-ins\n", imported)
	return nil
}

// importCSV reads check-ins from CSV. The header names the columns; only
// date is mandatory, empty cells mean the measurement was skipped.
// Expected columns: date, weight_kg, body_fat_pct, training_load, hrv,
// sleep_score, recovery_hours, resting_hr
func importCSV(ctx context.Context, svc *coach.Service, athleteID uuid.UUID, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["date"]; !ok {
		return 0, fmt.Errorf("CSV must have a date column")
	}

	imported := 0
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}

		record, err := rowToRecord(athleteID, col, row)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}

		if err := svc.SubmitRecord(ctx, record); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	return imported, nil
}

func rowToRecord(athleteID uuid.UUID, col map[string]int, row []string) (*models.DailyRecord, error) {
	cell := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := time.Parse(models.DateLayout, cell("date"))
	if err != nil {
		return nil, fmt.Errorf("bad date %q: must be YYYY-MM-DD", cell("date"))
	}

	record := &models.DailyRecord{
		AthleteID: athleteID,
		Date:      date,
	}

	setDecimal := func(name string, assign func(float64)) error {
		raw := cell(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("bad %s %q", name, raw)
		}
		assign(v)
		return nil
	}

	setInt := func(name string, assign func(int64)) error {
		raw := cell(name)
		if raw == "" {
			return nil
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("bad %s %q", name, raw)
		}
		assign(v)
		return nil
	}

	if err := setDecimal("weight_kg", func(v float64) { record.WeightKg = models.NewNullDecimal(v) }); err != nil {
		return nil, err
	}
	if err := setDecimal("body_fat_pct", func(v float64) { record.BodyFatPct = models.NewNullDecimal(v) }); err != nil {
		return nil, err
	}
	if err := setDecimal("training_load", func(v float64) { record.TrainingLoad = models.NewNullDecimal(v) }); err != nil {
		return nil, err
	}
	if err := setDecimal("hrv", func(v float64) { record.HRV = models.NewNullDecimal(v) }); err != nil {
		return nil, err
	}
	if err := setInt("sleep_score", func(v int64) { record.SleepScore.Int64, record.SleepScore.Valid = v, true }); err != nil {
		return nil, err
	}
	if err := setInt("recovery_hours", func(v int64) { record.RecoveryHrs.Int64, record.RecoveryHrs.Valid = v, true }); err != nil {
		return nil, err
	}
	if err := setInt("resting_hr", func(v int64) { record.RestingHR.Int64, record.RestingHR.Valid = v, true }); err != nil {
		return nil, err
	}

	return record, nil
}

// trends

func runTrends(args []string) error {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	athlete := fs.String("athlete", "", "Athlete ID (UUID)")
	days := fs.Int("days", 90, "Days of history to chart")
	fs.Parse(args)

	athleteID, err := parseAthleteFlag(*athlete)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	svc := newService(db)

	profile, err := svc.GetAthlete(ctx, athleteID)
	if err != nil {
		return err
	}

	history, err := svc.ListRecords(ctx, athleteID)
	if err != nil {
		return err
	}

	cutoff := models.Day(time.Now()).AddDate(0, 0, -*days)
	var window []models.DailyRecord
	for _, record := range history {
		if !record.Date.Before(cutoff) {
			window = append(window, record)
		}
	}

	fmt.Printf("Trends for %s (last %d days, %d check-ins)\n", profile.Name, *days, len(window))

	calc := trends.NewCalculator()
	printChart("Weight (kg)", calc.WeightSeries(window))
	printChart("Morning HRV (ms)", calc.HRVSeries(window))
	printChart("Training load", calc.LoadSeries(window))

	fmt.Println()
	if rate := calc.WeightLossRate(window); rate != nil {
		fmt.Printf("Weekly weight change: %+.2f%%\n", -*rate)
	}
	if trend := calc.HRVTrend(window); trend != nil {
		fmt.Printf("HRV 7-day mean: %.1f ms", trend.Mean7d)
		if trend.CV != nil {
			fmt.Printf("  (cv %.1f%%, %s)", *trend.CV, trend.Status)
		}
		fmt.Println()
	}
	if acwr := calc.ACWR(window); acwr != nil {
		fmt.Printf("ACWR: %.2f (%s)\n", acwr.Value, acwr.Status)
	}

	return nil
}

func printChart(title string, series []float64) {
	fmt.Printf("\n%s\n", title)
	if len(series) < 3 {
		fmt.Println("  not enough data")
		return
	}

	chart := asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(70),
	)
	fmt.Println(chart)
}

// assess

func runAssess(args []string) error {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	athlete := fs.String("athlete", "", "Athlete ID (UUID)")
	date := fs.String("date", "", "Assessment date (YYYY-MM-DD, default today)")
	fs.Parse(args)

	athleteID, err := parseAthleteFlag(*athlete)
	if err != nil {
		return err
	}

	today, err := parseDateFlag(*date)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	assessment, err := newService(db).AssessDaily(context.Background(), athleteID, today)
	if err != nil {
		return err
	}

	timeline := assessment.Timeline
	fmt.Printf("Assessment for %s\n\n", assessment.Date)
	fmt.Printf("Phase: %s\n", timeline.Current.DisplayName())
	for _, span := range timeline.Projected {
		fmt.Printf("  %s  %s → %s\n",
			span.Phase.DisplayName(),
			span.Start.Format(models.DateLayout),
			span.End.Format(models.DateLayout),
		)
	}

	decision := assessment.Recovery
	fmt.Printf("\nRecovery: %s (%d fatigue points)\n", decision.Status, decision.FatiguePoints)
	fmt.Printf("  Action: %s\n", decision.Action)
	for _, reason := range decision.Rationale {
		fmt.Printf("  - %s\n", reason)
	}

	if assessment.Macros == nil {
		fmt.Println("\nNo macro plan: weight and body fat measurements are required")
		return nil
	}

	table := assessment.Macros
	fmt.Printf("\nMacro plan (maintenance %d kcal", table.MaintenanceKcal)
	if table.SuppressionKcal > 0 {
		fmt.Printf(", %d kcal suppression after %d weeks in deficit", table.SuppressionKcal, table.WeeksInDeficit)
	}
	fmt.Println(")")

	fmt.Println("Day  Strategy   Kcal  Protein  Carbs  Fat")
	for _, day := range table.Days {
		fmt.Printf("%3d  %-9s %5d  %6dg %5dg %4dg\n",
			day.Day, day.Strategy, day.Calories, day.ProteinG, day.CarbsG, day.FatG)
	}

	for _, alert := range table.Alerts {
		fmt.Printf("\n⚠ %s\n", alert)
	}

	return nil
}

// evaluate

func runEvaluate(args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	athlete := fs.String("athlete", "", "Athlete ID (UUID)")
	date := fs.String("date", "", "Evaluation date (YYYY-MM-DD, default today)")
	fs.Parse(args)

	athleteID, err := parseAthleteFlag(*athlete)
	if err != nil {
		return err
	}

	today, err := parseDateFlag(*date)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	eval, err := newService(db).EvaluateWeek(context.Background(), athleteID, today)
	if err != nil {
		return err
	}

	fmt.Printf("Weekly evaluation (%s)\n\n", eval.Phase.DisplayName())
	fmt.Printf("Status: %s\n", eval.Status)
	fmt.Printf("Weight: %.2f → %.2f kg (%+.2f)\n", eval.StartWeightKg, eval.EndWeightKg, eval.DeltaWeightKg)
	if eval.DeltaBodyFatPct != 0 || eval.DeltaLeanKg != 0 {
		fmt.Printf("Body fat: %+.2f%%   Lean: %+.2f kg   Fat: %+.2f kg\n",
			eval.DeltaBodyFatPct, eval.DeltaLeanKg, eval.DeltaFatKg)
	}

	if len(eval.Adjustments) > 0 {
		fmt.Println("\nCorrections:")
		for _, adj := range eval.Adjustments {
			fmt.Printf("  [%s] %s (%+.0f kcal)\n", adj.Code, adj.Description, adj.CalorieDelta)
		}
	}

	if len(eval.Options) > 0 {
		fmt.Println("\nThe signals conflict, pick one:")
		for i, opt := range eval.Options {
			fmt.Printf("  %d. %s: %s\n", i+1, opt.Label, opt.Description)
		}
	}

	fmt.Printf("\n%s\n", eval.Summary)
	return nil
}

// migrate

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	down := fs.Bool("down", false, "Roll back the last migration")
	version := fs.Bool("version", false, "Print the current schema version")
	path := fs.String("path", "./migrations", "Migrations directory")
	fs.Parse(args)

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	switch {
	case *version:
		v, dirty, err := database.GetMigrationVersion(db.Conn(), *path)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version: %d (dirty: %v)\n", v, dirty)

	case *down:
		if err := database.RollbackMigration(db.Conn(), *path); err != nil {
			return err
		}
		fmt.Println("Rolled back one migration")

	default:
		if err := database.RunMigrations(db.Conn(), *path); err != nil {
			return err
		}
		fmt.Println("Migrations applied")
	}

	return nil
}
