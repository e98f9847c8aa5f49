package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"bjjvisits-backend/internal/reconcile"
	"bjjvisits-backend/internal/repository"
	"bjjvisits-backend/pkg/database"
	"bjjvisits-backend/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [all|dedup|durations|voucher-sync|audit]")
		fmt.Println("Set DRY_RUN=true to report changes without writing them")
		os.Exit(1)
	}
	command := os.Args[1]

	dryRun, _ := strconv.ParseBool(os.Getenv("DRY_RUN"))

	zlog, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	engine := reconcile.NewEngine(
		repository.NewVisitRepository(db),
		repository.NewVoucherRepository(db),
		zlog,
	)
	engine.DryRun = dryRun

	report := &reconcile.Report{}
	switch command {
	case "all":
		report, err = engine.Run(ctx)
	case "dedup":
		err = engine.ResolveDuplicates(ctx, report)
	case "durations":
		err = engine.NormalizeDurations(ctx, report)
	case "voucher-sync":
		err = engine.SyncVoucherCache(ctx, report)
	case "audit":
		err = engine.AuditOrphans(ctx, report)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [all|dedup|durations|voucher-sync|audit]")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("Failed to render report: %v", err)
	}
	fmt.Println(string(out))

	if dryRun {
		fmt.Println("Dry run: no changes were written")
	}
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
