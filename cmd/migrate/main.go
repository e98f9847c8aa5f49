package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
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
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS vouchers CASCADE`,
		`DROP TABLE IF EXISTS visits CASCADE`,
		`DROP TABLE IF EXISTS finance_records CASCADE`,
		`DROP TABLE IF EXISTS events CASCADE`,
		`DROP TABLE IF EXISTS academies CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL CHECK (role IN ('ADMIN', 'SALESPERSON')),
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS academies (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('UPCOMING', 'ACTIVE', 'FINISHED')),
			salesperson_id UUID NOT NULL REFERENCES users(id),
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS visits (
			id UUID PRIMARY KEY,
			event_id UUID NOT NULL REFERENCES events(id),
			academy_id UUID NOT NULL REFERENCES academies(id),
			salesperson_id UUID NOT NULL REFERENCES users(id),
			status TEXT NOT NULL CHECK (status IN ('PENDING', 'VISITED')),
			started_at TIMESTAMPTZ,
			finished_at TIMESTAMPTZ,
			contact_person TEXT CHECK (contact_person IN ('OWNER', 'TEACHER', 'STAFF', 'NOBODY')),
			temperature TEXT CHECK (temperature IN ('HOT', 'WARM', 'COLD')),
			summary TEXT NOT NULL DEFAULT '',
			left_banner BOOLEAN NOT NULL DEFAULT false,
			left_flyers BOOLEAN NOT NULL DEFAULT false,
			photos TEXT[] NOT NULL DEFAULT '{}',
			vouchers_generated TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		// One visit per (event, academy) pair. Data imported from before
		// this constraint existed must be deduplicated by the reconcile
		// tool before the index can be created.
		`CREATE UNIQUE INDEX IF NOT EXISTS visits_event_academy_idx
			ON visits (event_id, academy_id)`,

		`CREATE INDEX IF NOT EXISTS visits_salesperson_status_idx
			ON visits (salesperson_id, status)`,

		`CREATE TABLE IF NOT EXISTS vouchers (
			code TEXT PRIMARY KEY,
			visit_id UUID NOT NULL REFERENCES visits(id) ON DELETE CASCADE,
			academy_id UUID NOT NULL REFERENCES academies(id),
			event_id UUID NOT NULL REFERENCES events(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE INDEX IF NOT EXISTS vouchers_visit_idx ON vouchers (visit_id)`,
		`CREATE INDEX IF NOT EXISTS vouchers_event_idx ON vouchers (event_id)`,

		`CREATE TABLE IF NOT EXISTS finance_records (
			id UUID PRIMARY KEY,
			salesperson_id UUID NOT NULL REFERENCES users(id),
			event_id UUID NOT NULL REFERENCES events(id),
			description TEXT NOT NULL DEFAULT '',
			amount_cents BIGINT NOT NULL,
			status TEXT NOT NULL CHECK (status IN ('PENDING', 'APPROVED', 'PAID', 'REJECTED')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for i, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query %d: %w", i+1, err)
		}
	}
	fmt.Println("  Created: users, academies, events, visits, vouchers, finance_records")

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	adminHash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	salesHash, err := bcrypt.GenerateFromPassword([]byte("sales123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash salesperson password: %w", err)
	}

	adminID := uuid.NewString()
	salesID := uuid.NewString()

	users := []struct {
		id, name, email, hash, role string
	}{
		{adminID, "Admin", "admin@bjjvisits.com", string(adminHash), "ADMIN"},
		{salesID, "Sales Rep", "sales@bjjvisits.com", string(salesHash), "SALESPERSON"},
	}
	for _, u := range users {
		_, err := conn.Exec(ctx,
			`INSERT INTO users (id, name, email, password_hash, role)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (email) DO NOTHING`,
			u.id, u.name, u.email, u.hash, u.role)
		if err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.email, err)
		}
	}
	fmt.Println("  Seeded users: admin@bjjvisits.com / sales@bjjvisits.com")

	academies := []struct {
		name, city, state string
	}{
		{"Gracie Barra Downtown", "Austin", "TX"},
		{"Alliance North", "Dallas", "TX"},
		{"Atos HQ", "San Diego", "CA"},
	}
	for _, a := range academies {
		_, err := conn.Exec(ctx,
			`INSERT INTO academies (id, name, city, state) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), a.name, a.city, a.state)
		if err != nil {
			return fmt.Errorf("failed to seed academy %s: %w", a.name, err)
		}
	}
	fmt.Println("  Seeded academies")

	now := time.Now().UTC()
	_, err = conn.Exec(ctx,
		`INSERT INTO events (id, name, city, state, status, salesperson_id, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.NewString(), "Austin Open", "Austin", "TX", "ACTIVE",
		salesID, now, now.Add(48*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to seed event: %w", err)
	}
	fmt.Println("  Seeded event: Austin Open")

	return nil
}
