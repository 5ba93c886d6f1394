package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinicbook/clinic-booking/internal/config"
	"github.com/clinicbook/clinic-booking/internal/db"
	"github.com/clinicbook/clinic-booking/internal/slot"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAdmin(ctx, pool, cfg.BcryptCost); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	if err := seedTestPatient(ctx, pool, cfg.BcryptCost); err != nil {
		log.Fatalf("seed test patient: %v", err)
	}
	if err := seedDemoPatients(ctx, pool, cfg.BcryptCost, 25); err != nil {
		log.Fatalf("seed demo patients: %v", err)
	}
	if err := seedSlots(ctx, pool, cfg); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func insertUser(ctx context.Context, pool *pgxpool.Pool, name, email, password, role string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (email) DO NOTHING
	`, uuid.New(), name, email, string(hash), role)
	return err
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, cost int) error {
	name := getenv("ADMIN_NAME", "Clinic Admin")
	email := getenv("ADMIN_EMAIL", "admin@example.com")
	password := getenv("ADMIN_PASSWORD", "Passw0rd!")

	log.Printf("seeding admin user %s", email)
	return insertUser(ctx, pool, name, email, password, "admin", cost)
}

func seedTestPatient(ctx context.Context, pool *pgxpool.Pool, cost int) error {
	log.Println("seeding test patient patient@example.com")
	return insertUser(ctx, pool, "Test Patient", "patient@example.com", "Passw0rd!", "patient", cost)
}

func seedDemoPatients(ctx context.Context, pool *pgxpool.Pool, cost, count int) error {
	log.Printf("seeding %d demo patients", count)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := gofakeit.Email()
		if err := insertUser(ctx, pool, name, email, gofakeit.Password(true, true, true, false, false, 12), "patient", cost); err != nil {
			return err
		}
	}
	return nil
}

// seedSlots builds the rolling horizon of 30-minute slots: SlotsPerDay slots
// per day starting at SlotDayStart, for each day of the booking horizon.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	days := int(cfg.BookingHorizon.Hours() / 24)
	if days <= 0 {
		days = 7
	}

	log.Printf("seeding %d days of slots, %d per day from %02d:00", days, cfg.SlotsPerDay, cfg.SlotDayStart)

	now := time.Now()
	inserted := 0
	for day := 0; day < days; day++ {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), cfg.SlotDayStart, 0, 0, 0, now.Location()).AddDate(0, 0, day)

		for i := 0; i < cfg.SlotsPerDay; i++ {
			startAt := dayStart.Add(time.Duration(i) * slot.Duration)
			endAt := startAt.Add(slot.Duration)

			tag, err := pool.Exec(ctx, `
				INSERT INTO slots (id, start_at, end_at, booked, created_at, updated_at)
				VALUES ($1, $2, $3, FALSE, now(), now())
				ON CONFLICT (start_at, end_at) DO NOTHING
			`, uuid.New(), startAt, endAt)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
	}

	log.Printf("inserted %d new slots", inserted)
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
