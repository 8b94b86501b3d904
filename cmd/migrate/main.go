package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"lost-persons/config"
	"lost-persons/internal/repository"
	"lost-persons/pkg/database"
	"lost-persons/pkg/logger"

	"go.uber.org/zap"
)

const usage = `
Lost Persons - Database CLI Tool

Usage:
  migrate [flags] [command]

Commands:
  up          Apply pending SQL migrations
  status      Show connection status and applied migrations
  seed        Create or verify the admin account
  seed-dev    Seed admin, test users, a sample report and a conversation

Flags:
  -admin-email string  Admin email for seeding (default "admin@lostpersons.local")
  -admin-pass string   Admin password for seeding (default "Admin@123!")

Examples:
  go run ./cmd/migrate up
  go run ./cmd/migrate -admin-email ops@example.org seed
  go run ./cmd/migrate seed-dev
`

func main() {
	defaults := database.DefaultSeedConfig()
	adminEmail := flag.String("admin-email", defaults.AdminEmail, "Admin email for seeding")
	adminPass := flag.String("admin-pass", defaults.AdminPassword, "Admin password for seeding")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	command := flag.Arg(0)

	cfg := config.LoadConfig()
	log := logger.New(logger.DevelopmentMode)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	switch command {
	case "up":
		if err := database.ApplyMigrations(ctx, db, log); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		log.Info("migrations completed")
	case "status":
		if err := showStatus(ctx, db, log); err != nil {
			log.Fatal("status failed", zap.Error(err))
		}
	case "seed":
		admin, err := database.SeedProduction(ctx, repository.NewPostgresStore(db), *adminEmail, *adminPass, log)
		if err != nil {
			log.Fatal("seeding failed", zap.Error(err))
		}
		log.Info("production seeding completed", zap.String("admin_id", admin.ID.String()))
	case "seed-dev":
		res, err := database.SeedDevelopment(ctx, repository.NewPostgresStore(db), log)
		if err != nil {
			log.Fatal("seeding failed", zap.Error(err))
		}
		log.Info("development seeding completed",
			zap.String("admin", res.AdminUser.Email),
			zap.Int("test_users", len(res.TestUsers)),
			zap.Int("conversations", len(res.Conversations)),
			zap.Int("messages", len(res.Messages)),
		)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func showStatus(ctx context.Context, db *sql.DB, log *logger.Logger) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	log.Info("database connection ok")

	applied, err := database.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	names, err := database.MigrationNames()
	if err != nil {
		return err
	}
	pending := 0
	for _, name := range names {
		if applied[name] {
			log.Info("migration applied", zap.String("name", name))
			continue
		}
		pending++
		log.Warn("migration pending", zap.String("name", name))
	}
	log.Info("migration status", zap.Int("total", len(names)), zap.Int("pending", pending))
	return nil
}
