package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mmynk/findash/internal/auth"
	"github.com/mmynk/findash/internal/config"
	"github.com/mmynk/findash/internal/seed"
	"github.com/mmynk/findash/internal/storage/sqlite"
	"github.com/mmynk/findash/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	reset := flag.Bool("reset", false, "Delete all users and transactions before seeding")
	dbPath := flag.String("db", cfg.DBPath, "Path to database file")
	flag.Parse()

	logger := logging.Setup(cfg.LogLevel, true)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Error("Failed to open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	seeder := seed.New(store, auth.NewPasswordAuthenticator(store), logger)
	res, err := seeder.Run(context.Background(), *reset)
	if err != nil {
		logger.Error("Seeding failed", "error", err)
		store.Close()
		os.Exit(1)
	}

	logger.Info("Database seeded",
		"users", res.Users,
		"transactions", res.Transactions,
		"skipped", len(res.Skipped),
	)
	if len(res.Skipped) > 0 {
		logger.Info("Run with -reset to recreate existing sample users")
	}

	fmt.Println("\nLogin credentials:")
	for _, u := range seed.Users {
		fmt.Printf("Email: %s, Password: %s\n", u.Email, seed.DefaultPassword)
	}
}
