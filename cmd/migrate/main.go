package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"azbeauty-be/internal/logger"
	"azbeauty-be/migrations"
)

var commands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"redo":      true,
	"status":    true,
	"version":   true,
}

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	cmd := flag.String("cmd", "up", "migration command: up|up-by-one|down|redo|status|version")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.L().Fatal("DATABASE_URL not set in environment")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer db.Close()

	if err := run(context.Background(), db, *cmd, flag.Args()...); err != nil {
		logger.L().Fatal("migration failed", zap.String("cmd", *cmd), zap.Error(err))
	}
}

// run executes a goose command against the embedded migrations.
func run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if !commands[command] {
		return fmt.Errorf("unknown command: %s", command)
	}
	if db == nil {
		return fmt.Errorf("db is required")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	logger.L().Info("running migrations", zap.String("cmd", command))
	if err := goose.RunContext(ctx, command, db, ".", args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
