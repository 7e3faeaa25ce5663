// Package main is the entry point for the Whispering Network server.
//
// MAIN PACKAGE IN GO:
// main stays minimal. Its job is to:
//  1. Read configuration (.env, config.yaml, environment variables)
//  2. Create dependencies (logger, database directory)
//  3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...), which keeps them testable without a process.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/sakif/whispering-network/internal/config"
	"github.com/sakif/whispering-network/internal/server"
)

func main() {
	// === 1. LOAD .env ===
	// A missing .env is normal in production, where real environment
	// variables are used instead.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env", slog.String("error", err.Error()))
	}

	// === 2. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. SET UP LOGGING ===
	logger := config.NewLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	// === 4. DATABASE DIRECTORY ===
	// os.MkdirAll is `mkdir -p`. Only the sqlite driver writes a file.
	if cfg.Database.Driver == config.DriverSQLite {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(context.Background(), *cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
