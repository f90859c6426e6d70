// Package main is the entry point for the Heardle server.
//
// main stays minimal:
//  1. Load configuration (.env, config.yaml, environment)
//  2. Create the logger at the configured level
//  3. Make sure the database directory exists
//  4. Build and start the server
//
// Everything else lives under internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/heardle/internal/config"
	"github.com/sakif/heardle/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	// Validate already checked the level name.
	level, _ := config.ParseLevel(cfg.Server.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// 0755: owner read/write/execute, everyone else read/execute.
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("path", cfg.Database.Path),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
