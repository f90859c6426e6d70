package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	sqliteRepo "github.com/sakif/heardle/internal/repository/sqlite"
	"github.com/sakif/heardle/internal/service"
)

// services is what the provisioning commands work through. They go via the
// same service layer as the HTTP API so validation is identical.
type services struct {
	catalog *service.CatalogService
	puzzles *service.PuzzleService
}

// withServices opens the database for the duration of fn.
func withServices(c *cli.Context, fn func(*services) error) error {
	path := c.String("db")
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := newLogger(c)
	return fn(&services{
		catalog: service.NewCatalogService(db, logger),
		puzzles: service.NewPuzzleService(db, db, c.Int("reset-hour"), logger),
	})
}
