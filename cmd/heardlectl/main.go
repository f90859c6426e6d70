// Command heardlectl provisions a Heardle database: it loads the song
// catalog, sets each day's puzzle and hashes the admin key for the server
// config.
//
// The server never rotates the daily puzzle itself. Run
//
//	heardlectl daily set --song <id> --start 42 --day 413
//
// from cron at or just after the reset hour, or use PUT /api/admin/daily.
// The puzzle goes live as soon as it is set.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/sakif/heardle/internal/game"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newApp(os.Stdout, os.Stdin).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "heardlectl:", err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer, stdin io.Reader) *cli.App {
	return &cli.App{
		Name:      "heardlectl",
		Usage:     "manage the Heardle song catalog and daily puzzles",
		Writer:    stdout,
		ErrWriter: stdout,
		Reader:    stdin,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path to the SQLite database",
				Value:   "data/heardle.db",
				EnvVars: []string{"DB_PATH"},
			},
			&cli.IntFlag{
				Name:    "reset-hour",
				Usage:   "UTC hour the daily puzzle rolls over",
				Value:   game.DefaultResetHourUTC,
				EnvVars: []string{"RESET_HOUR_UTC"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log service activity to stderr",
			},
		},
		Commands: []*cli.Command{
			songsCommand(),
			dailyCommand(),
			adminCommand(),
		},
	}
}

func newLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
