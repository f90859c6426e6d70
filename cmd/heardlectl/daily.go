package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/sakif/heardle/internal/game"
)

func dailyCommand() *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "provision the daily puzzle",
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "create a day's puzzle and make it current",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "song", Required: true, Usage: "song id"},
					&cli.IntFlag{Name: "start", Usage: "clip start offset in seconds"},
					&cli.IntFlag{Name: "day", Required: true, Usage: "day number, 1 or greater"},
				},
				Action: func(c *cli.Context) error {
					return withServices(c, func(s *services) error {
						p, err := s.puzzles.SetDaily(c.Context, c.String("song"), c.Int("start"), c.Int("day"))
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "day %d is now %s (%q from %ds)\n", p.Day, p.ID, p.Song.Name, p.StartOffset)
						return nil
					})
				},
			},
			{
				Name:  "show",
				Usage: "print the current daily puzzle and the time to the next reset",
				Action: func(c *cli.Context) error {
					return withServices(c, func(s *services) error {
						now := time.Now()
						p, err := s.puzzles.GetDailyPuzzle(c.Context, now)
						if err != nil {
							return err
						}
						cd := game.TimeUntilNextReset(now, c.Int("reset-hour"))
						fmt.Fprintf(c.App.Writer, "day %d: %s\n  song:  %q (%s)\n  start: %ds\n  set:   %s\n  next reset in %02d:%02d:%02d\n",
							p.Day, p.ID, p.Song.Name, p.Song.ID, p.StartOffset,
							p.CreatedAt.UTC().Format(time.RFC3339), cd.Hours, cd.Minutes, cd.Seconds)
						return nil
					})
				},
			},
		},
	}
}
