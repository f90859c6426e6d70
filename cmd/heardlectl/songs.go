package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/sakif/heardle/internal/apperror"
	"github.com/sakif/heardle/internal/service"
)

func songsCommand() *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "manage the song catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "add one song",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "stable id (generated when empty)"},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "album"},
					&cli.StringFlag{Name: "link", Required: true, Usage: "audio URL"},
					&cli.StringFlag{Name: "cover", Usage: "cover art URL"},
					&cli.IntFlag{Name: "duration", Required: true, Usage: "length in seconds"},
				},
				Action: func(c *cli.Context) error {
					return withServices(c, func(s *services) error {
						song, err := s.catalog.AddSong(c.Context, service.SongInput{
							ID:       c.String("id"),
							Name:     c.String("name"),
							Album:    c.String("album"),
							Link:     c.String("link"),
							Cover:    c.String("cover"),
							Duration: c.Int("duration"),
						})
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "added %s %q\n", song.ID, song.Name)
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "list every song by name",
				Action: func(c *cli.Context) error {
					return withServices(c, func(s *services) error {
						songs, err := s.catalog.ListSongs(c.Context)
						if err != nil {
							return err
						}
						tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
						fmt.Fprintln(tw, "ID\tNAME\tALBUM\tDURATION")
						for _, song := range songs {
							fmt.Fprintf(tw, "%s\t%s\t%s\t%ds\n", song.ID, song.Name, song.Album, song.Duration)
						}
						return tw.Flush()
					})
				},
			},
			{
				Name:      "import",
				Usage:     "add songs from a YAML list; names already in the catalog are skipped",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.New("import needs exactly one FILE argument")
					}
					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					var inputs []service.SongInput
					if err := yaml.Unmarshal(data, &inputs); err != nil {
						return fmt.Errorf("parsing %s: %w", c.Args().First(), err)
					}

					return withServices(c, func(s *services) error {
						var added, skipped int
						for i, in := range inputs {
							_, err := s.catalog.AddSong(c.Context, in)
							switch {
							case err == nil:
								added++
							case errors.Is(err, apperror.ErrConflict):
								skipped++
							default:
								return fmt.Errorf("entry %d (%q): %w", i+1, in.Name, err)
							}
						}
						fmt.Fprintf(c.App.Writer, "imported %d songs, skipped %d existing\n", added, skipped)
						return nil
					})
				},
			},
		},
	}
}
