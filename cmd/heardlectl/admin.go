package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sakif/heardle/internal/auth"
)

func adminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "admin API helpers",
		Subcommands: []*cli.Command{
			{
				Name:  "hash-key",
				Usage: "bcrypt a provisioning key for ADMIN_KEY_HASH; reads the key from stdin when --key is not set",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "key"},
					&cli.IntFlag{Name: "cost", Value: auth.DefaultKeyCost},
				},
				Action: func(c *cli.Context) error {
					key := c.String("key")
					if key == "" {
						line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
						if err != nil && line == "" {
							return fmt.Errorf("reading key from stdin: %w", err)
						}
						key = strings.TrimRight(line, "\r\n")
					}

					hash, err := auth.HashAdminKey(key, c.Int("cost"))
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, hash)
					return nil
				},
			},
		},
	}
}
