// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"log"
	"os"

	"codeberg.org/acmclub/certificates/internal/config"
	"codeberg.org/acmclub/certificates/internal/server"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:   "app",
		Usage:  "ACM certificate management API",
		Flags:  config.Flags(),
		Action: server.Run,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API (default)",
				Action: server.Run,
			},
			{
				Name:   "init-admin",
				Usage:  "Create the configured bootstrap admin",
				Action: initAdmin,
			},
			{
				Name:   "seed",
				Usage:  "Load sample workshops and certificates",
				Action: seedData,
			},
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Commands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: migrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back the last migration",
						Action: migrateDown,
					},
					{
						Name:   "status",
						Usage:  "Show applied migrations",
						Action: migrateStatus,
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
