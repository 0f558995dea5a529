package main

import (
	"context"
	"fmt"

	"github.com/harshitajain06/Finji/internal/db"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply database migrations",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := db.RunMigrations(context.Background(), cfg.DatabaseURL); err != nil {
			return err
		}

		logrus.Info("migrations applied")
		return nil
	},
}
