package main

import (
	"context"
	"fmt"

	"github.com/harshitajain06/Finji/internal/db"
	"github.com/harshitajain06/Finji/internal/seed"
	"github.com/harshitajain06/Finji/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with demo funding posts",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"c"},
			Usage:   "Number of posts to create",
			Value:   10,
		},
		&cli.BoolFlag{
			Name:  "dump",
			Usage: "Pretty-print the seeded posts",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		postsRepo := store.NewPostRepository(pool)
		ledger := store.NewLedger(pool)

		logrus.WithField("count", c.Int("count")).Info("Seeding funding posts...")
		posts, err := seed.SeedFakePosts(ctx, postsRepo, ledger, c.Int("count"))
		if err != nil {
			return fmt.Errorf("failed to seed posts: %w", err)
		}

		if c.Bool("dump") {
			pp.Println(posts)
		}

		logrus.WithField("created", len(posts)).Info("Funding posts seeded successfully")

		return nil
	},
}
