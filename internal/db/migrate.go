package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harshitajain06/Finji/internal/db/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded goose migrations against the database.
func RunMigrations(ctx context.Context, dsn string) error {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer conn.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, conn, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
