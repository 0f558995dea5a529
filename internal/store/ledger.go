package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harshitajain06/Finji/internal/utils"
	"github.com/harshitajain06/Finji/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger owns the two writes behind a support action: appending the
// investment row and bumping the post's funded counter. Both run inside a
// single transaction so a crash between them cannot leave an investment
// unreflected in the total, and the increment itself is applied in SQL rather
// than read-modify-write so concurrent investors cannot race the counter.
type Ledger struct {
	pool *pgxpool.Pool
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// RecordInvestment assigns the investment its ID and timestamp, writes it,
// increments the target post's funded total, and returns the updated total.
func (l *Ledger) RecordInvestment(ctx context.Context, inv *types.Investment) (decimal.Decimal, error) {

	now := time.Now()
	inv.ID = utils.NanoID()
	inv.InvestedAt = now

	insertQuery, insertArgs, err := psql().Insert(investmentTableName).
		SetMap(utils.StructToMap(inv)).
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to generate insert investment query: %w", err)
	}

	updateQuery, updateArgs, err := psql().Update(postTableName).
		Set("funded", sq.Expr("funded + ?", inv.Amount)).
		Set("updated_at", now).
		Where(sq.Eq{"id": inv.PostID}).
		Suffix("RETURNING funded").
		ToSql()
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to generate funded increment query: %w", err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to begin investment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertQuery, insertArgs...)
	if err != nil {
		return decimal.Zero, utils.WrapError(err, "failed to record investment")
	}

	var funded decimal.Decimal
	err = tx.QueryRow(ctx, updateQuery, updateArgs...).Scan(&funded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, types.ErrPostNotFound
		}
		return decimal.Zero, utils.WrapError(err, "failed to increment funded total")
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("failed to commit investment transaction: %w", err)
	}

	return funded, nil
}
