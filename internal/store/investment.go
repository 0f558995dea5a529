package store

import (
	"context"
	"fmt"

	"github.com/harshitajain06/Finji/internal/utils"
	"github.com/harshitajain06/Finji/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const investmentTableName = "finji.investments"

var investmentColumns = utils.StructTagValues(types.Investment{})

type InvestmentRepository struct {
	pool *pgxpool.Pool
}

func NewInvestmentRepository(pool *pgxpool.Pool) *InvestmentRepository {
	return &InvestmentRepository{pool: pool}
}

func (r *InvestmentRepository) InvestmentsByInvestor(ctx context.Context, investorID string) ([]*types.Investment, error) {

	query, args, err := psql().Select(investmentColumns...).From(investmentTableName).
		Where(sq.Eq{"investor_id": investorID}).
		OrderBy("invested_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate investments-by-investor query: %w", err)
	}

	var investments = make([]*types.Investment, 0)
	err = pgxscan.Select(ctx, r.pool, &investments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch investments by investor: %w", err)
	}

	return investments, nil
}

func (r *InvestmentRepository) InvestmentsByPost(ctx context.Context, postID string) ([]*types.Investment, error) {

	query, args, err := psql().Select(investmentColumns...).From(investmentTableName).
		Where(sq.Eq{"post_id": postID}).
		OrderBy("invested_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate investments-by-post query: %w", err)
	}

	var investments = make([]*types.Investment, 0)
	err = pgxscan.Select(ctx, r.pool, &investments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch investments by post: %w", err)
	}

	return investments, nil
}
