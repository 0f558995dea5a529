package store

import (
	"context"
	"fmt"
	"time"

	"github.com/harshitajain06/Finji/internal/utils"
	"github.com/harshitajain06/Finji/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postTableName = "finji.funding_posts"

var postColumns = utils.StructTagValues(types.FundingPost{})

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) Post(ctx context.Context, postID string) (*types.FundingPost, error) {

	query, args, err := psql().Select(postColumns...).From(postTableName).
		Where(sq.Eq{"id": postID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate post query: %w", err)
	}

	var post = new(types.FundingPost)
	err = pgxscan.Get(ctx, r.pool, post, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}

	return post, nil
}

// Posts returns the entire collection, newest first. There is no pagination
// cursor; the browse surface fetches everything in one shot.
func (r *PostRepository) Posts(ctx context.Context) ([]*types.FundingPost, error) {

	query, args, err := psql().Select(postColumns...).From(postTableName).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate posts query: %w", err)
	}

	var posts = make([]*types.FundingPost, 0)
	err = pgxscan.Select(ctx, r.pool, &posts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts: %w", err)
	}

	return posts, nil
}

func (r *PostRepository) PostsByOwner(ctx context.Context, userID string) ([]*types.FundingPost, error) {

	query, args, err := psql().Select(postColumns...).From(postTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate posts-by-owner query: %w", err)
	}

	var posts = make([]*types.FundingPost, 0)
	err = pgxscan.Select(ctx, r.pool, &posts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts by owner: %w", err)
	}

	return posts, nil
}

// LatestPostByOwner drives edit-mode selection on the post screen: when an
// applicant already has a post, the most recent one is updated in place
// instead of creating a second. This is a soft policy, not a constraint.
func (r *PostRepository) LatestPostByOwner(ctx context.Context, userID string) (*types.FundingPost, error) {

	query, args, err := psql().Select(postColumns...).From(postTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at desc").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate latest-post query: %w", err)
	}

	var post = new(types.FundingPost)
	err = pgxscan.Get(ctx, r.pool, post, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch latest post by owner: %w", err)
	}

	return post, nil
}

func (r *PostRepository) PostsByIDs(ctx context.Context, postIDs []string) ([]*types.FundingPost, error) {
	if len(postIDs) == 0 {
		return []*types.FundingPost{}, nil
	}

	query, args, err := psql().Select(postColumns...).From(postTableName).
		Where(sq.Eq{"id": postIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate posts-by-ids query: %w", err)
	}

	var posts = make([]*types.FundingPost, 0)
	err = pgxscan.Select(ctx, r.pool, &posts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch posts by ids: %w", err)
	}

	return posts, nil
}

func (r *PostRepository) CreatePost(ctx context.Context, post *types.FundingPost) error {

	now := time.Now()
	post.ID = utils.NanoID()
	post.CreatedAt = now
	post.UpdatedAt = now

	postMap := utils.StructToMap(post)

	query, args, err := psql().Insert(postTableName).SetMap(postMap).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate insert post query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	return utils.ErrorWrapOrNil(err, "failed to create post")
}

func (r *PostRepository) UpdatePost(ctx context.Context, postID string, post *types.FundingPost) error {

	post.ID = postID
	post.UpdatedAt = time.Now()

	postMap := utils.StructToMap(post)

	// Funded and CreatedAt belong to the ledger and the original create; an
	// applicant edit must not clobber either.
	delete(postMap, "funded")
	delete(postMap, "created_at")

	query, args, err := psql().Update(postTableName).SetMap(postMap).Where(sq.Eq{"id": postID}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate update post query for post %s: %w", postID, err)
	}

	_, err = r.pool.Exec(ctx, query, args...)

	return utils.ErrorWrapOrNil(err, "failed to update post")
}
