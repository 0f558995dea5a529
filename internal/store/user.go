package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harshitajain06/Finji/internal/utils"
	"github.com/harshitajain06/Finji/pkg/types"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userTableName = "finji.users"

var userColumns = utils.StructTagValues(types.User{})

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) User(ctx context.Context, userID string) (*types.User, error) {
	query, args, err := psql().
		Select(userColumns...).
		From(userTableName).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user query: %w", err)
	}

	var user types.User
	err = pgxscan.Get(ctx, r.pool, &user, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

// Create inserts a new user. The role comes from registration and must be one
// of the closed set; there is no side channel repurposing another field.
func (r *UserRepository) Create(ctx context.Context, user *types.User) error {
	if !user.Role.Valid() {
		return types.ErrInvalidRole
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query, args, err := psql().
		Insert(userTableName).
		SetMap(utils.StructToMap(user)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate create user query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpsertIdentity refreshes the locally mirrored identity fields from token
// claims. Role is only written on first insert; an existing row keeps the
// role chosen at registration.
func (r *UserRepository) UpsertIdentity(ctx context.Context, userID, email, displayName string, role types.Role) error {
	if !role.Valid() {
		role = types.RoleApplicant
	}

	now := time.Now()

	var emailPtr *string
	trimmedEmail := strings.TrimSpace(email)
	if trimmedEmail != "" {
		emailPtr = &trimmedEmail
	}

	var displayNamePtr *string
	trimmedDisplayName := strings.TrimSpace(displayName)
	if trimmedDisplayName != "" {
		displayNamePtr = &trimmedDisplayName
	}

	query, args, err := psql().
		Insert(userTableName).
		Columns("id", "role", "email", "display_name", "created_at", "updated_at").
		Values(userID, role, emailPtr, displayNamePtr, now, now).
		Suffix("ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate upsert identity query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to upsert user identity fields: %w", err)
	}

	return nil
}
