package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

type UserRepository struct {
	logger *logrus.Logger
}

func NewUserRepository(logger *logrus.Logger) *UserRepository {
	return &UserRepository{logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, q Querier, user *model.User) error {
	query := `
		INSERT INTO users (id, alias, email, token_hash, is_admin, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		user.ID,
		user.Alias,
		user.Email,
		user.TokenHash,
		user.IsAdmin,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return translate(err, "failed to create user")
	}
	return nil
}

func (r *UserRepository) FindByAlias(ctx context.Context, q Querier, alias string) (*model.User, error) {
	query := `
		SELECT id, alias, email, token_hash, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE alias = $1
	`

	var user model.User
	err := q.QueryRowContext(ctx, query, alias).Scan(
		&user.ID,
		&user.Alias,
		&user.Email,
		&user.TokenHash,
		&user.IsAdmin,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "failed to find user by alias")
	}
	return &user, nil
}

func (r *UserRepository) ExistsByAlias(ctx context.Context, q Querier, alias string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE alias = $1)`, alias).Scan(&exists)
	if err != nil {
		return false, translate(err, "failed to check user existence")
	}
	return exists, nil
}

func (r *UserRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, alias, email, token_hash, is_admin, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := q.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Alias,
		&user.Email,
		&user.TokenHash,
		&user.IsAdmin,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err, "failed to find user by ID")
	}
	return &user, nil
}
