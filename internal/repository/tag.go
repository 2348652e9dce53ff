package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

type CategoryRepository struct {
	logger *logrus.Logger
}

func NewCategoryRepository(logger *logrus.Logger) *CategoryRepository {
	return &CategoryRepository{logger: logger}
}

func (r *CategoryRepository) Create(ctx context.Context, q Querier, c *model.TransactionCategory) error {
	query := `
		INSERT INTO transaction_categories (id, user_id, name, icon, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := q.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Icon, c.Color, c.CreatedAt); err != nil {
		return translate(err, "failed to create category")
	}
	return nil
}

func (r *CategoryRepository) GetByIDForUser(ctx context.Context, q Querier, id, userID uuid.UUID) (*model.TransactionCategory, error) {
	query := `
		SELECT id, user_id, name, icon, color, created_at
		FROM transaction_categories
		WHERE id = $1 AND user_id = $2
	`

	var c model.TransactionCategory
	err := q.QueryRowContext(ctx, query, id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &c.CreatedAt)
	if err != nil {
		return nil, translate(err, "failed to get category")
	}
	return &c, nil
}

func (r *CategoryRepository) ListByUser(ctx context.Context, q Querier, userID uuid.UUID) ([]model.TransactionCategory, error) {
	query := `
		SELECT id, user_id, name, icon, color, created_at
		FROM transaction_categories
		WHERE user_id = $1
		ORDER BY name ASC
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translate(err, "failed to list categories")
	}
	defer rows.Close()

	var categories []model.TransactionCategory
	for rows.Next() {
		var c model.TransactionCategory
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(ctx context.Context, q Querier, c *model.TransactionCategory) error {
	res, err := q.ExecContext(ctx,
		`UPDATE transaction_categories SET name = $1, icon = $2, color = $3 WHERE id = $4 AND user_id = $5`,
		c.Name, c.Icon, c.Color, c.ID, c.UserID,
	)
	if err != nil {
		return translate(err, "failed to update category")
	}
	return rowsAffected(res, "failed to update category")
}

func (r *CategoryRepository) Delete(ctx context.Context, q Querier, id, userID uuid.UUID) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM transaction_categories WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return translate(err, "failed to delete category")
	}
	return rowsAffected(res, "failed to delete category")
}

type ServiceRepository struct {
	logger *logrus.Logger
}

func NewServiceRepository(logger *logrus.Logger) *ServiceRepository {
	return &ServiceRepository{logger: logger}
}

func (r *ServiceRepository) Create(ctx context.Context, q Querier, s *model.TransactionService) error {
	query := `
		INSERT INTO transaction_services (id, user_id, name, description, icon, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := q.ExecContext(ctx, query, s.ID, s.UserID, s.Name, s.Description, s.Icon, s.Color, s.CreatedAt); err != nil {
		return translate(err, "failed to create service")
	}
	return nil
}

// GetVisible возвращает глобальный сервис или сервис пользователя
func (r *ServiceRepository) GetVisible(ctx context.Context, q Querier, id, userID uuid.UUID) (*model.TransactionService, error) {
	query := `
		SELECT id, user_id, name, description, icon, color, created_at
		FROM transaction_services
		WHERE id = $1 AND (user_id IS NULL OR user_id = $2)
	`

	var s model.TransactionService
	err := q.QueryRowContext(ctx, query, id, userID).Scan(
		&s.ID, &s.UserID, &s.Name, &s.Description, &s.Icon, &s.Color, &s.CreatedAt,
	)
	if err != nil {
		return nil, translate(err, "failed to get service")
	}
	return &s, nil
}

func (r *ServiceRepository) ListVisible(ctx context.Context, q Querier, userID uuid.UUID) ([]model.TransactionService, error) {
	query := `
		SELECT id, user_id, name, description, icon, color, created_at
		FROM transaction_services
		WHERE user_id IS NULL OR user_id = $1
		ORDER BY name ASC
	`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translate(err, "failed to list services")
	}
	defer rows.Close()

	var services []model.TransactionService
	for rows.Next() {
		var s model.TransactionService
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.Description, &s.Icon, &s.Color, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// Update и Delete затрагивают только собственные сервисы пользователя
func (r *ServiceRepository) Update(ctx context.Context, q Querier, s *model.TransactionService) error {
	res, err := q.ExecContext(ctx,
		`UPDATE transaction_services SET name = $1, description = $2, icon = $3, color = $4 WHERE id = $5 AND user_id = $6`,
		s.Name, s.Description, s.Icon, s.Color, s.ID, s.UserID,
	)
	if err != nil {
		return translate(err, "failed to update service")
	}
	return rowsAffected(res, "failed to update service")
}

func (r *ServiceRepository) Delete(ctx context.Context, q Querier, id, userID uuid.UUID) error {
	res, err := q.ExecContext(ctx,
		`DELETE FROM transaction_services WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return translate(err, "failed to delete service")
	}
	return rowsAffected(res, "failed to delete service")
}
