package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

const accountColumns = `
	id, user_id, description, is_monthly, month, year, date, currency, amount, color, is_default,
	balance, expense_amount, income_amount, ideal_daily_expenditure, real_daily_expenditure,
	left_daily_expenditure, real_days_spent, days_in_debt, created_at, updated_at`

type AccountRepository struct {
	logger *logrus.Logger
}

func NewAccountRepository(logger *logrus.Logger) *AccountRepository {
	return &AccountRepository{logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Description,
		&a.IsMonthly,
		&a.Month,
		&a.Year,
		&a.Date,
		&a.Currency,
		&a.Amount,
		&a.Color,
		&a.IsDefault,
		&a.Balance,
		&a.ExpenseAmount,
		&a.IncomeAmount,
		&a.IdealDailyExpenditure,
		&a.RealDailyExpenditure,
		&a.LeftDailyExpenditure,
		&a.RealDaysSpent,
		&a.DaysInDebt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// lib/pq отдает TIMESTAMPTZ в зоне сессии; якорь периода хранится в UTC
	a.Date = a.Date.UTC()
	return &a, nil
}

func (r *AccountRepository) queryAccounts(ctx context.Context, q Querier, op, query string, args ...any) ([]model.Account, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, op)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan account: %w", op, err)
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return accounts, nil
}

func (r *AccountRepository) Create(ctx context.Context, q Querier, a *model.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		a.ID,
		a.UserID,
		a.Description,
		a.IsMonthly,
		a.Month,
		a.Year,
		a.Date,
		a.Currency,
		a.Amount,
		a.Color,
		a.IsDefault,
		a.Balance,
		a.ExpenseAmount,
		a.IncomeAmount,
		a.IdealDailyExpenditure,
		a.RealDailyExpenditure,
		a.LeftDailyExpenditure,
		a.RealDaysSpent,
		a.DaysInDebt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithField("account_id", a.ID).Error("Ошибка при создании счета")
		return translate(err, "failed to create account")
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, q Querier, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "failed to get account")
	}
	return a, nil
}

func (r *AccountRepository) GetByIDForUser(ctx context.Context, q Querier, id, userID uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`

	a, err := scanAccount(q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err, "failed to get account")
	}
	return a, nil
}

// GetByIDForUpdate блокирует строку счета до конца транзакции.
// Все изменения метрик одного счета выполняются последовательно.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, q Querier, id uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	a, err := scanAccount(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "failed to lock account")
	}
	return a, nil
}

func (r *AccountRepository) FindByPeriod(ctx context.Context, q Querier, userID uuid.UUID, month model.Month, year int) (*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND is_monthly AND month = $2 AND year = $3
	`

	a, err := scanAccount(q.QueryRowContext(ctx, query, userID, month, year))
	if err != nil {
		return nil, translate(err, "failed to find account by period")
	}
	return a, nil
}

func (r *AccountRepository) GetDefault(ctx context.Context, q Querier, userID uuid.UUID) (*model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND is_default`

	a, err := scanAccount(q.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, translate(err, "failed to get default account")
	}
	return a, nil
}

// GetLatest возвращает месячный счет с наибольшим периодом
func (r *AccountRepository) GetLatest(ctx context.Context, q Querier, userID uuid.UUID) (*model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND is_monthly
		ORDER BY date DESC
		LIMIT 1
	`

	a, err := scanAccount(q.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, translate(err, "failed to get latest account")
	}
	return a, nil
}

func (r *AccountRepository) CountByUser(ctx context.Context, q Querier, userID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, translate(err, "failed to count accounts")
	}
	return n, nil
}

func (r *AccountRepository) List(ctx context.Context, q Querier, userID uuid.UUID, f model.AccountFilter) ([]model.Account, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if f.Month != nil {
		args = append(args, *f.Month)
		where = append(where, fmt.Sprintf("month = $%d", len(args)))
	}
	if f.Year != nil {
		args = append(args, *f.Year)
		where = append(where, fmt.Sprintf("year = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "failed to count accounts")
	}

	limit, offset := pagination(f.Page, f.Limit)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT %s FROM accounts WHERE %s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		accountColumns, cond, len(args)-1, len(args),
	)

	accounts, err := r.queryAccounts(ctx, q, "failed to list accounts", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

func (r *AccountRepository) ListByPeriod(ctx context.Context, q Querier, userID uuid.UUID, month model.Month, year int) ([]model.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND (NOT is_monthly OR (month = $2 AND year = $3))
		ORDER BY created_at
	`
	return r.queryAccounts(ctx, q, "failed to query accounts by period", query, userID, month, year)
}

// ListForRefresh возвращает id счетов, метрики которых зависят от текущей даты
func (r *AccountRepository) ListForRefresh(ctx context.Context, q Querier, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM accounts
		WHERE NOT is_monthly OR (month = $1 AND year = $2)
	`

	now = now.UTC()
	rows, err := q.QueryContext(ctx, query, model.MonthOf(now.Month()), now.Year())
	if err != nil {
		return nil, translate(err, "failed to query accounts for refresh")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Update сохраняет поля, задаваемые пользователем
func (r *AccountRepository) Update(ctx context.Context, q Querier, a *model.Account) error {
	query := `
		UPDATE accounts
		SET description = $1, is_monthly = $2, month = $3, year = $4, date = $5,
		    currency = $6, amount = $7, color = $8, ideal_daily_expenditure = $9,
		    updated_at = NOW()
		WHERE id = $10
	`

	res, err := q.ExecContext(ctx, query,
		a.Description, a.IsMonthly, a.Month, a.Year, a.Date,
		a.Currency, a.Amount, a.Color, a.IdealDailyExpenditure, a.ID,
	)
	if err != nil {
		return translate(err, "failed to update account")
	}
	return rowsAffected(res, "failed to update account")
}

// UpdateMetrics сохраняет производные поля одним оператором
func (r *AccountRepository) UpdateMetrics(ctx context.Context, q Querier, id uuid.UUID, m model.AccountMetrics) error {
	query := `
		UPDATE accounts
		SET balance = $1, expense_amount = $2, income_amount = $3,
		    real_daily_expenditure = $4, left_daily_expenditure = $5,
		    real_days_spent = $6, days_in_debt = $7, updated_at = NOW()
		WHERE id = $8
	`

	res, err := q.ExecContext(ctx, query,
		m.Balance, m.ExpenseAmount, m.IncomeAmount,
		m.RealDailyExpenditure, m.LeftDailyExpenditure,
		m.RealDaysSpent, m.DaysInDebt, id,
	)
	if err != nil {
		r.logger.WithError(err).WithField("account_id", id).Error("Ошибка обновления метрик счета")
		return translate(err, "failed to update account metrics")
	}
	return rowsAffected(res, "failed to update account metrics")
}

func (r *AccountRepository) SetDefault(ctx context.Context, q Querier, id uuid.UUID, isDefault bool) error {
	res, err := q.ExecContext(ctx,
		`UPDATE accounts SET is_default = $1, updated_at = NOW() WHERE id = $2`,
		isDefault, id,
	)
	if err != nil {
		return translate(err, "failed to set default account")
	}
	return rowsAffected(res, "failed to set default account")
}

func (r *AccountRepository) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return translate(err, "failed to delete account")
	}
	return rowsAffected(res, "failed to delete account")
}
