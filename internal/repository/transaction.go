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

const transactionSelect = `
	SELECT t.id, t.user_id, t.account_id, t.category_id, t.service_id, t.name, t.description,
	       t.amount, t.currency, t.type, t.date, t.payment_method, t.is_paid, t.is_debt_loan,
	       t.created_at, t.updated_at, t.deleted_at,
	       COALESCE(c.name, ''), COALESCE(s.name, '')
	FROM transactions t
	LEFT JOIN transaction_categories c ON c.id = t.category_id
	LEFT JOIN transaction_services s ON s.id = t.service_id`

// Колонки, по которым разрешена сортировка списка
var transactionOrderColumns = map[string]string{
	"date":           "t.date",
	"name":           "t.name",
	"category":       "c.name",
	"service":        "s.name",
	"payment_method": "t.payment_method",
	"type":           "t.type",
	"amount":         "t.amount",
}

type TransactionRepository struct {
	logger *logrus.Logger
}

func NewTransactionRepository(logger *logrus.Logger) *TransactionRepository {
	return &TransactionRepository{logger: logger}
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var t model.Transaction
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.AccountID,
		&t.CategoryID,
		&t.ServiceID,
		&t.Name,
		&t.Description,
		&t.Amount,
		&t.Currency,
		&t.Type,
		&t.Date,
		&t.PaymentMethod,
		&t.IsPaid,
		&t.IsDebtLoan,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
		&t.CategoryName,
		&t.ServiceName,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, q Querier, op, query string, args ...any) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithError(err).Error("Ошибка запроса транзакций")
		return nil, translate(err, op)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			r.logger.WithError(err).Error("Ошибка чтения строки транзакции")
			return nil, fmt.Errorf("%s: failed to scan transaction: %w", op, err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		r.logger.WithError(err).Error("Ошибка при обработке результатов")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return transactions, nil
}

func (r *TransactionRepository) Create(ctx context.Context, q Querier, t *model.Transaction) error {
	r.logger.WithFields(logrus.Fields{
		"transaction_id": t.ID,
		"account_id":     t.AccountID,
		"amount":         t.Amount,
		"type":           t.Type,
	}).Debug("Создание новой транзакции")

	query := `
		INSERT INTO transactions (
			id, user_id, account_id, category_id, service_id, name, description, amount,
			currency, type, date, payment_method, is_paid, is_debt_loan, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		t.ID,
		t.UserID,
		t.AccountID,
		t.CategoryID,
		t.ServiceID,
		t.Name,
		t.Description,
		t.Amount,
		t.Currency,
		t.Type,
		t.Date,
		t.PaymentMethod,
		t.IsPaid,
		t.IsDebtLoan,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		r.logger.WithError(err).Error("Ошибка при создании транзакции")
		return translate(err, "failed to create transaction")
	}
	return nil
}

func (r *TransactionRepository) GetByIDForUser(ctx context.Context, q Querier, id, userID uuid.UUID) (*model.Transaction, error) {
	query := transactionSelect + `
		WHERE t.id = $1 AND t.user_id = $2 AND t.deleted_at IS NULL`

	t, err := scanTransaction(q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, translate(err, "failed to get transaction")
	}
	return t, nil
}

// ListByAccount возвращает активные транзакции счета, кроме excludeID.
// uuid.Nil означает "не исключать ничего".
func (r *TransactionRepository) ListByAccount(ctx context.Context, q Querier, accountID, excludeID uuid.UUID) ([]model.Transaction, error) {
	query := transactionSelect + `
		WHERE t.account_id = $1 AND t.id <> $2 AND t.deleted_at IS NULL
		ORDER BY t.date`

	transactions, err := r.queryTransactions(ctx, q, "failed to list account transactions", query, accountID, excludeID)
	if err != nil {
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"count":      len(transactions),
	}).Debug("Транзакции счета получены")
	return transactions, nil
}

func (r *TransactionRepository) List(ctx context.Context, q Querier, userID uuid.UUID, f model.TransactionFilter) ([]model.Transaction, int, error) {
	where := []string{"t.user_id = $1"}
	args := []any{userID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if !f.WithDeleted {
		where = append(where, "t.deleted_at IS NULL")
	}
	if f.AccountID != nil {
		add("t.account_id = $%d", *f.AccountID)
	}
	if f.CategoryID != nil {
		add("t.category_id = $%d", *f.CategoryID)
	}
	if f.ServiceID != nil {
		add("t.service_id = $%d", *f.ServiceID)
	}
	if f.Type != nil {
		add("t.type = $%d", *f.Type)
	}
	if f.PaymentMethod != nil {
		add("t.payment_method = $%d", *f.PaymentMethod)
	}
	if f.IsPaid != nil {
		add("t.is_paid = $%d", *f.IsPaid)
	}
	if f.Search != "" {
		add("t.name ILIKE $%d", "%"+f.Search+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM transactions t
		LEFT JOIN transaction_categories c ON c.id = t.category_id
		LEFT JOIN transaction_services s ON s.id = t.service_id
		WHERE ` + cond
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translate(err, "failed to count transactions")
	}

	column, ok := transactionOrderColumns[f.FieldOrder]
	if !ok {
		column = "t.date"
	}
	order := model.OrderDesc
	if f.Order == model.OrderAsc {
		order = model.OrderAsc
	}

	limit, offset := pagination(f.Page, f.Limit)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"%s WHERE %s ORDER BY %s %s, t.created_at DESC LIMIT $%d OFFSET $%d",
		transactionSelect, cond, column, order, len(args)-1, len(args),
	)

	transactions, err := r.queryTransactions(ctx, q, "failed to list transactions", query, args...)
	if err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

func (r *TransactionRepository) Update(ctx context.Context, q Querier, t *model.Transaction) error {
	query := `
		UPDATE transactions
		SET account_id = $1, category_id = $2, service_id = $3, name = $4, description = $5,
		    amount = $6, currency = $7, type = $8, date = $9, payment_method = $10,
		    is_paid = $11, is_debt_loan = $12, updated_at = $13
		WHERE id = $14 AND deleted_at IS NULL
	`

	res, err := q.ExecContext(ctx, query,
		t.AccountID, t.CategoryID, t.ServiceID, t.Name, t.Description,
		t.Amount, t.Currency, t.Type, t.Date, t.PaymentMethod,
		t.IsPaid, t.IsDebtLoan, t.UpdatedAt, t.ID,
	)
	if err != nil {
		r.logger.WithError(err).WithField("transaction_id", t.ID).Error("Ошибка обновления транзакции")
		return translate(err, "failed to update transaction")
	}
	return rowsAffected(res, "failed to update transaction")
}

func (r *TransactionRepository) SoftDelete(ctx context.Context, q Querier, id uuid.UUID, at time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE transactions SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		at, id,
	)
	if err != nil {
		return translate(err, "failed to delete transaction")
	}
	return rowsAffected(res, "failed to delete transaction")
}

func (r *TransactionRepository) CountByAccount(ctx context.Context, q Querier, accountID uuid.UUID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1 AND deleted_at IS NULL`,
		accountID,
	).Scan(&n)
	if err != nil {
		return 0, translate(err, "failed to count transactions")
	}
	return n, nil
}

// ListUnpaidDebtLoans возвращает непогашенные долги и займы пользователя
func (r *TransactionRepository) ListUnpaidDebtLoans(ctx context.Context, q Querier, userID uuid.UUID) ([]model.Transaction, error) {
	query := transactionSelect + `
		WHERE t.user_id = $1 AND t.is_debt_loan AND NOT t.is_paid AND t.deleted_at IS NULL
		ORDER BY t.date`
	return r.queryTransactions(ctx, q, "failed to list unpaid debts", query, userID)
}

// StatsByCategory агрегирует суммы счета по категориям за период [start, end]
func (r *TransactionRepository) StatsByCategory(ctx context.Context, q Querier, accountID uuid.UUID, start, end time.Time) ([]model.CategoryTotal, error) {
	// Добавляем 1 день к end, чтобы включить весь последний день периода
	end = end.Add(24 * time.Hour)

	r.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	}).Debug("Запрос статистики по категориям")

	query := `
		SELECT COALESCE(c.name, ''), t.type, SUM(t.amount), COUNT(*)
		FROM transactions t
		LEFT JOIN transaction_categories c ON c.id = t.category_id
		WHERE t.account_id = $1 AND t.deleted_at IS NULL
		  AND t.type IN ('INCOME', 'EXPENSE')
		  AND t.date >= $2 AND t.date < $3
		GROUP BY c.name, t.type
		ORDER BY c.name
	`

	rows, err := q.QueryContext(ctx, query, accountID, start, end)
	if err != nil {
		return nil, translate(err, "failed to query category stats")
	}
	defer rows.Close()

	var totals []model.CategoryTotal
	for rows.Next() {
		var ct model.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Type, &ct.Amount, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category stats: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}
