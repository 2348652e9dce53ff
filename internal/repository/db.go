package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/model"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("record already exists")
	ErrOutOfRange = errors.New("numeric value out of range")
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store runs use cases against the pool or inside one database transaction.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

func NewStore(db *sql.DB, logger *logrus.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Conn returns the pool for statements that need no transaction.
func (s *Store) Conn() Querier {
	return s.db
}

// WithinTx executes fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка начала транзакции")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.WithError(err).Error("Ошибка подтверждения транзакции")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%s: %w (%s)", op, ErrDuplicate, pqErr.Constraint)
		case "numeric_value_out_of_range":
			return fmt.Errorf("%s: %w", op, ErrOutOfRange)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// rowsAffected turns an UPDATE/DELETE that matched nothing into ErrNotFound.
func rowsAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// pagination returns LIMIT and OFFSET for a 1-based page.
func pagination(page, limit int) (int, int) {
	page, limit = model.Paging(page, limit)
	return limit, (page - 1) * limit
}
