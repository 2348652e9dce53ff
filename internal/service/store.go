package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"expense-manager/internal/model"
	"expense-manager/internal/repository"
)

// Clock возвращает текущее время; подменяется в тестах
type Clock func() time.Time

// Transactor выполняет сценарий в одной транзакции БД
type Transactor interface {
	Conn() repository.Querier
	WithinTx(ctx context.Context, fn func(q repository.Querier) error) error
}

type AccountStore interface {
	Create(ctx context.Context, q repository.Querier, a *model.Account) error
	GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Account, error)
	GetByIDForUser(ctx context.Context, q repository.Querier, id, userID uuid.UUID) (*model.Account, error)
	GetByIDForUpdate(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.Account, error)
	FindByPeriod(ctx context.Context, q repository.Querier, userID uuid.UUID, month model.Month, year int) (*model.Account, error)
	GetDefault(ctx context.Context, q repository.Querier, userID uuid.UUID) (*model.Account, error)
	GetLatest(ctx context.Context, q repository.Querier, userID uuid.UUID) (*model.Account, error)
	CountByUser(ctx context.Context, q repository.Querier, userID uuid.UUID) (int, error)
	List(ctx context.Context, q repository.Querier, userID uuid.UUID, f model.AccountFilter) ([]model.Account, int, error)
	ListByPeriod(ctx context.Context, q repository.Querier, userID uuid.UUID, month model.Month, year int) ([]model.Account, error)
	ListForRefresh(ctx context.Context, q repository.Querier, now time.Time) ([]uuid.UUID, error)
	Update(ctx context.Context, q repository.Querier, a *model.Account) error
	UpdateMetrics(ctx context.Context, q repository.Querier, id uuid.UUID, m model.AccountMetrics) error
	SetDefault(ctx context.Context, q repository.Querier, id uuid.UUID, isDefault bool) error
	Delete(ctx context.Context, q repository.Querier, id uuid.UUID) error
}

type TransactionStore interface {
	Create(ctx context.Context, q repository.Querier, t *model.Transaction) error
	GetByIDForUser(ctx context.Context, q repository.Querier, id, userID uuid.UUID) (*model.Transaction, error)
	ListByAccount(ctx context.Context, q repository.Querier, accountID, excludeID uuid.UUID) ([]model.Transaction, error)
	List(ctx context.Context, q repository.Querier, userID uuid.UUID, f model.TransactionFilter) ([]model.Transaction, int, error)
	Update(ctx context.Context, q repository.Querier, t *model.Transaction) error
	SoftDelete(ctx context.Context, q repository.Querier, id uuid.UUID, at time.Time) error
	CountByAccount(ctx context.Context, q repository.Querier, accountID uuid.UUID) (int, error)
	ListUnpaidDebtLoans(ctx context.Context, q repository.Querier, userID uuid.UUID) ([]model.Transaction, error)
	StatsByCategory(ctx context.Context, q repository.Querier, accountID uuid.UUID, start, end time.Time) ([]model.CategoryTotal, error)
}

type CategoryStore interface {
	Create(ctx context.Context, q repository.Querier, c *model.TransactionCategory) error
	GetByIDForUser(ctx context.Context, q repository.Querier, id, userID uuid.UUID) (*model.TransactionCategory, error)
	ListByUser(ctx context.Context, q repository.Querier, userID uuid.UUID) ([]model.TransactionCategory, error)
	Update(ctx context.Context, q repository.Querier, c *model.TransactionCategory) error
	Delete(ctx context.Context, q repository.Querier, id, userID uuid.UUID) error
}

type ServiceStore interface {
	Create(ctx context.Context, q repository.Querier, s *model.TransactionService) error
	GetVisible(ctx context.Context, q repository.Querier, id, userID uuid.UUID) (*model.TransactionService, error)
	ListVisible(ctx context.Context, q repository.Querier, userID uuid.UUID) ([]model.TransactionService, error)
	Update(ctx context.Context, q repository.Querier, s *model.TransactionService) error
	Delete(ctx context.Context, q repository.Querier, id, userID uuid.UUID) error
}

type UserStore interface {
	Create(ctx context.Context, q repository.Querier, user *model.User) error
	FindByAlias(ctx context.Context, q repository.Querier, alias string) (*model.User, error)
	ExistsByAlias(ctx context.Context, q repository.Querier, alias string) (bool, error)
	GetByID(ctx context.Context, q repository.Querier, id uuid.UUID) (*model.User, error)
}

// Notifier отправляет пользователю уведомления по email
type Notifier interface {
	SendOverspendAlert(email string, account *model.Account) error
	SendSettlementNotice(email string, original, settlement *model.Transaction) error
}

// RateProvider возвращает курсы валют к рублю на дату
type RateProvider interface {
	GetRates(ctx context.Context, date time.Time) (map[model.Currency]float64, error)
}
