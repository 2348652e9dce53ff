package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/budget"
	"expense-manager/internal/model"
	"expense-manager/internal/repository"
)

// TransactionHook вызывается сценариями изменения транзакций внутри их
// транзакции БД. Метрики счета обновлены к моменту возврата.
type TransactionHook interface {
	OnTransactionInserted(ctx context.Context, q repository.Querier, t *model.Transaction) error
	OnTransactionUpdated(ctx context.Context, q repository.Querier, prev, next *model.Transaction) error
	OnTransactionDeleted(ctx context.Context, q repository.Querier, t *model.Transaction) error
}

// AccountRecalculator пересчитывает метрики счета по полному набору его транзакций
type AccountRecalculator struct {
	accounts     AccountStore
	transactions TransactionStore
	users        UserStore
	notifier     Notifier
	now          Clock
	logger       *logrus.Logger
}

func NewAccountRecalculator(
	accounts AccountStore,
	transactions TransactionStore,
	users UserStore,
	notifier Notifier,
	now Clock,
	logger *logrus.Logger,
) *AccountRecalculator {
	return &AccountRecalculator{
		accounts:     accounts,
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		now:          now,
		logger:       logger,
	}
}

func candidateOf(t *model.Transaction, deleted bool) budget.Candidate {
	return budget.Candidate{Amount: t.Amount, Type: t.Type, Date: t.Date, Deleted: deleted}
}

func (r *AccountRecalculator) OnTransactionInserted(ctx context.Context, q repository.Querier, t *model.Transaction) error {
	return r.recalculate(ctx, q, t.AccountID, t.ID, candidateOf(t, false))
}

func (r *AccountRecalculator) OnTransactionUpdated(ctx context.Context, q repository.Querier, prev, next *model.Transaction) error {
	if prev.AccountID == next.AccountID {
		return r.recalculate(ctx, q, next.AccountID, next.ID, candidateOf(next, false))
	}

	// Блокируем оба счета в одном порядке, чтобы встречные переносы не взаимоблокировались
	first, second := prev.AccountID, next.AccountID
	if second.String() < first.String() {
		first, second = second, first
	}
	for _, id := range []uuid.UUID{first, second} {
		if _, err := r.accounts.GetByIDForUpdate(ctx, q, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to lock account %s: %w", id, err)
		}
	}

	if err := r.recalculate(ctx, q, prev.AccountID, prev.ID, candidateOf(prev, true)); err != nil {
		return err
	}
	return r.recalculate(ctx, q, next.AccountID, next.ID, candidateOf(next, false))
}

func (r *AccountRecalculator) OnTransactionDeleted(ctx context.Context, q repository.Querier, t *model.Transaction) error {
	return r.recalculate(ctx, q, t.AccountID, t.ID, candidateOf(t, true))
}

// Refresh пересчитывает метрики счета без кандидата
func (r *AccountRecalculator) Refresh(ctx context.Context, q repository.Querier, accountID uuid.UUID) error {
	return r.recalculate(ctx, q, accountID, uuid.Nil, budget.None)
}

func (r *AccountRecalculator) recalculate(ctx context.Context, q repository.Querier, accountID, excludeID uuid.UUID, c budget.Candidate) error {
	log := r.logger.WithFields(logrus.Fields{
		"account_id":     accountID,
		"transaction_id": excludeID,
	})

	account, err := r.accounts.GetByIDForUpdate(ctx, q, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		// Счет удален параллельно; запись транзакции при этом не отменяется
		log.Warn("Счет не найден, пересчет метрик пропущен")
		return nil
	}
	if err != nil {
		log.WithError(err).Error("Ошибка получения счета для пересчета")
		return fmt.Errorf("failed to load account: %w", err)
	}

	transactions, err := r.transactions.ListByAccount(ctx, q, accountID, excludeID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций счета")
		return fmt.Errorf("failed to load account transactions: %w", err)
	}

	metrics, err := budget.Recompute(account, transactions, c, r.now())
	if err != nil {
		log.WithError(err).Error("Некорректные данные счета для пересчета")
		return apperr.Internal("Account metrics could not be computed", err)
	}

	if err := r.accounts.UpdateMetrics(ctx, q, accountID, metrics); err != nil {
		if errors.Is(err, repository.ErrOutOfRange) {
			return apperr.ErrAmountOutOfRange.Wrap(err)
		}
		return fmt.Errorf("failed to save account metrics: %w", err)
	}

	log.WithFields(logrus.Fields{
		"balance":      metrics.Balance,
		"expense":      metrics.ExpenseAmount,
		"income":       metrics.IncomeAmount,
		"days_in_debt": metrics.DaysInDebt,
	}).Debug("Метрики счета пересчитаны")

	if account.DaysInDebt == 0 && metrics.DaysInDebt > 0 {
		account.AccountMetrics = metrics
		r.alertOverspend(ctx, q, account)
	}
	return nil
}

type pendingAlertsKey struct{}

// pendingAlerts копит уведомления до фиксации транзакции БД
type pendingAlerts struct {
	mu    sync.Mutex
	sends []func()
}

// deferAlerts возвращает контекст, в котором уведомления хука не отправляются
// до вызова dispatch.
func deferAlerts(ctx context.Context) (context.Context, *pendingAlerts) {
	p := &pendingAlerts{}
	return context.WithValue(ctx, pendingAlertsKey{}, p), p
}

func (p *pendingAlerts) add(send func()) {
	p.mu.Lock()
	p.sends = append(p.sends, send)
	p.mu.Unlock()
}

// dispatch отправляет накопленные уведомления. Вызывается только после
// успешного WithinTx; при откате пакет просто отбрасывается.
func (p *pendingAlerts) dispatch() {
	p.mu.Lock()
	sends := p.sends
	p.sends = nil
	p.mu.Unlock()
	for _, send := range sends {
		go send()
	}
}

// alertOverspend уведомляет владельца о переходе счета в перерасход.
// Внутри deferAlerts отправка откладывается до фиксации транзакции.
func (r *AccountRecalculator) alertOverspend(ctx context.Context, q repository.Querier, account *model.Account) {
	if r.notifier == nil {
		return
	}
	user, err := r.users.GetByID(ctx, q, account.UserID)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", account.UserID).Warn("Не удалось получить пользователя для уведомления")
		return
	}
	if user.Email == nil || *user.Email == "" {
		return
	}

	email := *user.Email
	send := func() {
		if err := r.notifier.SendOverspendAlert(email, account); err != nil {
			r.logger.WithError(err).WithField("account_id", account.ID).Error("Ошибка отправки уведомления о перерасходе")
		}
	}
	if p, ok := ctx.Value(pendingAlertsKey{}).(*pendingAlerts); ok {
		p.add(send)
		return
	}
	go send()
}
