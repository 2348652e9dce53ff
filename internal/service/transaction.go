package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
	"expense-manager/internal/money"
	"expense-manager/internal/repository"
)

type TransactionService struct {
	store        Transactor
	accounts     AccountStore
	transactions TransactionStore
	categories   CategoryStore
	services     ServiceStore
	hook         TransactionHook
	now          Clock
	logger       *logrus.Logger
}

func NewTransactionService(
	store Transactor,
	accounts AccountStore,
	transactions TransactionStore,
	categories CategoryStore,
	services ServiceStore,
	hook TransactionHook,
	now Clock,
	logger *logrus.Logger,
) *TransactionService {
	return &TransactionService{
		store:        store,
		accounts:     accounts,
		transactions: transactions,
		categories:   categories,
		services:     services,
		hook:         hook,
		now:          now,
		logger:       logger,
	}
}

func (s *TransactionService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.transactions.GetByIDForUser(ctx, s.store.Conn(), id, userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrTransactionNotFound)
	}
	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, f model.TransactionFilter) (*model.Page[model.Transaction], error) {
	transactions, total, err := s.transactions.List(ctx, s.store.Conn(), userID, f)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения списка транзакций")
		return nil, apperr.Internal("Failed to list transactions", err)
	}
	page := model.NewPage(transactions, total, f.Page, f.Limit)
	return &page, nil
}

func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, req model.CreateTransactionRequest) (*model.Transaction, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": req.AccountID,
		"amount":     req.Amount,
		"type":       req.Type,
	}).Info("Создание транзакции")

	if err := money.Validate(req.Amount); err != nil {
		return nil, apperr.ErrInvalidAmount.Wrap(err)
	}

	now := s.now()
	t := &model.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, alerts := deferAlerts(ctx)
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if err := s.apply(ctx, q, userID, t, req, now); err != nil {
			return err
		}
		if req.IsPaid != nil && t.IsDebtLoan {
			t.IsPaid = *req.IsPaid
		}

		if err := s.transactions.Create(ctx, q, t); err != nil {
			return storageError(err, "Failed to create transaction")
		}
		return s.hook.OnTransactionInserted(ctx, q, t)
	})
	if err != nil {
		s.logger.WithError(err).Warn("Транзакция не создана")
		return nil, err
	}
	alerts.dispatch()

	s.logger.WithField("transaction_id", t.ID).Info("Транзакция успешно создана")
	return t, nil
}

func (s *TransactionService) Update(ctx context.Context, userID, id uuid.UUID, req model.UpdateTransactionRequest) (*model.Transaction, error) {
	if err := money.Validate(req.Amount); err != nil {
		return nil, apperr.ErrInvalidAmount.Wrap(err)
	}

	var next model.Transaction
	ctx, alerts := deferAlerts(ctx)
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		prev, err := s.transactions.GetByIDForUser(ctx, q, id, userID)
		if err != nil {
			return notFound(err, apperr.ErrTransactionNotFound)
		}

		next = *prev
		next.UpdatedAt = s.now()
		if req.Date == nil {
			req.Date = &prev.Date
		}
		if err := s.apply(ctx, q, userID, &next, req, next.UpdatedAt); err != nil {
			return err
		}
		switch {
		case !next.IsDebtLoan:
		case req.IsPaid != nil:
			next.IsPaid = *req.IsPaid
		case !prev.IsDebtLoan:
			next.IsPaid = false
		}

		if err := s.transactions.Update(ctx, q, &next); err != nil {
			return storageError(err, "Failed to update transaction")
		}
		return s.hook.OnTransactionUpdated(ctx, q, prev, &next)
	})
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", id).Warn("Транзакция не обновлена")
		return nil, err
	}
	alerts.dispatch()

	s.logger.WithField("transaction_id", id).Info("Транзакция успешно обновлена")
	return &next, nil
}

// Delete помечает транзакцию удаленной. Счет пересчитывается до удаления,
// кандидат исключается из сумм.
func (s *TransactionService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, alerts := deferAlerts(ctx)
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		t, err := s.transactions.GetByIDForUser(ctx, q, id, userID)
		if err != nil {
			return notFound(err, apperr.ErrTransactionNotFound)
		}
		if err := s.hook.OnTransactionDeleted(ctx, q, t); err != nil {
			return err
		}
		if err := s.transactions.SoftDelete(ctx, q, id, s.now()); err != nil {
			return notFound(err, apperr.ErrTransactionNotFound)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", id).Warn("Транзакция не удалена")
		return err
	}
	alerts.dispatch()

	s.logger.WithField("transaction_id", id).Info("Транзакция удалена")
	return nil
}

// apply проверяет ссылки запроса и переносит его поля в t
func (s *TransactionService) apply(ctx context.Context, q repository.Querier, userID uuid.UUID, t *model.Transaction, req model.CreateTransactionRequest, now time.Time) error {
	account, err := s.accounts.GetByIDForUser(ctx, q, req.AccountID, userID)
	if err != nil {
		return notFound(err, apperr.ErrAccountNotFound)
	}
	if account.Currency != req.Currency {
		return apperr.ErrCurrencyMismatch
	}

	category, err := s.categories.GetByIDForUser(ctx, q, req.CategoryID, userID)
	if err != nil {
		return notFound(err, apperr.ErrCategoryNotFound)
	}
	t.CategoryName = category.Name

	t.ServiceName = ""
	if req.ServiceID != nil {
		service, err := s.services.GetVisible(ctx, q, *req.ServiceID, userID)
		if err != nil {
			return notFound(err, apperr.ErrServiceNotFound)
		}
		t.ServiceName = service.Name
	}

	date := now
	if req.Date != nil {
		date = *req.Date
	}
	if !account.Contains(date) {
		return apperr.ErrDateOutOfPeriod
	}

	t.AccountID = account.ID
	t.CategoryID = category.ID
	t.ServiceID = req.ServiceID
	t.Name = req.Name
	t.Description = req.Description
	t.Amount = money.Round2(req.Amount)
	t.Currency = req.Currency
	t.Type = req.Type
	t.Date = date
	t.PaymentMethod = req.PaymentMethod
	t.Normalize()
	return nil
}

// notFound переводит repository.ErrNotFound в доменную ошибку
func notFound(err error, target *apperr.Error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target.Wrap(err)
	}
	return apperr.Internal("Internal server error", err)
}

// storageError отделяет переполнение NUMERIC от прочих ошибок записи
func storageError(err error, message string) error {
	if errors.Is(err, repository.ErrOutOfRange) {
		return apperr.ErrAmountOutOfRange.Wrap(err)
	}
	return apperr.Internal(message, err)
}
