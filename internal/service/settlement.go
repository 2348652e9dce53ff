package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
	"expense-manager/internal/money"
	"expense-manager/internal/repository"
)

// SettlementService погашает долги и займы
type SettlementService struct {
	store        Transactor
	transactions TransactionStore
	services     ServiceStore
	users        UserStore
	hook         TransactionHook
	notifier     Notifier
	now          Clock
	logger       *logrus.Logger
}

func NewSettlementService(
	store Transactor,
	transactions TransactionStore,
	services ServiceStore,
	users UserStore,
	hook TransactionHook,
	notifier Notifier,
	now Clock,
	logger *logrus.Logger,
) *SettlementService {
	return &SettlementService{
		store:        store,
		transactions: transactions,
		services:     services,
		users:        users,
		hook:         hook,
		notifier:     notifier,
		now:          now,
		logger:       logger,
	}
}

// PayDebtLoan создает расчетную транзакцию (LOAN -> INCOME, DEBT -> EXPENSE)
// и уменьшает сумму исходной либо помечает ее оплаченной.
// Частичный платеж на всю оставшуюся сумму считается полным.
func (s *SettlementService) PayDebtLoan(ctx context.Context, userID, id uuid.UUID, req model.PayDebtLoanRequest) (*model.Transaction, error) {
	log := s.logger.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": id,
		"amount":         req.Amount,
		"is_partial":     req.IsPartial,
	})
	log.Info("Погашение долга/займа")

	var original, settlement *model.Transaction
	ctx, alerts := deferAlerts(ctx)
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		t, err := s.transactions.GetByIDForUser(ctx, q, id, userID)
		if err != nil {
			return notFound(err, apperr.ErrTransactionNotFound)
		}
		if !t.Type.IsDebtLoan() {
			return apperr.ErrNotDebtLoan
		}
		if t.IsPaid {
			return apperr.ErrTransactionAlreadyPaid
		}

		amount := t.Amount
		if req.IsPartial {
			switch {
			case req.Amount <= 0:
				return apperr.ErrPaymentUnderAmount
			case money.Round2(req.Amount) > t.Amount:
				return apperr.ErrPaymentOverAmount
			}
			amount = money.Round2(req.Amount)
		}

		serviceID, err := s.resolveService(ctx, q, t.ServiceID, userID)
		if err != nil {
			return err
		}

		now := s.now()
		settlement = &model.Transaction{
			ID:            uuid.New(),
			UserID:        t.UserID,
			AccountID:     t.AccountID,
			CategoryID:    t.CategoryID,
			ServiceID:     serviceID,
			Name:          t.Name,
			Description:   t.Description,
			Amount:        amount,
			Currency:      t.Currency,
			Type:          t.Type.Settlement(),
			Date:          t.Date,
			PaymentMethod: t.PaymentMethod,
			CreatedAt:     now,
			UpdatedAt:     now,
			CategoryName:  t.CategoryName,
		}
		if req.Description != nil {
			settlement.Description = req.Description
		}
		settlement.Normalize()

		if err := s.transactions.Create(ctx, q, settlement); err != nil {
			return storageError(err, "Failed to create settlement transaction")
		}
		if err := s.hook.OnTransactionInserted(ctx, q, settlement); err != nil {
			return err
		}

		prev := *t
		if amount < t.Amount {
			t.Amount = money.Sub(t.Amount, amount)
		} else {
			t.IsPaid = true
		}
		t.UpdatedAt = now
		if err := s.transactions.Update(ctx, q, t); err != nil {
			return storageError(err, "Failed to update paid transaction")
		}
		if err := s.hook.OnTransactionUpdated(ctx, q, &prev, t); err != nil {
			return err
		}

		original = t
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Погашение не выполнено")
		return nil, err
	}
	alerts.dispatch()

	log.WithFields(logrus.Fields{
		"settlement_id": settlement.ID,
		"remaining":     original.Amount,
		"is_paid":       original.IsPaid,
	}).Info("Долг/заем погашен")

	s.notify(ctx, original, settlement)
	return settlement, nil
}

// resolveService обнуляет ссылку на сервис, если он больше не существует
func (s *SettlementService) resolveService(ctx context.Context, q repository.Querier, serviceID *uuid.UUID, userID uuid.UUID) (*uuid.UUID, error) {
	if serviceID == nil {
		return nil, nil
	}
	_, err := s.services.GetVisible(ctx, q, *serviceID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load transaction service", err)
	}
	id := *serviceID
	return &id, nil
}

func (s *SettlementService) notify(ctx context.Context, original, settlement *model.Transaction) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.GetByID(ctx, s.store.Conn(), original.UserID)
	if err != nil {
		s.logger.WithError(err).Warn("Не удалось получить пользователя для уведомления")
		return
	}
	if user.Email == nil || *user.Email == "" {
		return
	}

	email := *user.Email
	go func() {
		if err := s.notifier.SendSettlementNotice(email, original, settlement); err != nil {
			s.logger.WithError(err).Error("Ошибка отправки уведомления о погашении")
		}
	}()
}
