package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/budget"
	"expense-manager/internal/model"
	"expense-manager/internal/money"
	"expense-manager/internal/repository"
)

// MetricsRefresher пересчитывает метрики одного счета
type MetricsRefresher interface {
	Refresh(ctx context.Context, q repository.Querier, accountID uuid.UUID) error
}

type AccountService struct {
	store        Transactor
	accounts     AccountStore
	transactions TransactionStore
	refresher    MetricsRefresher
	now          Clock
	logger       *logrus.Logger
}

func NewAccountService(
	store Transactor,
	accounts AccountStore,
	transactions TransactionStore,
	refresher MetricsRefresher,
	now Clock,
	logger *logrus.Logger,
) *AccountService {
	return &AccountService{
		store:        store,
		accounts:     accounts,
		transactions: transactions,
		refresher:    refresher,
		now:          now,
		logger:       logger,
	}
}

func (s *AccountService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetByIDForUser(ctx, s.store.Conn(), id, userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrAccountNotFound)
	}
	return account, nil
}

func (s *AccountService) GetLatest(ctx context.Context, userID uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetLatest(ctx, s.store.Conn(), userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrAccountNotFound)
	}
	return account, nil
}

func (s *AccountService) GetDefault(ctx context.Context, userID uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.GetDefault(ctx, s.store.Conn(), userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrAccountNotFound)
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, userID uuid.UUID, f model.AccountFilter) (*model.Page[model.Account], error) {
	s.logger.Debugf("Получение списка счетов пользователя %s", userID)
	accounts, total, err := s.accounts.List(ctx, s.store.Conn(), userID, f)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка при получении счетов пользователя")
		return nil, apperr.Internal("Failed to list accounts", err)
	}
	page := model.NewPage(accounts, total, f.Page, f.Limit)
	return &page, nil
}

// Create создает счет. Первый счет пользователя становится основным; новый
// месячный счет перехватывает этот статус у месячного счета более раннего периода.
func (s *AccountService) Create(ctx context.Context, userID uuid.UUID, req model.CreateAccountRequest) (*model.Account, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"currency": req.Currency,
		"month":    req.Month,
		"year":     req.Year,
	}).Info("Создание нового счета")

	if err := validateBudget(req.Amount); err != nil {
		return nil, err
	}

	now := s.now()
	account := &model.Account{
		ID:          uuid.New(),
		UserID:      userID,
		Description: req.Description,
		Currency:    req.Currency,
		Amount:      money.Round2(req.Amount),
		Color:       req.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := setPeriod(account, req, now); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if m, y, ok := account.Period(); ok {
			_, err := s.accounts.FindByPeriod(ctx, q, userID, m, y)
			if err == nil {
				return apperr.ErrAccountExists
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return apperr.Internal("Failed to check account period", err)
			}
		}

		current, err := s.accounts.GetDefault(ctx, q, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			account.IsDefault = true
		case err != nil:
			return apperr.Internal("Failed to load default account", err)
		case current.Precedes(account):
			if err := s.accounts.SetDefault(ctx, q, current.ID, false); err != nil {
				return apperr.Internal("Failed to reset default account", err)
			}
			account.IsDefault = true
		}

		metrics, err := budget.Recompute(account, nil, budget.None, now)
		if err != nil {
			return apperr.Internal("Account metrics could not be computed", err)
		}
		account.AccountMetrics = metrics

		if err := s.accounts.Create(ctx, q, account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.ErrAccountExists.Wrap(err)
			}
			return storageError(err, "Failed to create account")
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).Warn("Счет не создан")
		return nil, err
	}

	s.logger.Infof("Успешно создан счет %s для пользователя %s", account.ID, userID)
	return account, nil
}

// Update меняет параметры счета и полностью пересчитывает его метрики
func (s *AccountService) Update(ctx context.Context, userID, id uuid.UUID, req model.UpdateAccountRequest) (*model.Account, error) {
	if err := validateBudget(req.Amount); err != nil {
		return nil, err
	}

	var updated *model.Account
	ctx, alerts := deferAlerts(ctx)
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		if _, err := s.accounts.GetByIDForUser(ctx, q, id, userID); err != nil {
			return notFound(err, apperr.ErrAccountNotFound)
		}
		account, err := s.accounts.GetByIDForUpdate(ctx, q, id)
		if err != nil {
			return notFound(err, apperr.ErrAccountNotFound)
		}

		if err := setPeriod(account, req, account.CreatedAt); err != nil {
			return err
		}
		if m, y, ok := account.Period(); ok {
			other, err := s.accounts.FindByPeriod(ctx, q, userID, m, y)
			if err == nil && other.ID != account.ID {
				return apperr.ErrAccountExists
			}
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return apperr.Internal("Failed to check account period", err)
			}
		}

		if req.Currency != account.Currency {
			n, err := s.transactions.CountByAccount(ctx, q, account.ID)
			if err != nil {
				return apperr.Internal("Failed to count account transactions", err)
			}
			if n > 0 {
				return apperr.ErrAccountCurrency
			}
		}

		account.Description = req.Description
		account.Currency = req.Currency
		account.Amount = money.Round2(req.Amount)
		account.Color = req.Color
		account.IdealDailyExpenditure = budget.IdealDailyExpenditure(account.Amount, account.Date.Month(), account.Date.Year())

		if err := s.accounts.Update(ctx, q, account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.ErrAccountExists.Wrap(err)
			}
			return storageError(err, "Failed to update account")
		}
		if err := s.refresher.Refresh(ctx, q, account.ID); err != nil {
			return err
		}

		updated, err = s.accounts.GetByID(ctx, q, account.ID)
		if err != nil {
			return apperr.Internal("Failed to reload account", err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("account_id", id).Warn("Счет не обновлен")
		return nil, err
	}
	alerts.dispatch()

	s.logger.WithField("account_id", id).Info("Счет обновлен")
	return updated, nil
}

// SetDefault делает счет основным. Сброс прежнего и установка нового
// выполняются в одной транзакции.
func (s *AccountService) SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Account, error) {
	var account *model.Account
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		var err error
		account, err = s.accounts.GetByIDForUser(ctx, q, id, userID)
		if err != nil {
			return notFound(err, apperr.ErrAccountNotFound)
		}
		if account.IsDefault {
			return apperr.ErrAccountAlreadyDefault
		}

		current, err := s.accounts.GetDefault(ctx, q, userID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			return apperr.Internal("Failed to load default account", err)
		default:
			if err := s.accounts.SetDefault(ctx, q, current.ID, false); err != nil {
				return apperr.Internal("Failed to reset default account", err)
			}
		}

		if err := s.accounts.SetDefault(ctx, q, account.ID, true); err != nil {
			return apperr.Internal("Failed to set default account", err)
		}
		account.IsDefault = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "account_id": id}).Info("Основной счет изменен")
	return account, nil
}

// Delete удаляет счет. Основной счет удаляется только если он единственный.
func (s *AccountService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(q repository.Querier) error {
		account, err := s.accounts.GetByIDForUser(ctx, q, id, userID)
		if err != nil {
			return notFound(err, apperr.ErrAccountNotFound)
		}
		if account.IsDefault {
			n, err := s.accounts.CountByUser(ctx, q, userID)
			if err != nil {
				return apperr.Internal("Failed to count accounts", err)
			}
			if n > 1 {
				return apperr.ErrAccountDeleteDefault
			}
		}
		if err := s.accounts.Delete(ctx, q, id); err != nil {
			return notFound(err, apperr.ErrAccountNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithField("account_id", id).Info("Счет удален")
	return nil
}

// RefreshMetrics пересчитывает счета текущего периода: daysPassed и daysLeft
// меняются со сменой даты. Ошибки по отдельным счетам не прерывают обработку.
func (s *AccountService) RefreshMetrics(ctx context.Context) error {
	ids, err := s.accounts.ListForRefresh(ctx, s.store.Conn(), s.now().UTC())
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения счетов для пересчета")
		return err
	}

	s.logger.Infof("Найдено %d счетов для пересчета", len(ids))
	failed := 0
	for _, id := range ids {
		txCtx, alerts := deferAlerts(ctx)
		err := s.store.WithinTx(txCtx, func(q repository.Querier) error {
			return s.refresher.Refresh(txCtx, q, id)
		})
		if err != nil {
			failed++
			s.logger.WithError(err).Errorf("Ошибка пересчета счета %s", id)
			continue
		}
		alerts.dispatch()
	}

	s.logger.WithFields(logrus.Fields{
		"total":  len(ids),
		"failed": failed,
	}).Info("Пересчет метрик завершен")
	return nil
}

// setPeriod задает период счета и идеальный дневной расход.
// Немесячный счет привязан к дате создания.
func setPeriod(account *model.Account, req model.CreateAccountRequest, created time.Time) error {
	if !req.Monthly() {
		account.IsMonthly = false
		account.Month, account.Year = nil, nil
		account.Date = created.UTC()
	} else {
		if req.Month == nil || req.Year == nil || !req.Month.Valid() {
			return apperr.ErrAccountPeriod
		}
		m, y := *req.Month, *req.Year
		account.IsMonthly = true
		account.Month, account.Year = &m, &y
		account.Date = model.FirstOfMonth(m, y)
	}
	account.IdealDailyExpenditure = budget.IdealDailyExpenditure(req.Amount, account.Date.Month(), account.Date.Year())
	return nil
}

func validateBudget(amount float64) error {
	if amount == 0 {
		return nil
	}
	if err := money.Validate(amount); err != nil {
		return apperr.ErrInvalidAmount.Wrap(err)
	}
	return nil
}
