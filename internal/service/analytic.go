package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"expense-manager/internal/apperr"
	"expense-manager/internal/budget"
	"expense-manager/internal/model"
	"expense-manager/internal/money"
	"expense-manager/internal/repository"
)

// Горизонт прогноза для немесячных счетов
const standingForecastDays = 30

type AnalyticService struct {
	store        Transactor
	accounts     AccountStore
	transactions TransactionStore
	rates        RateProvider
	now          Clock
	logger       *logrus.Logger
}

func NewAnalyticService(
	store Transactor,
	accounts AccountStore,
	transactions TransactionStore,
	rates RateProvider,
	now Clock,
	logger *logrus.Logger,
) *AnalyticService {
	return &AnalyticService{
		store:        store,
		accounts:     accounts,
		transactions: transactions,
		rates:        rates,
		now:          now,
		logger:       logger,
	}
}

// GetFinancialStats возвращает доходы/расходы счета по категориям за период
func (s *AnalyticService) GetFinancialStats(ctx context.Context, userID, accountID uuid.UUID, start, end time.Time) (*model.FinancialStats, error) {
	s.logger.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"start_date": start.Format("2006-01-02"),
		"end_date":   end.Format("2006-01-02"),
	}).Debug("Начало расчета финансовой статистики")

	if start.After(end) {
		s.logger.Warn("Дата начала периода позже даты окончания")
		return nil, apperr.ErrInvalidRange
	}

	q := s.store.Conn()
	if _, err := s.accounts.GetByIDForUser(ctx, q, accountID, userID); err != nil {
		return nil, notFound(err, apperr.ErrAccountNotFound)
	}

	totals, err := s.transactions.StatsByCategory(ctx, q, accountID, start, end)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения статистики по категориям")
		return nil, apperr.Internal("Failed to load statistics", err)
	}

	stats := &model.FinancialStats{
		AccountID:  accountID,
		ByCategory: make(map[string]model.CategoryStats),
	}
	income, expenses := decimal.Zero, decimal.Zero
	for _, t := range totals {
		cs := stats.ByCategory[t.Category]
		switch t.Type {
		case model.TransactionTypeIncome:
			cs.Income = money.Sum(cs.Income, t.Amount)
			income = income.Add(decimal.NewFromFloat(t.Amount))
		case model.TransactionTypeExpense:
			cs.Expenses = money.Sum(cs.Expenses, t.Amount)
			expenses = expenses.Add(decimal.NewFromFloat(t.Amount))
		}
		cs.Count += t.Count
		stats.ByCategory[t.Category] = cs
	}

	stats.TotalIncome = income.Round(2).InexactFloat64()
	stats.TotalExpenses = expenses.Round(2).InexactFloat64()
	stats.NetBalance = income.Sub(expenses).Round(2).InexactFloat64()

	s.logger.WithFields(logrus.Fields{
		"income":     stats.TotalIncome,
		"expenses":   stats.TotalExpenses,
		"balance":    stats.NetBalance,
		"categories": len(stats.ByCategory),
	}).Info("Финансовая статистика успешно рассчитана")
	return stats, nil
}

// GetDebtLoad возвращает непогашенные долги и займы пользователя
func (s *AnalyticService) GetDebtLoad(ctx context.Context, userID uuid.UUID) (*model.DebtLoad, error) {
	s.logger.WithField("user_id", userID).Info("Расчет долговой нагрузки")

	q := s.store.Conn()
	unpaid, err := s.transactions.ListUnpaidDebtLoans(ctx, q, userID)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения долгов пользователя")
		return nil, apperr.Internal("Failed to load debts", err)
	}

	debt, loan := decimal.Zero, decimal.Zero
	load := &model.DebtLoad{}
	for _, t := range unpaid {
		switch t.Type {
		case model.TransactionTypeDebt:
			load.UnpaidDebts++
			debt = debt.Add(decimal.NewFromFloat(t.Amount))
		case model.TransactionTypeLoan:
			load.UnpaidLoans++
			loan = loan.Add(decimal.NewFromFloat(t.Amount))
		}
	}
	load.TotalDebt = debt.Round(2).InexactFloat64()
	load.TotalLoan = loan.Round(2).InexactFloat64()
	load.NetPosition = loan.Sub(debt).Round(2).InexactFloat64()

	// Доля долга от бюджета основного счета
	def, err := s.accounts.GetDefault(ctx, q, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		s.logger.WithError(err).Warn("Не удалось получить основной счет для расчета доли долга")
	case def.Amount > 0:
		load.DebtToBudgetPct = debt.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromFloat(def.Amount)).Round(2).InexactFloat64()
	}

	s.logger.WithFields(logrus.Fields{
		"unpaid_debts": load.UnpaidDebts,
		"total_debt":   load.TotalDebt,
		"unpaid_loans": load.UnpaidLoans,
		"total_loan":   load.TotalLoan,
	}).Info("Долговая нагрузка рассчитана")
	return load, nil
}

// GetBalanceForecast строит прогноз баланса по дням до конца периода счета
// при сохранении текущего фактического дневного расхода.
func (s *AnalyticService) GetBalanceForecast(ctx context.Context, userID, accountID uuid.UUID) ([]model.BalanceForecast, error) {
	account, err := s.accounts.GetByIDForUser(ctx, s.store.Conn(), accountID, userID)
	if err != nil {
		return nil, notFound(err, apperr.ErrAccountNotFound)
	}

	today := truncateDay(s.now().UTC())
	var from, to time.Time
	if account.IsMonthly {
		first := truncateDay(account.Date.UTC())
		last := first.AddDate(0, 0, budget.DaysInMonth(first.Month(), first.Year())-1)
		if last.Before(today) {
			return []model.BalanceForecast{}, nil
		}
		from = first
		if !today.Before(first) {
			from = today.AddDate(0, 0, 1)
		}
		to = last
	} else {
		from = today.AddDate(0, 0, 1)
		to = today.AddDate(0, 0, standingForecastDays)
	}

	daily := decimal.NewFromFloat(account.RealDailyExpenditure)
	if daily.IsNegative() {
		daily = decimal.Zero
	}

	forecast := make([]model.BalanceForecast, 0)
	running := decimal.NewFromFloat(account.Balance)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		running = running.Sub(daily)
		forecast = append(forecast, model.BalanceForecast{
			Date:             d,
			ProjectedBalance: running.Round(2).InexactFloat64(),
			PlannedSpending:  daily.Round(2).InexactFloat64(),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"account_id":    accountID,
		"start_balance": account.Balance,
		"days":          len(forecast),
	}).Info("Прогноз баланса рассчитан")
	return forecast, nil
}

// GetOverview сводит счета периода к одной валюте по курсам ЦБ РФ
func (s *AnalyticService) GetOverview(ctx context.Context, userID uuid.UUID, currency model.Currency, month model.Month, year int) (*model.Overview, error) {
	accounts, err := s.accounts.ListByPeriod(ctx, s.store.Conn(), userID, month, year)
	if err != nil {
		return nil, apperr.Internal("Failed to load accounts", err)
	}

	ratesDate := s.now()
	rates, err := s.rates.GetRates(ctx, ratesDate)
	if err != nil {
		return nil, apperr.ErrRatesFailed.Wrap(err)
	}
	target, ok := rates[currency]
	if !ok {
		return nil, apperr.ErrRateMissing.WithMessage(fmt.Sprintf("No exchange rate available for %s", currency))
	}

	overview := &model.Overview{
		Currency:  currency,
		RatesDate: truncateDay(ratesDate),
		Accounts:  make([]model.AccountOverview, 0, len(accounts)),
	}
	var amount, balance, expense, income decimal.Decimal
	for _, a := range accounts {
		r, ok := rates[a.Currency]
		if !ok {
			return nil, apperr.ErrRateMissing.WithMessage(fmt.Sprintf("No exchange rate available for %s", a.Currency))
		}
		factor := decimal.NewFromFloat(r).Div(decimal.NewFromFloat(target))
		convert := func(v float64) decimal.Decimal {
			return decimal.NewFromFloat(v).Mul(factor)
		}

		amount = amount.Add(convert(a.Amount))
		balance = balance.Add(convert(a.Balance))
		expense = expense.Add(convert(a.ExpenseAmount))
		income = income.Add(convert(a.IncomeAmount))

		overview.Accounts = append(overview.Accounts, model.AccountOverview{
			AccountID: a.ID,
			Currency:  a.Currency,
			Rate:      factor.Round(6).InexactFloat64(),
			Balance:   a.Balance,
			Converted: convert(a.Balance).Round(2).InexactFloat64(),
		})
	}

	overview.Amount = amount.Round(2).InexactFloat64()
	overview.Balance = balance.Round(2).InexactFloat64()
	overview.ExpenseAmount = expense.Round(2).InexactFloat64()
	overview.IncomeAmount = income.Round(2).InexactFloat64()
	return overview, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
