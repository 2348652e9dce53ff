package budget

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"expense-manager/internal/model"
)

// ErrZeroDivisor means an account reached the recalculator with a zero day
// count or ideal daily expenditure.
var ErrZeroDivisor = errors.New("budget: zero divisor in account metrics")

// Candidate is the transaction whose write triggered a recomputation.
type Candidate struct {
	Amount  float64
	Type    model.TransactionType
	Date    time.Time
	Deleted bool
}

// None is a candidate that contributes nothing, used for plain refreshes.
var None = Candidate{Deleted: true}

// IdealDailyExpenditure spreads amount evenly over the days of the month.
// A result that rounds to zero falls back to 1.
func IdealDailyExpenditure(amount float64, month time.Month, year int) float64 {
	days := decimal.NewFromInt(int64(DaysInMonth(month, year)))
	ideal := decimal.NewFromFloat(amount).Div(days).Round(2)
	if !ideal.IsPositive() {
		return 1
	}
	return ideal.InexactFloat64()
}

// Recompute derives the account metrics from txs plus the candidate. txs must
// exclude the candidate's own row.
func Recompute(acc *model.Account, txs []model.Transaction, c Candidate, now time.Time) (model.AccountMetrics, error) {
	totals := Aggregate(txs, c.Amount, c.Type, c.Deleted)
	net := totals.Net()

	dates := transactionDates(txs)
	if !c.Deleted && !c.Date.IsZero() {
		dates = append(dates, c.Date)
	}
	w := DateWindow(acc.Date, dates, now)

	if w.Passed <= 0 || acc.IdealDailyExpenditure <= 0 {
		return model.AccountMetrics{}, ErrZeroDivisor
	}

	passed := decimal.NewFromInt(int64(w.Passed))
	ideal := decimal.NewFromFloat(acc.IdealDailyExpenditure)

	realDaysSpent := int(net.Div(ideal).Round(2).Ceil().IntPart())
	daysInDebt := realDaysSpent - w.Passed
	if daysInDebt < 0 {
		daysInDebt = 0
	}

	balance := decimal.NewFromFloat(acc.Amount).Sub(net).Round(2)
	left := w.Left
	if left < 1 {
		left = 1
	}

	return model.AccountMetrics{
		Balance:              balance.InexactFloat64(),
		ExpenseAmount:        totals.Expense,
		IncomeAmount:         totals.Income,
		RealDailyExpenditure: net.Div(passed).Round(2).InexactFloat64(),
		LeftDailyExpenditure: balance.Div(decimal.NewFromInt(int64(left))).Round(2).InexactFloat64(),
		RealDaysSpent:        realDaysSpent,
		DaysInDebt:           daysInDebt,
	}, nil
}
