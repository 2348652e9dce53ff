package model

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyAUD Currency = "AUD"
	CurrencyCAD Currency = "CAD"
	CurrencyCHF Currency = "CHF"
	CurrencyCNY Currency = "CNY"
	CurrencySEK Currency = "SEK"
	CurrencyNZD Currency = "NZD"
	CurrencyPEN Currency = "PEN"
	CurrencyRUB Currency = "RUB"
)

var currencies = map[Currency]struct{}{
	CurrencyUSD: {}, CurrencyEUR: {}, CurrencyGBP: {}, CurrencyJPY: {},
	CurrencyAUD: {}, CurrencyCAD: {}, CurrencyCHF: {}, CurrencyCNY: {},
	CurrencySEK: {}, CurrencyNZD: {}, CurrencyPEN: {}, CurrencyRUB: {},
}

func (c Currency) Valid() bool {
	_, ok := currencies[c]
	return ok
}

// Account is a budget bucket for one calendar month (or a standing one when
// IsMonthly is false). The metric fields are owned by the recalculation engine.
type Account struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Description *string   `json:"description" db:"description"`
	IsMonthly   bool      `json:"is_monthly" db:"is_monthly"`
	Month       *Month    `json:"month" db:"month"`
	Year        *int      `json:"year" db:"year"`
	Date        time.Time `json:"date" db:"date"`
	Currency    Currency  `json:"currency" db:"currency"`
	Amount      float64   `json:"amount" db:"amount"`
	Color       *string   `json:"color" db:"color"`
	IsDefault   bool      `json:"is_default" db:"is_default"`

	AccountMetrics

	IdealDailyExpenditure float64 `json:"ideal_daily_expenditure" db:"ideal_daily_expenditure"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AccountMetrics are the fields derived from an account's transaction history.
type AccountMetrics struct {
	Balance              float64 `json:"balance" db:"balance"`
	ExpenseAmount        float64 `json:"expense_amount" db:"expense_amount"`
	IncomeAmount         float64 `json:"income_amount" db:"income_amount"`
	RealDailyExpenditure float64 `json:"real_daily_expenditure" db:"real_daily_expenditure"`
	LeftDailyExpenditure float64 `json:"left_daily_expenditure" db:"left_daily_expenditure"`
	RealDaysSpent        int     `json:"real_days_spent" db:"real_days_spent"`
	DaysInDebt           int     `json:"days_in_debt" db:"days_in_debt"`
}

// Period returns the month and year of a monthly account.
func (a *Account) Period() (Month, int, bool) {
	if !a.IsMonthly || a.Month == nil || a.Year == nil {
		return "", 0, false
	}
	return *a.Month, *a.Year, true
}

// Precedes reports whether a is a monthly account whose period is strictly
// before other's period.
func (a *Account) Precedes(other *Account) bool {
	m1, y1, ok1 := a.Period()
	m2, y2, ok2 := other.Period()
	if !ok1 || !ok2 {
		return false
	}
	return ComparePeriods(m1, y1, m2, y2) < 0
}

// Contains reports whether t falls inside the account's monthly window.
// Non-monthly accounts accept any date. Periods are UTC months.
func (a *Account) Contains(t time.Time) bool {
	m, y, ok := a.Period()
	if !ok {
		return true
	}
	t = t.UTC()
	return t.Year() == y && t.Month() == m.Time()
}

type CreateAccountRequest struct {
	Description *string  `json:"description" validate:"omitempty,max=255"`
	IsMonthly   *bool    `json:"is_monthly"`
	Month       *Month   `json:"month" validate:"omitempty,month"`
	Year        *int     `json:"year" validate:"omitempty,gte=1900,lte=9999"`
	Currency    Currency `json:"currency" validate:"required,currency"`
	Amount      float64  `json:"amount" validate:"gte=0"`
	Color       *string  `json:"color" validate:"omitempty,max=255"`
}

// Monthly defaults to true, matching accounts created before the flag existed.
func (r CreateAccountRequest) Monthly() bool {
	return r.IsMonthly == nil || *r.IsMonthly
}

type UpdateAccountRequest = CreateAccountRequest

type AccountFilter struct {
	Month *Month
	Year  *int
	Page  int
	Limit int
}
