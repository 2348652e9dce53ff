package model

import (
	"time"

	"github.com/google/uuid"
)

// FinancialStats - income/expense totals of an account over a date range
type FinancialStats struct {
	AccountID     uuid.UUID                `json:"account_id"`
	TotalIncome   float64                  `json:"total_income"`
	TotalExpenses float64                  `json:"total_expenses"`
	NetBalance    float64                  `json:"net_balance"`
	ByCategory    map[string]CategoryStats `json:"by_category"`
}

// CategoryStats - totals for one category
type CategoryStats struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Count    int     `json:"count"`
}

// CategoryTotal is one aggregated row as read from storage.
type CategoryTotal struct {
	Category string
	Type     TransactionType
	Amount   float64
	Count    int
}

// DebtLoad - outstanding debts and loans of a user
type DebtLoad struct {
	UnpaidDebts     int     `json:"unpaid_debts"`
	TotalDebt       float64 `json:"total_debt"`
	UnpaidLoans     int     `json:"unpaid_loans"`
	TotalLoan       float64 `json:"total_loan"`
	NetPosition     float64 `json:"net_position"` // loans minus debts
	DebtToBudgetPct float64 `json:"debt_to_budget_pct"`
}

// BalanceForecast - projected balance for one day of the account period
type BalanceForecast struct {
	Date             time.Time `json:"date"`
	ProjectedBalance float64   `json:"projected_balance"`
	PlannedSpending  float64   `json:"planned_spending"`
}

// Overview - a user's accounts for one period converted to a single currency
type Overview struct {
	Currency      Currency          `json:"currency"`
	RatesDate     time.Time         `json:"rates_date"`
	Amount        float64           `json:"amount"`
	Balance       float64           `json:"balance"`
	ExpenseAmount float64           `json:"expense_amount"`
	IncomeAmount  float64           `json:"income_amount"`
	Accounts      []AccountOverview `json:"accounts"`
}

type AccountOverview struct {
	AccountID uuid.UUID `json:"account_id"`
	Currency  Currency  `json:"currency"`
	Rate      float64   `json:"rate"`
	Balance   float64   `json:"balance"`
	Converted float64   `json:"converted_balance"`
}
