package budget

import (
	"github.com/shopspring/decimal"

	"expense-manager/internal/model"
)

// Totals are the settled amounts of an account.
type Totals struct {
	Expense float64
	Income  float64
}

// Net is expense minus income.
func (t Totals) Net() decimal.Decimal {
	return decimal.NewFromFloat(t.Expense).Sub(decimal.NewFromFloat(t.Income))
}

// Aggregate sums EXPENSE and INCOME amounts of txs. DEBT and LOAN entries do
// not count until settled. Unless excludeCandidate is set, the candidate is
// folded in as one more transaction; txs must not already contain it.
func Aggregate(txs []model.Transaction, candAmount float64, candType model.TransactionType, excludeCandidate bool) Totals {
	expense, income := decimal.Zero, decimal.Zero
	add := func(amount float64, typ model.TransactionType) {
		switch typ {
		case model.TransactionTypeExpense:
			expense = expense.Add(decimal.NewFromFloat(amount))
		case model.TransactionTypeIncome:
			income = income.Add(decimal.NewFromFloat(amount))
		}
	}

	for i := range txs {
		if txs[i].DeletedAt != nil {
			continue
		}
		add(txs[i].Amount, txs[i].Type)
	}
	if !excludeCandidate {
		add(candAmount, candType)
	}

	return Totals{
		Expense: expense.Round(2).InexactFloat64(),
		Income:  income.Round(2).InexactFloat64(),
	}
}
