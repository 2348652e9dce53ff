package budget

import (
	"testing"
	"time"

	"expense-manager/internal/model"
	"expense-manager/internal/money"
)

func tx(amount float64, typ model.TransactionType) model.Transaction {
	return model.Transaction{Amount: amount, Type: typ}
}

func TestAggregate(t *testing.T) {
	txs := []model.Transaction{
		tx(100.10, model.TransactionTypeExpense),
		tx(0.2, model.TransactionTypeExpense),
		tx(50, model.TransactionTypeIncome),
		tx(999, model.TransactionTypeDebt),
		tx(999, model.TransactionTypeLoan),
	}

	got := Aggregate(txs, 10, model.TransactionTypeExpense, false)
	if got.Expense != 110.3 || got.Income != 50 {
		t.Fatalf("with candidate: got %+v", got)
	}

	got = Aggregate(txs, 10, model.TransactionTypeExpense, true)
	if got.Expense != 100.3 || got.Income != 50 {
		t.Fatalf("excluding candidate: got %+v", got)
	}

	got = Aggregate(txs, 10, model.TransactionTypeLoan, false)
	if got.Expense != 100.3 || got.Income != 50 {
		t.Fatalf("loan candidate must not count: got %+v", got)
	}
}

func TestAggregateCandidateContribution(t *testing.T) {
	sets := [][]model.Transaction{
		nil,
		{tx(12.34, model.TransactionTypeExpense)},
		{tx(0.1, model.TransactionTypeExpense), tx(0.2, model.TransactionTypeExpense), tx(7, model.TransactionTypeIncome)},
	}
	types := []model.TransactionType{
		model.TransactionTypeIncome,
		model.TransactionTypeExpense,
		model.TransactionTypeDebt,
		model.TransactionTypeLoan,
	}
	const amount = 45.67

	for _, set := range sets {
		base := Aggregate(set, 0, model.TransactionTypeIncome, true)
		for _, typ := range types {
			with := Aggregate(set, amount, typ, false)

			want := 0.0
			if typ == model.TransactionTypeExpense {
				want = amount
			}
			if got := money.Sub(with.Expense, base.Expense); got != want {
				t.Errorf("set %v type %s: contribution %v, want %v", set, typ, got, want)
			}
		}
	}
}

func TestAggregateSkipsSoftDeleted(t *testing.T) {
	deleted := tx(40, model.TransactionTypeExpense)
	at := date(2024, time.January, 2)
	deleted.DeletedAt = &at
	got := Aggregate([]model.Transaction{deleted, tx(5, model.TransactionTypeExpense)}, 0, "", true)
	if got.Expense != 5 {
		t.Fatalf("got %+v", got)
	}
}
