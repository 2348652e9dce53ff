package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypeDebt    TransactionType = "DEBT" // money owed by the user
	TransactionTypeLoan    TransactionType = "LOAN" // money lent by the user
)

// IsDebtLoan reports whether t is a DEBT or LOAN entry.
func (t TransactionType) IsDebtLoan() bool {
	return t == TransactionTypeDebt || t == TransactionTypeLoan
}

// Settlement is the type of the transaction created when a debt or loan is paid.
func (t TransactionType) Settlement() TransactionType {
	switch t {
	case TransactionTypeLoan:
		return TransactionTypeIncome
	case TransactionTypeDebt:
		return TransactionTypeExpense
	}
	return t
}

type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "CASH"
	PaymentMethodBankTransfer   PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard      PaymentMethod = "DEBIT_CARD"
	PaymentMethodPaypal         PaymentMethod = "PAYPAL"
	PaymentMethodCryptocurrency PaymentMethod = "CRYPTOCURRENCY"
	PaymentMethodYapePlin       PaymentMethod = "YAPE_PLIN"
)

type Transaction struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	UserID        uuid.UUID       `json:"user_id" db:"user_id"`
	AccountID     uuid.UUID       `json:"account_id" db:"account_id"`
	CategoryID    uuid.UUID       `json:"category_id" db:"category_id"`
	ServiceID     *uuid.UUID      `json:"service_id" db:"service_id"`
	Name          string          `json:"name" db:"name"`
	Description   *string         `json:"description" db:"description"`
	Amount        float64         `json:"amount" db:"amount"`
	Currency      Currency        `json:"currency" db:"currency"`
	Type          TransactionType `json:"type" db:"type"`
	Date          time.Time       `json:"date" db:"date"`
	PaymentMethod PaymentMethod   `json:"payment_method" db:"payment_method"`
	IsPaid        bool            `json:"is_paid" db:"is_paid"`
	IsDebtLoan    bool            `json:"is_debt_loan" db:"is_debt_loan"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`

	CategoryName string `json:"category_name,omitempty" db:"-"`
	ServiceName  string `json:"service_name,omitempty" db:"-"`
}

// Normalize derives IsDebtLoan from the type; INCOME and EXPENSE are always paid.
func (t *Transaction) Normalize() {
	t.IsDebtLoan = t.Type.IsDebtLoan()
	if !t.IsDebtLoan {
		t.IsPaid = true
	}
}

type CreateTransactionRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   *string         `json:"description" validate:"omitempty,max=255"`
	Amount        float64         `json:"amount" validate:"required,gt=0"`
	Currency      Currency        `json:"currency" validate:"required,currency"`
	Type          TransactionType `json:"type" validate:"required,oneof=INCOME EXPENSE DEBT LOAN"`
	Date          *time.Time      `json:"date"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=CASH BANK_TRANSFER CREDIT_CARD DEBIT_CARD PAYPAL CRYPTOCURRENCY YAPE_PLIN"`
	IsPaid        *bool           `json:"is_paid"`
	CategoryID    uuid.UUID       `json:"category_id" validate:"required"`
	ServiceID     *uuid.UUID      `json:"service_id"`
	AccountID     uuid.UUID       `json:"account_id" validate:"required"`
}

type UpdateTransactionRequest = CreateTransactionRequest

type PayDebtLoanRequest struct {
	Amount      float64 `json:"amount"`
	IsPartial   bool    `json:"is_partial"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

type TransactionFilter struct {
	AccountID     *uuid.UUID
	CategoryID    *uuid.UUID
	ServiceID     *uuid.UUID
	Type          *TransactionType
	PaymentMethod *PaymentMethod
	IsPaid        *bool
	Search        string
	FieldOrder    string
	Order         SortOrder
	WithDeleted   bool
	Page          int
	Limit         int
}

// Page is the paginated list envelope returned by list endpoints.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
}

// DefaultPageLimit applies when a list request omits limit.
const DefaultPageLimit = 10

// Paging resolves a 1-based page and limit, substituting defaults for
// omitted or non-positive values.
func Paging(page, limit int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return page, limit
}

// NewPage computes the page count for total rows at the given limit.
func NewPage[T any](data []T, total, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	page, limit = Paging(page, limit)
	pages := (total + limit - 1) / limit
	return Page[T]{Data: data, Total: total, Pages: pages, Page: page}
}
