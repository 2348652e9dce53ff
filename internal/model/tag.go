package model

import (
	"time"

	"github.com/google/uuid"
)

// TransactionCategory is a user scoped label for transactions.
type TransactionCategory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Icon      *string   `json:"icon" db:"icon"`
	Color     *string   `json:"color" db:"color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TransactionService is a merchant or provider a transaction was paid to.
// Services without a user are global and visible to everyone.
type TransactionService struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      *uuid.UUID `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description" db:"description"`
	Icon        *string    `json:"icon" db:"icon"`
	Color       *string    `json:"color" db:"color"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type TagRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Icon        *string `json:"icon" validate:"omitempty,max=255"`
	Color       *string `json:"color" validate:"omitempty,max=255"`
}

// DefaultCategories are created for every new user.
var DefaultCategories = []TagRequest{
	{Name: "Food and Drinks", Icon: strPtr("food"), Color: strPtr("#FF0000")},
	{Name: "Shopping", Icon: strPtr("shopping"), Color: strPtr("#00FF00")},
	{Name: "Housing", Icon: strPtr("housing"), Color: strPtr("#0000FF")},
	{Name: "Transportation", Icon: strPtr("transportation"), Color: strPtr("#FFFF00")},
	{Name: "Vehicle", Icon: strPtr("vehicle"), Color: strPtr("#00FFFF")},
	{Name: "Life and Entertainment", Icon: strPtr("life"), Color: strPtr("#FF00FF")},
	{Name: "Communication", Icon: strPtr("communication"), Color: strPtr("#00FF00")},
	{Name: "Financial expenses", Icon: strPtr("financial"), Color: strPtr("#0000FF")},
	{Name: "Investments", Icon: strPtr("investments"), Color: strPtr("#FFFF00")},
	{Name: "Household expenses", Icon: strPtr("household"), Color: strPtr("#FF0000")},
	{Name: "Other", Icon: strPtr("other"), Color: strPtr("#00FFFF")},
}

func strPtr(s string) *string { return &s }
