package model

import (
	"time"

	"github.com/google/uuid"
)

// User authenticates with an alias and a secret token.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Alias     string    `json:"alias" db:"alias"`
	Email     *string   `json:"email" db:"email"`
	TokenHash string    `json:"-" db:"token_hash"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SignUpInput struct {
	Alias string  `json:"alias" validate:"required,min=3,max=64"`
	Token string  `json:"token" validate:"required,min=16,max=255"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type SignInInput struct {
	Alias string `json:"alias" validate:"required"`
	Token string `json:"token" validate:"required"`
}
