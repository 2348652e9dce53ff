package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid money amount")

// MaxAmount is the largest value a NUMERIC(12,2) column can hold.
const MaxAmount = 9999999999.99

// Round2 rounds to the cent, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sum adds the values exactly and returns the cent-rounded total.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Sub returns a-b rounded to the cent.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Div returns a/b rounded to the cent. The caller guarantees b != 0.
func Div(a, b float64) float64 {
	return decimal.NewFromFloat(a).Div(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Mul returns a*b rounded to the cent.
func Mul(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Validate checks that a user supplied amount is a finite positive value that
// fits the storage precision.
func Validate(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return ErrInvalidAmount
	}
	return nil
}
