package money

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{32.258064516, 32.26},
		{1.005, 1.01},
		{2.675, 2.68},
		{-2.675, -2.68},
		{10, 10},
		{0.004, 0},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSumHasNoFloatDrift(t *testing.T) {
	values := make([]float64, 0, 10)
	for i := 0; i < 10; i++ {
		values = append(values, 0.1)
	}
	if got := Sum(values...); got != 1 {
		t.Fatalf("Sum of ten 0.1 = %v, want 1", got)
	}
}

func TestDiv(t *testing.T) {
	if got := Div(1000, 31); got != 32.26 {
		t.Fatalf("Div(1000, 31) = %v, want 32.26", got)
	}
	if got := Div(690, 21); got != 32.86 {
		t.Fatalf("Div(690, 21) = %v, want 32.86", got)
	}
}

func TestValidate(t *testing.T) {
	for _, bad := range []float64{0, -1, MaxAmount + 1} {
		if err := Validate(bad); err == nil {
			t.Errorf("Validate(%v) expected error", bad)
		}
	}
	if err := Validate(12.5); err != nil {
		t.Errorf("Validate(12.5) unexpected error: %v", err)
	}
}
