// Package budget derives an account's spending metrics from its transactions.
package budget

import (
	"time"

	"expense-manager/internal/model"
)

// DaysInMonth returns the number of days of month in year (Gregorian).
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Window is the elapsed/remaining split of an account's month.
type Window struct {
	Passed int
	Left   int
}

// periodIndex orders month/year pairs on a single axis.
func periodIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// DateWindow computes the day window of the month anchored at ref.
//
// Current month: today's day of month has passed. Future month: the latest
// known date (ref or the newest transaction) stands in for today. Past month:
// the whole month counts as both passed and left. All dates are compared in UTC,
// the zone account anchors are defined in.
func DateWindow(ref time.Time, dates []time.Time, now time.Time) Window {
	ref = ref.UTC()
	today := now.UTC()
	total := DaysInMonth(ref.Month(), ref.Year())

	switch cur, anchor := periodIndex(today), periodIndex(ref); {
	case anchor == cur:
		return Window{Passed: today.Day(), Left: total - today.Day()}
	case anchor > cur:
		last := ref
		for _, d := range dates {
			if d.After(last) {
				last = d
			}
		}
		last = last.UTC()
		day := last.Day()
		if periodIndex(last) > anchor {
			day = total
		}
		return Window{Passed: day, Left: total - day}
	default:
		return Window{Passed: total, Left: total}
	}
}

// DaysPassed is the number of days of the account month treated as elapsed.
func DaysPassed(txs []model.Transaction, ref, now time.Time) int {
	return DateWindow(ref, transactionDates(txs), now).Passed
}

// DaysLeft is the number of days of the account month still ahead.
func DaysLeft(txs []model.Transaction, ref, now time.Time) int {
	return DateWindow(ref, transactionDates(txs), now).Left
}

func transactionDates(txs []model.Transaction) []time.Time {
	dates := make([]time.Time, 0, len(txs))
	for i := range txs {
		if txs[i].DeletedAt != nil {
			continue
		}
		dates = append(dates, txs[i].Date)
	}
	return dates
}
