package model

import (
	"strings"
	"time"
)

type Month string

const (
	January   Month = "JANUARY"
	February  Month = "FEBRUARY"
	March     Month = "MARCH"
	April     Month = "APRIL"
	May       Month = "MAY"
	June      Month = "JUNE"
	July      Month = "JULY"
	August    Month = "AUGUST"
	September Month = "SEPTEMBER"
	October   Month = "OCTOBER"
	November  Month = "NOVEMBER"
	December  Month = "DECEMBER"
)

var monthOrder = map[Month]time.Month{
	January:   time.January,
	February:  time.February,
	March:     time.March,
	April:     time.April,
	May:       time.May,
	June:      time.June,
	July:      time.July,
	August:    time.August,
	September: time.September,
	October:   time.October,
	November:  time.November,
	December:  time.December,
}

func (m Month) Valid() bool {
	_, ok := monthOrder[m]
	return ok
}

func (m Month) Time() time.Month {
	return monthOrder[m]
}

// MonthOf converts a calendar month into its enum name.
func MonthOf(t time.Month) Month {
	return Month(strings.ToUpper(t.String()))
}

// ComparePeriods orders two month/year pairs. The result is negative when the
// first period is earlier, zero when equal and positive when later.
func ComparePeriods(m1 Month, y1 int, m2 Month, y2 int) int {
	if y1 != y2 {
		return y1 - y2
	}
	return int(m1.Time()) - int(m2.Time())
}

// FirstOfMonth is the anchor date of a monthly account.
func FirstOfMonth(m Month, year int) time.Time {
	return time.Date(year, m.Time(), 1, 0, 0, 0, 0, time.UTC)
}
