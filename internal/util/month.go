package util

import (
	"fmt"
	"time"
)

// NextMonth returns the year and month for the following month
func NextMonth(year, month int) (int, int) {
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

// FirstOfMonth returns midnight UTC of the first day of the given month
func FirstOfMonth(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabel formats the calendar month of t as "MM/YYYY"
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%02d/%04d", int(t.Month()), t.Year())
}

// YearMonthLayout is the wire format of a month selector
const YearMonthLayout = "2006-01"

// ParseYearMonth parses a strict "YYYY-MM" token. Signs, spaces, year zero
// and out-of-range months are rejected.
func ParseYearMonth(s string) (year, month int, ok bool) {
	if len(s) != len(YearMonthLayout) {
		return 0, 0, false
	}
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil || t.Year() < 1 {
		return 0, 0, false
	}
	return t.Year(), int(t.Month()), true
}
