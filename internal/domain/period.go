package domain

import (
	"strings"
	"time"

	"github.com/moremoney/moremoney-backend/internal/util"
)

// Period is a half-open date interval [Start, End). A nil bound imposes no
// constraint; the zero Period matches every date.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// Bounded reports whether at least one bound is set
func (p Period) Bounded() bool {
	return p.Start != nil || p.End != nil
}

// Contains reports whether the calendar date of d falls inside the period
func (p Period) Contains(d time.Time) bool {
	d = DateOnly(d)
	if p.Start != nil && d.Before(*p.Start) {
		return false
	}
	if p.End != nil && !d.Before(*p.End) {
		return false
	}
	return true
}

// YearPeriod covers a whole calendar year
func YearPeriod(year int) Period {
	start := util.FirstOfMonth(year, 1)
	end := util.FirstOfMonth(year+1, 1)
	return Period{Start: &start, End: &end}
}

// MonthPeriod covers a whole calendar month
func MonthPeriod(year, month int) Period {
	start := util.FirstOfMonth(year, month)
	end := util.FirstOfMonth(util.NextMonth(year, month))
	return Period{Start: &start, End: &end}
}

// RangeSeparator joins the inclusive start and end dates of a custom range token
const RangeSeparator = "|"

// ResolvePeriod turns an optional period token into date bounds.
//
//	nil                      -> the calendar year of today
//	"YYYY-MM"                -> that month
//	"YYYY-MM-DD|YYYY-MM-DD"  -> inclusive custom range, end made exclusive
//	anything else            -> unbounded
//
// The second result is false when a token was given but could not be parsed.
func ResolvePeriod(token *string, today time.Time) (Period, bool) {
	if token == nil {
		return YearPeriod(today.Year()), true
	}

	raw := strings.TrimSpace(*token)
	if year, month, ok := util.ParseYearMonth(raw); ok {
		return MonthPeriod(year, month), true
	}

	if from, to, found := strings.Cut(raw, RangeSeparator); found {
		if p, ok := parseRange(from, to); ok {
			return p, true
		}
	}

	return Period{}, false
}

func parseRange(from, to string) (Period, bool) {
	start, err := time.Parse(DateLayout, strings.TrimSpace(from))
	if err != nil {
		return Period{}, false
	}
	last, err := time.Parse(DateLayout, strings.TrimSpace(to))
	if err != nil {
		return Period{}, false
	}
	if last.Before(start) {
		return Period{}, false
	}
	end := last.AddDate(0, 0, 1)
	return Period{Start: &start, End: &end}, true
}
