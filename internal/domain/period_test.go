package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestResolvePeriod_DefaultsToCurrentYear(t *testing.T) {
	today := time.Date(2025, time.October, 15, 13, 45, 0, 0, time.UTC)

	p, ok := ResolvePeriod(nil, today)

	require.True(t, ok)
	require.NotNil(t, p.Start)
	require.NotNil(t, p.End)
	assert.Equal(t, date(2025, time.January, 1), *p.Start)
	assert.Equal(t, date(2026, time.January, 1), *p.End)
}

func TestResolvePeriod_Month(t *testing.T) {
	today := date(2030, time.June, 1)

	tests := []struct {
		token     string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"2025-10", date(2025, time.October, 1), date(2025, time.November, 1)},
		{"2025-02", date(2025, time.February, 1), date(2025, time.March, 1)},
		{"2025-12", date(2025, time.December, 1), date(2026, time.January, 1)},
		{"2024-01", date(2024, time.January, 1), date(2024, time.February, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			p, ok := ResolvePeriod(strPtr(tt.token), today)

			require.True(t, ok)
			require.NotNil(t, p.Start)
			require.NotNil(t, p.End)
			assert.Equal(t, tt.wantStart, *p.Start)
			assert.Equal(t, tt.wantEnd, *p.End)
			assert.Equal(t, p.Start.AddDate(0, 1, 0), *p.End, "end must be exactly one calendar month after start")
		})
	}
}

func TestResolvePeriod_EveryMonthSpansOneCalendarMonth(t *testing.T) {
	for year := 2023; year <= 2026; year++ {
		for month := 1; month <= 12; month++ {
			token := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
			p, ok := ResolvePeriod(&token, time.Now())
			require.True(t, ok, token)
			assert.Equal(t, p.Start.AddDate(0, 1, 0), *p.End, token)
			assert.Equal(t, 1, p.Start.Day(), token)
		}
	}
}

func TestResolvePeriod_MalformedIsUnbounded(t *testing.T) {
	today := date(2025, time.October, 15)

	for _, token := range []string{"2025-13", "abcd-02", "", "foo", "2025-00", "2025-1", "2025-02-30|2025-03-01", "2025-03-10|2025-03-01"} {
		t.Run(token, func(t *testing.T) {
			p, ok := ResolvePeriod(strPtr(token), today)

			assert.False(t, ok)
			assert.Nil(t, p.Start)
			assert.Nil(t, p.End)
			assert.False(t, p.Bounded())
		})
	}
}

func TestResolvePeriod_CustomRange(t *testing.T) {
	p, ok := ResolvePeriod(strPtr("2025-01-10|2025-02-05"), time.Now())

	require.True(t, ok)
	assert.Equal(t, date(2025, time.January, 10), *p.Start)
	assert.Equal(t, date(2025, time.February, 6), *p.End)
	assert.True(t, p.Contains(date(2025, time.February, 5)))
	assert.False(t, p.Contains(date(2025, time.February, 6)))
}

func TestResolvePeriod_SingleDayRange(t *testing.T) {
	p, ok := ResolvePeriod(strPtr("2025-12-31|2025-12-31"), time.Now())

	require.True(t, ok)
	assert.Equal(t, date(2026, time.January, 1), *p.End)
	assert.True(t, p.Contains(date(2025, time.December, 31)))
}

func TestPeriod_Contains(t *testing.T) {
	p := MonthPeriod(2025, 2)

	assert.False(t, p.Contains(date(2025, time.January, 31)))
	assert.True(t, p.Contains(date(2025, time.February, 1)))
	assert.True(t, p.Contains(time.Date(2025, time.February, 28, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(date(2025, time.March, 1)))

	assert.True(t, Period{}.Contains(date(1999, time.January, 1)))
}
