package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1500", "1500", true},
		{"1.500", "1500", true},
		{"$ 1.500.000", "1500000", true},
		{"1.500,50", "1500.5", true},
		{"12,5", "12.5", true},
		{"12.5", "12.5", true},
		{"0.125", "0.125", true},
		{" 0 ", "0", true},
		{"-1", "", false},
		{"abc", "", false},
		{"1,2,3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.out)), "got %s", got)
		})
	}
}

func TestFormatCOP(t *testing.T) {
	got := FormatCOP(decimal.NewFromInt(1500000))
	assert.Regexp(t, `^\$`, got)
	assert.Contains(t, got, "1.500.000")

	neg := FormatCOP(decimal.NewFromInt(-2500000))
	assert.Regexp(t, `^-\$`, neg)
	assert.Contains(t, neg, "2.500.000")

	assert.Contains(t, FormatCOP(decimal.RequireFromString("1999999.6")), "2.000.000")
}

func TestNetTotal(t *testing.T) {
	got := NetTotal(decimal.NewFromInt(100000), decimal.RequireFromString("3.8"))
	assert.True(t, got.Equal(decimal.NewFromInt(96200)), "got %s", got)
	same := NetTotal(decimal.NewFromInt(50000), decimal.Zero)
	assert.True(t, same.Equal(decimal.NewFromInt(50000)), "got %s", same)
}

func TestSameCalendarDay(t *testing.T) {
	loc := time.FixedZone("COT", -5*3600)
	now := time.Date(2025, 3, 10, 1, 0, 0, 0, loc)
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"same day", time.Date(2025, 3, 10, 0, 0, 0, 0, loc), true},
		{"yesterday within 24h", time.Date(2025, 3, 9, 23, 30, 0, 0, loc), false},
		{"utc instant on same local day", time.Date(2025, 3, 10, 5, 30, 0, 0, time.UTC), true},
		{"same day previous year", time.Date(2024, 3, 10, 1, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SameCalendarDay(tc.t, now))
		})
	}
}

func TestInWindow(t *testing.T) {
	from := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	assert.True(t, InWindow(from, from, to), "bounds are inclusive")
	assert.True(t, InWindow(to, from, to), "bounds are inclusive")
	assert.False(t, InWindow(from.Add(-time.Second), from, to))
	assert.False(t, InWindow(to.Add(time.Second), from, to))
}
