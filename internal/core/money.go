// Package core provides money parsing and formatting utilities.
//
// Amounts are Colombian pesos held as decimal.Decimal. Input strings may use
// the local convention (dot for thousands, comma for decimals) or a plain
// dot decimal.
package core

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var hundred = decimal.NewFromInt(100)

var copPrinter = message.NewPrinter(language.MustParse("es-CO"))

// ParseAmount converts a user supplied amount to a decimal.
//
// Accepted forms:
//
//	ParseAmount("1500")        -> 1500
//	ParseAmount("$ 1.500.000") -> 1500000
//	ParseAmount("1.500,50")    -> 1500.5
//	ParseAmount("12,5")        -> 12.5
//	ParseAmount("12.5")        -> 12.5
//
// Negative values and malformed input return ErrInvalidAmount. Zero is
// accepted; callers decide whether it is meaningful.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case commas > 1:
		return decimal.Zero, ErrInvalidAmount
	case commas == 1:
		// 1.500,50
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dots > 1:
		// 1.500.000
		s = strings.ReplaceAll(s, ".", "")
	case dots == 1 && isThousandsGroup(s):
		// 1.500
		s = strings.Replace(s, ".", "", 1)
	}

	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// isThousandsGroup reports whether a single-dot string looks like "1.500"
// rather than "1.5".
func isThousandsGroup(s string) bool {
	idx := strings.Index(s, ".")
	return idx > 0 && s[:idx] != "0" && len(s)-idx-1 == 3
}

// FormatCOP renders an amount the way the point of sale displays it,
// es-CO grouping with no fraction digits: "$ 1.500.000".
func FormatCOP(d decimal.Decimal) string {
	rounded := d.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	return sign + "$ " + copPrinter.Sprint(number.Decimal(rounded.IntPart(), number.MaxFractionDigits(0)))
}

// NetTotal applies a payment method surcharge percentage to a sale total.
func NetTotal(total, discountPercentage decimal.Decimal) decimal.Decimal {
	return total.Sub(total.Mul(discountPercentage).Div(hundred))
}

// Sum adds up a slice of amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	out := decimal.Zero
	for _, v := range values {
		out = out.Add(v)
	}
	return out
}

// SameCalendarDay compares year, month and day of t against ref, both read
// in ref's location.
func SameCalendarDay(t, ref time.Time) bool {
	t = t.In(ref.Location())
	ty, tm, td := t.Date()
	ry, rm, rd := ref.Date()
	return ty == ry && tm == rm && td == rd
}

// InWindow reports whether t falls within [from, to], both ends inclusive.
func InWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}
