package register

import "github.com/shopspring/decimal"

type VarianceLevel string

const (
	VarianceNormal   VarianceLevel = "normal"
	VarianceWarning  VarianceLevel = "warning"
	VarianceCritical VarianceLevel = "critical"
)

var (
	one     = decimal.NewFromInt(1)
	five    = decimal.NewFromInt(5)
	hundred = decimal.NewFromInt(100)
)

// ClassifyDifference grades a closing difference as a percentage of the
// expected amount: normal up to 1%, warning up to 5%, critical above.
// With nothing expected any difference is critical.
func ClassifyDifference(difference, expected decimal.Decimal) VarianceLevel {
	if difference.IsZero() {
		return VarianceNormal
	}
	if expected.IsZero() {
		return VarianceCritical
	}
	pct := difference.Div(expected).Mul(hundred).Abs()
	switch {
	case pct.LessThanOrEqual(one):
		return VarianceNormal
	case pct.LessThanOrEqual(five):
		return VarianceWarning
	default:
		return VarianceCritical
	}
}
