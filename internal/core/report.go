package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClosingReport is the flat summary of a reconciled register that gets
// replicated and exported.
type ClosingReport struct {
	RegisterID     string          `json:"registerId"`
	StoreID        string          `json:"storeId"`
	EmployeeID     string          `json:"employeeId"`
	OpeningAmount  decimal.Decimal `json:"openingAmount"`
	ClosingAmount  decimal.Decimal `json:"closingAmount"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	Difference     decimal.Decimal `json:"difference"`
	VarianceLevel  string          `json:"varianceLevel"`
	ExpenseCount   int             `json:"expenseCount"`
	OpenedAt       time.Time       `json:"openedAt"`
	ClosedAt       time.Time       `json:"closedAt"`
}

// NewClosingReport flattens a closed register. It returns false while the
// register is still open.
func NewClosingReport(r CashRegister, varianceLevel string) (ClosingReport, bool) {
	if r.IsOpen() || r.ClosingAmount == nil || r.ClosedAt == nil || r.ExpectedAmount == nil || r.Difference == nil {
		return ClosingReport{}, false
	}
	return ClosingReport{
		RegisterID:     r.ID,
		StoreID:        r.StoreID,
		EmployeeID:     r.EmployeeID,
		OpeningAmount:  r.OpeningAmount,
		ClosingAmount:  *r.ClosingAmount,
		ExpectedAmount: *r.ExpectedAmount,
		Difference:     *r.Difference,
		VarianceLevel:  varianceLevel,
		ExpenseCount:   len(r.ExpensesTurno),
		OpenedAt:       r.OpenedAt,
		ClosedAt:       *r.ClosedAt,
	}, true
}
