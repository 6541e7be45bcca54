// Package sheets exports reconciled register closings to a spreadsheet.
package sheets

import (
	"context"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

// Ports for outbound adapters.
type (
	ClosingReportWriter interface {
		AppendClosing(ctx context.Context, report core.ClosingReport) (rowRef string, err error)
	}
)

// ClosingHeader names the exported columns, in order.
var ClosingHeader = []string{
	"Fecha cierre", "Tienda", "Caja", "Empleado", "Apertura",
	"Conteo", "Esperado", "Diferencia", "Nivel", "Gastos",
}

// ClosingRow renders report as a spreadsheet row matching ClosingHeader.
func ClosingRow(report core.ClosingReport) []any {
	return []any{
		report.ClosedAt.Format("2006-01-02 15:04"),
		report.StoreID,
		report.RegisterID,
		report.EmployeeID,
		report.OpeningAmount.InexactFloat64(),
		report.ClosingAmount.InexactFloat64(),
		report.ExpectedAmount.InexactFloat64(),
		report.Difference.InexactFloat64(),
		report.VarianceLevel,
		report.ExpenseCount,
	}
}
