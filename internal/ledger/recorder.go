package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

// Recorder turns business events into cash movements. It does not touch the
// ledger; callers append the result. IDs come from NewID, which defaults to
// random UUIDs.
type Recorder struct {
	NewID func() string
}

func NewRecorder() Recorder {
	return Recorder{NewID: uuid.NewString}
}

func (r Recorder) id() string {
	if r.NewID == nil {
		return uuid.NewString()
	}
	return r.NewID()
}

// RecordSale books the gross sale total as income.
func (r Recorder) RecordSale(sale core.Sale) core.CashMovement {
	return core.CashMovement{
		ID:          r.id(),
		StoreID:     sale.StoreID,
		EmployeeID:  sale.EmployeeID,
		Type:        core.MovementSale,
		Amount:      sale.Total,
		Description: "Venta " + sale.InvoiceNumber,
		Date:        sale.Date,
		ReferenceID: sale.ID,
	}
}

// RecordExpense books the expense as a negative amount.
func (r Recorder) RecordExpense(expense core.Expense) core.CashMovement {
	return core.CashMovement{
		ID:          r.id(),
		StoreID:     expense.StoreID,
		EmployeeID:  expense.EmployeeID,
		Type:        core.MovementExpense,
		Amount:      expense.Amount.Neg(),
		Description: expense.Description,
		Date:        expense.Date,
		ReferenceID: expense.ID,
	}
}

// RecordLayawayPayment books an installment as income of the layaway's store.
func (r Recorder) RecordLayawayPayment(layaway core.Layaway, payment core.LayawayPayment) core.CashMovement {
	return core.CashMovement{
		ID:          r.id(),
		StoreID:     layaway.StoreID,
		EmployeeID:  payment.EmployeeID,
		Type:        core.MovementSale,
		Amount:      payment.Amount,
		Description: "Abono separado #" + layaway.ID,
		Date:        payment.Date,
		ReferenceID: layaway.ID,
	}
}

func (r Recorder) RecordRegisterOpen(register core.CashRegister) core.CashMovement {
	return core.CashMovement{
		ID:          r.id(),
		StoreID:     register.StoreID,
		EmployeeID:  register.EmployeeID,
		Type:        core.MovementOpening,
		Amount:      register.OpeningAmount,
		Description: "Apertura de caja",
		Date:        register.OpenedAt,
		ReferenceID: register.ID,
	}
}

// RecordRegisterClose is informational: the amount is always zero and the
// counted cash only shows up in the description.
func (r Recorder) RecordRegisterClose(register core.CashRegister, closingAmount decimal.Decimal, at time.Time) core.CashMovement {
	return core.CashMovement{
		ID:          r.id(),
		StoreID:     register.StoreID,
		EmployeeID:  register.EmployeeID,
		Type:        core.MovementClosing,
		Amount:      decimal.Zero,
		Description: fmt.Sprintf("Cierre de caja - Conteo: %s", core.FormatCOP(closingAmount)),
		Date:        at,
		ReferenceID: register.ID,
	}
}

// RecordManual builds a movement entered by hand. Expense amounts are
// forced negative so the ledger sign convention holds.
func (r Recorder) RecordManual(storeID, employeeID string, t core.MovementType, amount decimal.Decimal, description string, at time.Time) core.CashMovement {
	if t == core.MovementExpense {
		amount = amount.Abs().Neg()
	}
	return core.CashMovement{
		ID:          r.id(),
		StoreID:     storeID,
		EmployeeID:  employeeID,
		Type:        t,
		Amount:      amount,
		Description: description,
		Date:        at,
	}
}
