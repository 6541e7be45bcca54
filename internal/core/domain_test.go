package core

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCashMovementValidate(t *testing.T) {
	good := CashMovement{ID: "m1", StoreID: "1", Type: MovementSale, Amount: dec(100), Date: day}
	require.NoError(t, good.Validate())

	cases := []struct {
		name string
		m    CashMovement
		err  error
	}{
		{"no id", CashMovement{StoreID: "1", Type: MovementSale, Date: day}, ErrEmptyID},
		{"no store", CashMovement{ID: "m", Type: MovementSale, Date: day}, ErrEmptyStore},
		{"bad type", CashMovement{ID: "m", StoreID: "1", Type: "refund", Date: day}, ErrInvalidType},
		{"zero date", CashMovement{ID: "m", StoreID: "1", Type: MovementSale}, ErrZeroDate},
		{"positive expense", CashMovement{ID: "m", StoreID: "1", Type: MovementExpense, Amount: dec(5), Date: day}, ErrInvalidAmount},
		{"negative sale", CashMovement{ID: "m", StoreID: "1", Type: MovementSale, Amount: dec(-5), Date: day}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.m.Validate(), tc.err)
		})
	}
}

func TestDescriptionLengthCountsCharacters(t *testing.T) {
	accented := strings.Repeat("ñ", 150)
	require.Greater(t, len(accented), maxDescriptionLength, "more bytes than the limit")

	m := CashMovement{ID: "m1", StoreID: "1", Type: MovementSale, Amount: dec(1), Date: day, Description: accented}
	assert.NoError(t, m.Validate())
	e := Expense{StoreID: "1", Amount: dec(1), Description: accented, Date: day}
	assert.NoError(t, e.Validate())

	m.Description = strings.Repeat("ñ", maxDescriptionLength+1)
	assert.ErrorIs(t, m.Validate(), ErrDescriptionTooLong)
	e.Description = m.Description
	assert.ErrorIs(t, e.Validate(), ErrDescriptionTooLong)
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{StoreID: "1", Amount: dec(10000), Description: "Arriendo", Category: "Servicios", Date: day}
	require.NoError(t, good.Validate())

	cases := []struct {
		e   Expense
		err error
	}{
		{Expense{Amount: dec(1), Description: "a", Date: day}, ErrEmptyStore},
		{Expense{StoreID: "1", Amount: dec(0), Description: "a", Date: day}, ErrInvalidAmount},
		{Expense{StoreID: "1", Amount: dec(1), Description: " ", Date: day}, ErrEmptyDescription},
		{Expense{StoreID: "1", Amount: dec(1), Description: "a"}, ErrZeroDate},
	}
	for i, tc := range cases {
		assert.ErrorIs(t, tc.e.Validate(), tc.err, "case %d", i)
	}
}

func TestSaleValidate(t *testing.T) {
	item := SaleItem{ProductID: "p1", Quantity: 1, UnitPrice: dec(1000), Total: dec(1000)}
	good := Sale{StoreID: "1", Items: []SaleItem{item}, Total: dec(1000), Date: day}
	require.NoError(t, good.Validate())

	noItems := good
	noItems.Items = nil
	assert.ErrorIs(t, noItems.Validate(), ErrEmptyItems)

	zeroQty := good
	zeroQty.Items = []SaleItem{{ProductID: "p1", Quantity: 0}}
	assert.ErrorIs(t, zeroQty.Validate(), ErrInvalidQuantity)
}

func TestLayawayValidate(t *testing.T) {
	l := Layaway{StoreID: "1", CustomerID: "c1", Items: []LayawayItem{{ProductID: "p", Quantity: 1}}, Total: dec(300)}
	require.NoError(t, l.Validate())
	l.CustomerID = ""
	assert.ErrorIs(t, l.Validate(), ErrEmptyCustomer)
	assert.ErrorIs(t, LayawayPayment{Amount: dec(0), Date: day}.Validate(), ErrInvalidAmount)
}

func TestPaymentMethodValidate(t *testing.T) {
	assert.NoError(t, PaymentMethod{Name: "Bono", DiscountPercentage: dec(100)}.Validate())
	assert.ErrorIs(t, PaymentMethod{Name: " "}.Validate(), ErrEmptyName)
	assert.ErrorIs(t, PaymentMethod{Name: "Bono", DiscountPercentage: dec(-1)}.Validate(), ErrInvalidAmount)
	assert.ErrorIs(t, PaymentMethod{Name: "Bono", DiscountPercentage: dec(101)}.Validate(), ErrInvalidAmount)
}

func TestProductLowStock(t *testing.T) {
	assert.True(t, Product{Stock: 5, MinStock: 5}.IsLowStock(), "stock equal to minimum is low")
	assert.False(t, Product{Stock: 6, MinStock: 5}.IsLowStock())
}

func TestNormalizeCategories(t *testing.T) {
	got := NormalizeCategories([]string{"Otros", " servicios ", "Servicios", "", "Aseo"})
	assert.Equal(t, []string{"Aseo", "Otros", "servicios"}, got)
}

func TestFindPaymentMethod(t *testing.T) {
	m, ok := FindPaymentMethod(DefaultPaymentMethods(), "nequi")
	require.True(t, ok)
	assert.True(t, m.DiscountPercentage.Equal(decimal.RequireFromString("1.8")))

	_, ok = FindPaymentMethod(DefaultPaymentMethods(), "Bitcoin")
	assert.False(t, ok)
}

func TestNewClosingReport(t *testing.T) {
	open := CashRegister{ID: "r1", StoreID: "1", OpeningAmount: dec(100), OpenedAt: day, Status: RegisterOpen}
	_, ok := NewClosingReport(open, "normal")
	assert.False(t, ok, "open register has no report")

	closedAt := day.Add(8 * time.Hour)
	closing, expected, diff := dec(90), dec(100), dec(-10)
	closed := open
	closed.Status = RegisterClosed
	closed.ClosingAmount = &closing
	closed.ClosedAt = &closedAt
	closed.ExpectedAmount = &expected
	closed.Difference = &diff
	closed.ExpensesTurno = []Expense{{ID: "e1"}}

	report, ok := NewClosingReport(closed, "critical")
	require.True(t, ok)
	assert.Equal(t, "r1", report.RegisterID)
	assert.True(t, report.Difference.Equal(dec(-10)))
	assert.Equal(t, 1, report.ExpenseCount)
	assert.Equal(t, "critical", report.VarianceLevel)
	assert.Equal(t, closedAt, report.ClosedAt)
}
