package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	MovementOpening MovementType = "opening"
	MovementSale    MovementType = "sale"
	MovementExpense MovementType = "expense"
	MovementClosing MovementType = "closing"

	RegisterOpen   RegisterStatus = "open"
	RegisterClosed RegisterStatus = "closed"

	LayawayActive    LayawayStatus = "active"
	LayawayCompleted LayawayStatus = "completed"
	LayawayCancelled LayawayStatus = "cancelled"
)

type (
	MovementType   string
	RegisterStatus string
	LayawayStatus  string

	// CashMovement is one entry of the cash ledger. Amount is signed:
	// expenses are negative, closings carry zero.
	CashMovement struct {
		ID          string          `json:"id"`
		StoreID     string          `json:"storeId"`
		EmployeeID  string          `json:"employeeId"`
		Type        MovementType    `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		ReferenceID string          `json:"referenceId,omitempty"`
	}

	// CashRegister is a cashier shift. Closing fields stay nil while open.
	CashRegister struct {
		ID             string           `json:"id"`
		StoreID        string           `json:"storeId"`
		EmployeeID     string           `json:"employeeId"`
		OpeningAmount  decimal.Decimal  `json:"openingAmount"`
		OpenedAt       time.Time        `json:"openedAt"`
		ClosingAmount  *decimal.Decimal `json:"closingAmount,omitempty"`
		ClosedAt       *time.Time       `json:"closedAt,omitempty"`
		Status         RegisterStatus   `json:"status"`
		ExpectedAmount *decimal.Decimal `json:"expectedAmount,omitempty"`
		Difference     *decimal.Decimal `json:"difference,omitempty"`
		ExpensesTurno  []Expense        `json:"expensesTurno,omitempty"`
	}

	SaleItem struct {
		ProductID   string          `json:"productId"`
		ProductName string          `json:"productName"`
		Quantity    int             `json:"quantity"`
		UnitPrice   decimal.Decimal `json:"unitPrice"`
		Total       decimal.Decimal `json:"total"`
	}

	Sale struct {
		ID                    string          `json:"id"`
		StoreID               string          `json:"storeId"`
		EmployeeID            string          `json:"employeeId"`
		CustomerID            string          `json:"customerId,omitempty"`
		Items                 []SaleItem      `json:"items"`
		Subtotal              decimal.Decimal `json:"subtotal"`
		Discount              decimal.Decimal `json:"discount"`
		ShippingCost          decimal.Decimal `json:"shippingCost"`
		PaymentMethod         string          `json:"paymentMethod"`
		PaymentMethodDiscount decimal.Decimal `json:"paymentMethodDiscount"`
		Total                 decimal.Decimal `json:"total"`
		NetTotal              decimal.Decimal `json:"netTotal"`
		InvoiceNumber         string          `json:"invoiceNumber"`
		Date                  time.Time       `json:"date"`
	}

	Expense struct {
		ID            string          `json:"id"`
		StoreID       string          `json:"storeId"`
		EmployeeID    string          `json:"employeeId"`
		Amount        decimal.Decimal `json:"amount"`
		Description   string          `json:"description"`
		Category      string          `json:"category"`
		PaymentMethod string          `json:"paymentMethod,omitempty"`
		Date          time.Time       `json:"date"`
	}

	LayawayItem struct {
		ProductID   string          `json:"productId"`
		ProductName string          `json:"productName"`
		Quantity    int             `json:"quantity"`
		UnitPrice   decimal.Decimal `json:"unitPrice"`
		Total       decimal.Decimal `json:"total"`
	}

	LayawayPayment struct {
		ID            string          `json:"id"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"paymentMethod"`
		EmployeeID    string          `json:"employeeId"`
		Date          time.Time       `json:"date"`
		Notes         string          `json:"notes,omitempty"`
	}

	// Layaway is a reservation paid in installments.
	Layaway struct {
		ID               string           `json:"id"`
		StoreID          string           `json:"storeId"`
		CustomerID       string           `json:"customerId"`
		EmployeeID       string           `json:"employeeId"`
		Items            []LayawayItem    `json:"items"`
		Total            decimal.Decimal  `json:"total"`
		TotalPaid        decimal.Decimal  `json:"totalPaid"`
		RemainingBalance decimal.Decimal  `json:"remainingBalance"`
		Status           LayawayStatus    `json:"status"`
		Payments         []LayawayPayment `json:"payments"`
		CreatedAt        time.Time        `json:"createdAt"`
		DueDate          *time.Time       `json:"dueDate,omitempty"`
	}

	Product struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		SKU      string          `json:"sku"`
		Category string          `json:"category"`
		Price    decimal.Decimal `json:"price"`
		Cost     decimal.Decimal `json:"cost"`
		Stock    int             `json:"stock"`
		MinStock int             `json:"minStock"`
		StoreID  string          `json:"storeId"`
		ImageURL string          `json:"imageUrl,omitempty"`
	}

	PurchaseItem struct {
		ProductID string          `json:"productId"`
		Quantity  int             `json:"quantity"`
		UnitCost  decimal.Decimal `json:"unitCost"`
		Total     decimal.Decimal `json:"total"`
	}

	Purchase struct {
		ID            string          `json:"id"`
		StoreID       string          `json:"storeId"`
		SupplierID    string          `json:"supplierId"`
		EmployeeID    string          `json:"employeeId"`
		Items         []PurchaseItem  `json:"items"`
		Total         decimal.Decimal `json:"total"`
		InvoiceNumber string          `json:"invoiceNumber,omitempty"`
		Date          time.Time       `json:"date"`
	}

	Customer struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		Email          string          `json:"email,omitempty"`
		Phone          string          `json:"phone,omitempty"`
		Address        string          `json:"address,omitempty"`
		StoreID        string          `json:"storeId"`
		TotalPurchases decimal.Decimal `json:"totalPurchases"`
		LastPurchase   *time.Time      `json:"lastPurchase,omitempty"`
	}

	PaymentMethod struct {
		ID                 string          `json:"id"`
		Name               string          `json:"name"`
		DiscountPercentage decimal.Decimal `json:"discountPercentage"`
		IsActive           bool            `json:"isActive"`
	}
)

var (
	ErrEmptyID          = errors.New("empty id")
	ErrEmptyStore       = errors.New("empty store id")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidType      = errors.New("invalid movement type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyItems       = errors.New("no items")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCustomer    = errors.New("empty customer id")

	// ErrDescriptionTooLong counts characters, not bytes.
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

const maxDescriptionLength = 200

func (t MovementType) IsValid() bool {
	switch t {
	case MovementOpening, MovementSale, MovementExpense, MovementClosing:
		return true
	}
	return false
}

func (m CashMovement) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(m.StoreID) == "" {
		return ErrEmptyStore
	}
	if !m.Type.IsValid() {
		return ErrInvalidType
	}
	if m.Date.IsZero() {
		return ErrZeroDate
	}
	switch m.Type {
	case MovementExpense:
		if m.Amount.IsPositive() {
			return ErrInvalidAmount
		}
	case MovementSale, MovementOpening:
		if m.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	if utf8.RuneCountInString(m.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsOpen reports whether the register still accepts a close.
func (r CashRegister) IsOpen() bool {
	return r.Status == RegisterOpen
}

func (s Sale) Validate() error {
	if strings.TrimSpace(s.StoreID) == "" {
		return ErrEmptyStore
	}
	if len(s.Items) == 0 {
		return ErrEmptyItems
	}
	for _, it := range s.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		if it.UnitPrice.IsNegative() {
			return ErrInvalidAmount
		}
	}
	if s.Total.IsNegative() {
		return ErrInvalidAmount
	}
	if s.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.StoreID) == "" {
		return ErrEmptyStore
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (l Layaway) Validate() error {
	if strings.TrimSpace(l.StoreID) == "" {
		return ErrEmptyStore
	}
	if strings.TrimSpace(l.CustomerID) == "" {
		return ErrEmptyCustomer
	}
	if len(l.Items) == 0 {
		return ErrEmptyItems
	}
	for _, it := range l.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if !l.Total.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (p LayawayPayment) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(p.StoreID) == "" {
		return ErrEmptyStore
	}
	if p.Price.IsNegative() || p.Cost.IsNegative() {
		return ErrInvalidAmount
	}
	if p.MinStock < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Validate bounds the surcharge to a percentage between 0 and 100.
func (m PaymentMethod) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.DiscountPercentage.IsNegative() || m.DiscountPercentage.GreaterThan(hundred) {
		return ErrInvalidAmount
	}
	return nil
}

// IsLowStock matches the dashboard alert rule: at or below the minimum.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.MinStock
}

func (p Purchase) Validate() error {
	if strings.TrimSpace(p.StoreID) == "" {
		return ErrEmptyStore
	}
	if len(p.Items) == 0 {
		return ErrEmptyItems
	}
	for _, it := range p.Items {
		if it.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if p.Total.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.StoreID) == "" {
		return ErrEmptyStore
	}
	return nil
}
