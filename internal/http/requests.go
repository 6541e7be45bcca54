package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// newValidator reports fields by their JSON names and knows the "amount"
// tag: an optional peso amount in any form ParseAmount accepts.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.TrimSpace(s) == "" {
			return true
		}
		_, err := core.ParseAmount(s)
		return err == nil
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return s.validate.Struct(dst)
}

// amount converts a validated amount field; empty means zero.
func amount(s string) decimal.Decimal {
	d, err := core.ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func dateOr(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

type cashMovementRequest struct {
	StoreID     string     `json:"storeId" validate:"required"`
	EmployeeID  string     `json:"employeeId"`
	Type        string     `json:"type" validate:"required,oneof=opening sale expense closing"`
	Amount      string     `json:"amount" validate:"required,amount"`
	Description string     `json:"description" validate:"max=200"`
	ReferenceID string     `json:"referenceId"`
	Date        *time.Time `json:"date"`
}

// toMovement takes the amount as a magnitude; the service books expenses
// negative.
func (req cashMovementRequest) toMovement() core.CashMovement {
	return core.CashMovement{
		StoreID:     req.StoreID,
		EmployeeID:  req.EmployeeID,
		Type:        core.MovementType(req.Type),
		Amount:      amount(req.Amount),
		Description: sanitizeInput(req.Description),
		ReferenceID: req.ReferenceID,
		Date:        dateOr(req.Date),
	}
}

type openRegisterRequest struct {
	StoreID       string `json:"storeId" validate:"required"`
	EmployeeID    string `json:"employeeId" validate:"required"`
	OpeningAmount string `json:"openingAmount" validate:"required,amount"`
}

type closeRegisterRequest struct {
	ClosingAmount string           `json:"closingAmount" validate:"required,amount"`
	Adjustments   []expenseRequest `json:"adjustments" validate:"dive"`
}

type expenseRequest struct {
	ID            string     `json:"id"`
	StoreID       string     `json:"storeId" validate:"required"`
	EmployeeID    string     `json:"employeeId"`
	Amount        string     `json:"amount" validate:"required,amount"`
	Description   string     `json:"description" validate:"required,max=200"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"paymentMethod"`
	Date          *time.Time `json:"date"`
}

func (req expenseRequest) toExpense() core.Expense {
	return core.Expense{
		ID:            req.ID,
		StoreID:       req.StoreID,
		EmployeeID:    req.EmployeeID,
		Amount:        amount(req.Amount),
		Description:   sanitizeInput(req.Description),
		Category:      sanitizeInput(req.Category),
		PaymentMethod: req.PaymentMethod,
		Date:          dateOr(req.Date),
	}
}

type lineItemRequest struct {
	ProductID   string `json:"productId" validate:"required"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
	UnitPrice   string `json:"unitPrice" validate:"required,amount"`
}

func (it lineItemRequest) total() decimal.Decimal {
	return amount(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type saleRequest struct {
	StoreID               string            `json:"storeId" validate:"required"`
	EmployeeID            string            `json:"employeeId"`
	CustomerID            string            `json:"customerId"`
	Items                 []lineItemRequest `json:"items" validate:"min=1,dive"`
	Discount              string            `json:"discount" validate:"amount"`
	ShippingCost          string            `json:"shippingCost" validate:"amount"`
	PaymentMethod         string            `json:"paymentMethod" validate:"required"`
	PaymentMethodDiscount string            `json:"paymentMethodDiscount" validate:"amount"`
	Total                 string            `json:"total" validate:"amount"`
	NetTotal              string            `json:"netTotal" validate:"amount"`
	InvoiceNumber         string            `json:"invoiceNumber"`
	Date                  *time.Time        `json:"date"`
}

// toSale prices the items. Without an explicit total, the total is the
// subtotal less discount plus shipping.
func (req saleRequest) toSale() core.Sale {
	items := make([]core.SaleItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, it := range req.Items {
		line := it.total()
		subtotal = subtotal.Add(line)
		items = append(items, core.SaleItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   amount(it.UnitPrice),
			Total:       line,
		})
	}
	discount := amount(req.Discount)
	shipping := amount(req.ShippingCost)
	total := subtotal.Sub(discount).Add(shipping)
	if strings.TrimSpace(req.Total) != "" {
		total = amount(req.Total)
	}
	return core.Sale{
		StoreID:               req.StoreID,
		EmployeeID:            req.EmployeeID,
		CustomerID:            req.CustomerID,
		Items:                 items,
		Subtotal:              subtotal,
		Discount:              discount,
		ShippingCost:          shipping,
		PaymentMethod:         req.PaymentMethod,
		PaymentMethodDiscount: amount(req.PaymentMethodDiscount),
		Total:                 total,
		NetTotal:              amount(req.NetTotal),
		InvoiceNumber:         sanitizeInput(req.InvoiceNumber),
		Date:                  dateOr(req.Date),
	}
}

type layawayRequest struct {
	StoreID    string            `json:"storeId" validate:"required"`
	CustomerID string            `json:"customerId" validate:"required"`
	EmployeeID string            `json:"employeeId"`
	Items      []lineItemRequest `json:"items" validate:"min=1,dive"`
	Total      string            `json:"total" validate:"amount"`
	DueDate    *time.Time        `json:"dueDate"`
}

func (req layawayRequest) toLayaway() core.Layaway {
	items := make([]core.LayawayItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		line := it.total()
		total = total.Add(line)
		items = append(items, core.LayawayItem{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   amount(it.UnitPrice),
			Total:       line,
		})
	}
	if strings.TrimSpace(req.Total) != "" {
		total = amount(req.Total)
	}
	return core.Layaway{
		StoreID:    req.StoreID,
		CustomerID: req.CustomerID,
		EmployeeID: req.EmployeeID,
		Items:      items,
		Total:      total,
		DueDate:    req.DueDate,
	}
}

type layawayPaymentRequest struct {
	Amount        string     `json:"amount" validate:"required,amount"`
	PaymentMethod string     `json:"paymentMethod"`
	EmployeeID    string     `json:"employeeId"`
	Notes         string     `json:"notes" validate:"max=200"`
	Date          *time.Time `json:"date"`
}

func (req layawayPaymentRequest) toPayment() core.LayawayPayment {
	return core.LayawayPayment{
		Amount:        amount(req.Amount),
		PaymentMethod: req.PaymentMethod,
		EmployeeID:    req.EmployeeID,
		Notes:         sanitizeInput(req.Notes),
		Date:          dateOr(req.Date),
	}
}

type purchaseItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	UnitCost  string `json:"unitCost" validate:"required,amount"`
}

type purchaseRequest struct {
	StoreID       string                `json:"storeId" validate:"required"`
	SupplierID    string                `json:"supplierId"`
	EmployeeID    string                `json:"employeeId"`
	Items         []purchaseItemRequest `json:"items" validate:"min=1,dive"`
	InvoiceNumber string                `json:"invoiceNumber"`
	Date          *time.Time            `json:"date"`
}

func (req purchaseRequest) toPurchase() core.Purchase {
	items := make([]core.PurchaseItem, 0, len(req.Items))
	total := decimal.Zero
	for _, it := range req.Items {
		cost := amount(it.UnitCost)
		line := cost.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		items = append(items, core.PurchaseItem{ProductID: it.ProductID, Quantity: it.Quantity, UnitCost: cost, Total: line})
	}
	return core.Purchase{
		StoreID:       req.StoreID,
		SupplierID:    req.SupplierID,
		EmployeeID:    req.EmployeeID,
		Items:         items,
		Total:         total,
		InvoiceNumber: sanitizeInput(req.InvoiceNumber),
		Date:          dateOr(req.Date),
	}
}

type productRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	SKU      string `json:"sku"`
	Category string `json:"category"`
	Price    string `json:"price" validate:"required,amount"`
	Cost     string `json:"cost" validate:"amount"`
	Stock    int    `json:"stock" validate:"gte=0"`
	MinStock int    `json:"minStock" validate:"gte=0"`
	StoreID  string `json:"storeId" validate:"required"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url"`
}

func (req productRequest) toProduct(id string) core.Product {
	return core.Product{
		ID:       id,
		Name:     sanitizeInput(req.Name),
		SKU:      req.SKU,
		Category: sanitizeInput(req.Category),
		Price:    amount(req.Price),
		Cost:     amount(req.Cost),
		Stock:    req.Stock,
		MinStock: req.MinStock,
		StoreID:  req.StoreID,
		ImageURL: req.ImageURL,
	}
}

type customerRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	StoreID string `json:"storeId" validate:"required"`
}

func (req customerRequest) toCustomer(id string) core.Customer {
	return core.Customer{
		ID:      id,
		Name:    sanitizeInput(req.Name),
		Email:   req.Email,
		Phone:   req.Phone,
		Address: sanitizeInput(req.Address),
		StoreID: req.StoreID,
	}
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=60"`
}

type layawayUpdateRequest struct {
	DueDate *time.Time `json:"dueDate"`
}

type paymentMethodRequest struct {
	Name               string `json:"name" validate:"required,max=60"`
	DiscountPercentage string `json:"discountPercentage" validate:"amount"`
	IsActive           *bool  `json:"isActive"`
}

// toPaymentMethod treats a missing isActive as active.
func (req paymentMethodRequest) toPaymentMethod(id string) core.PaymentMethod {
	active := req.IsActive == nil || *req.IsActive
	return core.PaymentMethod{
		ID:                 id,
		Name:               sanitizeInput(req.Name),
		DiscountPercentage: amount(req.DiscountPercentage),
		IsActive:           active,
	}
}
