package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

// AddSale stores the sale, moves stock out, updates the customer and books
// the gross total as income.
func (s *POSService) AddSale(ctx context.Context, sale core.Sale) (core.Sale, error) {
	err := s.mutate(ctx, func() error {
		if sale.ID == "" {
			sale.ID = s.newID()
		}
		if sale.Date.IsZero() {
			sale.Date = s.now()
		}
		if err := sale.Validate(); err != nil {
			return fmt.Errorf("invalid sale: %w", err)
		}
		if sale.NetTotal.IsZero() {
			if sale.PaymentMethodDiscount.IsZero() {
				if pm, ok := core.FindPaymentMethod(s.paymentMethods, sale.PaymentMethod); ok {
					sale.PaymentMethodDiscount = pm.DiscountPercentage
				}
			}
			sale.NetTotal = core.NetTotal(sale.Total, sale.PaymentMethodDiscount)
		}

		if err := s.appendLocked(s.recorder.RecordSale(sale)); err != nil {
			return err
		}
		s.sales = append(s.sales, sale)
		s.persistLocked(storage.KeySales, s.sales)

		for _, it := range sale.Items {
			s.adjustStockLocked(it.ProductID, -it.Quantity)
		}
		s.persistLocked(storage.KeyProducts, s.products)

		if sale.CustomerID != "" {
			if i := s.customerIndexLocked(sale.CustomerID); i >= 0 {
				c := &s.customers[i]
				c.TotalPurchases = c.TotalPurchases.Add(sale.Total)
				at := sale.Date
				c.LastPurchase = &at
				s.persistLocked(storage.KeyCustomers, s.customers)
			}
		}

		s.logger.InfoContext(ctx, "Sale recorded",
			log.FieldStoreID, sale.StoreID,
			log.FieldReferenceID, sale.ID,
			log.FieldAmount, sale.Total.String())
		return nil
	})
	if err != nil {
		return core.Sale{}, err
	}
	return sale, nil
}

// AddExpense stores the expense and books it as a negative movement.
func (s *POSService) AddExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	err := s.mutate(ctx, func() error {
		if expense.ID == "" {
			expense.ID = s.newID()
		}
		if expense.Date.IsZero() {
			expense.Date = s.now()
		}
		if err := expense.Validate(); err != nil {
			return fmt.Errorf("invalid expense: %w", err)
		}
		if err := s.appendLocked(s.recorder.RecordExpense(expense)); err != nil {
			return err
		}
		s.expenses = append(s.expenses, expense)
		s.persistLocked(storage.KeyExpenses, s.expenses)
		return nil
	})
	if err != nil {
		return core.Expense{}, err
	}
	return expense, nil
}

// AddLayaway reserves the items, taking them out of stock. The layaway
// starts active with nothing paid.
func (s *POSService) AddLayaway(ctx context.Context, l core.Layaway) (core.Layaway, error) {
	err := s.mutate(ctx, func() error {
		if l.ID == "" {
			l.ID = s.newID()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = s.now()
		}
		if err := l.Validate(); err != nil {
			return fmt.Errorf("invalid layaway: %w", err)
		}
		l.TotalPaid = decimal.Zero
		l.RemainingBalance = l.Total
		l.Status = core.LayawayActive
		l.Payments = []core.LayawayPayment{}

		s.layaways = append(s.layaways, l)
		s.persistLocked(storage.KeyLayaways, s.layaways)
		for _, it := range l.Items {
			s.adjustStockLocked(it.ProductID, -it.Quantity)
		}
		s.persistLocked(storage.KeyProducts, s.products)
		return nil
	})
	if err != nil {
		return core.Layaway{}, err
	}
	return l, nil
}

// AddLayawayPayment applies an installment and books it as income. The
// layaway completes once nothing remains to pay.
func (s *POSService) AddLayawayPayment(ctx context.Context, layawayID string, payment core.LayawayPayment) (core.Layaway, error) {
	var out core.Layaway
	err := s.mutate(ctx, func() error {
		i := s.layawayIndexLocked(layawayID)
		if i < 0 {
			return ErrLayawayNotFound
		}
		l := s.layaways[i]
		if l.Status != core.LayawayActive {
			return ErrLayawayClosed
		}
		if payment.ID == "" {
			payment.ID = s.newID()
		}
		if payment.Date.IsZero() {
			payment.Date = s.now()
		}
		if err := payment.Validate(); err != nil {
			return fmt.Errorf("invalid payment: %w", err)
		}

		if err := s.appendLocked(s.recorder.RecordLayawayPayment(l, payment)); err != nil {
			return err
		}
		l.Payments = append(append([]core.LayawayPayment(nil), l.Payments...), payment)
		l.TotalPaid = l.TotalPaid.Add(payment.Amount)
		l.RemainingBalance = l.Total.Sub(l.TotalPaid)
		if !l.RemainingBalance.IsPositive() {
			l.Status = core.LayawayCompleted
		}
		s.layaways[i] = l
		s.persistLocked(storage.KeyLayaways, s.layaways)
		out = l
		return nil
	})
	return out, err
}

// UpdateLayaway moves the due date of an active layaway. A nil dueDate
// clears it.
func (s *POSService) UpdateLayaway(ctx context.Context, layawayID string, dueDate *time.Time) (core.Layaway, error) {
	var out core.Layaway
	err := s.mutate(ctx, func() error {
		i := s.layawayIndexLocked(layawayID)
		if i < 0 {
			return ErrLayawayNotFound
		}
		if s.layaways[i].Status != core.LayawayActive {
			return ErrLayawayClosed
		}
		s.layaways[i].DueDate = dueDate
		s.persistLocked(storage.KeyLayaways, s.layaways)
		out = s.layaways[i]
		return nil
	})
	return out, err
}

// CancelLayaway gives up an active layaway and puts its items back in
// stock. Installments already collected stay in the ledger.
func (s *POSService) CancelLayaway(ctx context.Context, layawayID string) (core.Layaway, error) {
	var out core.Layaway
	err := s.mutate(ctx, func() error {
		i := s.layawayIndexLocked(layawayID)
		if i < 0 {
			return ErrLayawayNotFound
		}
		l := s.layaways[i]
		if l.Status != core.LayawayActive {
			return ErrLayawayClosed
		}
		l.Status = core.LayawayCancelled
		s.layaways[i] = l
		s.persistLocked(storage.KeyLayaways, s.layaways)
		for _, it := range l.Items {
			s.adjustStockLocked(it.ProductID, it.Quantity)
		}
		s.persistLocked(storage.KeyProducts, s.products)

		s.logger.InfoContext(ctx, "Layaway cancelled",
			log.FieldStoreID, l.StoreID,
			log.FieldReferenceID, l.ID,
			"total_paid", l.TotalPaid.String())
		out = l
		return nil
	})
	return out, err
}

// Layaway returns one layaway by id.
func (s *POSService) Layaway(id string) (core.Layaway, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.layawayIndexLocked(id)
	if i < 0 {
		return core.Layaway{}, ErrLayawayNotFound
	}
	l := s.layaways[i]
	l.Payments = append([]core.LayawayPayment(nil), l.Payments...)
	return l, nil
}

// AddPurchase stores a supplier purchase and moves stock in. Purchases do
// not touch the cash ledger.
func (s *POSService) AddPurchase(ctx context.Context, p core.Purchase) (core.Purchase, error) {
	err := s.mutate(ctx, func() error {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.Date.IsZero() {
			p.Date = s.now()
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid purchase: %w", err)
		}
		s.purchases = append(s.purchases, p)
		s.persistLocked(storage.KeyPurchases, s.purchases)
		for _, it := range p.Items {
			s.adjustStockLocked(it.ProductID, it.Quantity)
		}
		s.persistLocked(storage.KeyProducts, s.products)
		return nil
	})
	if err != nil {
		return core.Purchase{}, err
	}
	return p, nil
}

func (s *POSService) adjustStockLocked(productID string, delta int) {
	if i := s.productIndexLocked(productID); i >= 0 {
		s.products[i].Stock += delta
	}
}

func (s *POSService) layawayIndexLocked(id string) int {
	for i := range s.layaways {
		if s.layaways[i].ID == id {
			return i
		}
	}
	return -1
}
