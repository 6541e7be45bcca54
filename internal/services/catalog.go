package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

func (s *POSService) AddProduct(ctx context.Context, p core.Product) (core.Product, error) {
	err := s.mutate(ctx, func() error {
		if p.ID == "" {
			p.ID = s.newID()
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid product: %w", err)
		}
		s.products = append(s.products, p)
		s.persistLocked(storage.KeyProducts, s.products)
		return nil
	})
	if err != nil {
		return core.Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces the product with the same id.
func (s *POSService) UpdateProduct(ctx context.Context, p core.Product) (core.Product, error) {
	err := s.mutate(ctx, func() error {
		i := s.productIndexLocked(p.ID)
		if i < 0 {
			return ErrProductNotFound
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid product: %w", err)
		}
		s.products[i] = p
		s.persistLocked(storage.KeyProducts, s.products)
		return nil
	})
	if err != nil {
		return core.Product{}, err
	}
	return p, nil
}

func (s *POSService) AddCustomer(ctx context.Context, c core.Customer) (core.Customer, error) {
	err := s.mutate(ctx, func() error {
		if c.ID == "" {
			c.ID = s.newID()
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid customer: %w", err)
		}
		s.customers = append(s.customers, c)
		s.persistLocked(storage.KeyCustomers, s.customers)
		return nil
	})
	if err != nil {
		return core.Customer{}, err
	}
	return c, nil
}

// UpdateCustomer replaces contact details. Purchase totals are kept.
func (s *POSService) UpdateCustomer(ctx context.Context, c core.Customer) (core.Customer, error) {
	err := s.mutate(ctx, func() error {
		i := s.customerIndexLocked(c.ID)
		if i < 0 {
			return ErrCustomerNotFound
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid customer: %w", err)
		}
		c.TotalPurchases = s.customers[i].TotalPurchases
		c.LastPurchase = s.customers[i].LastPurchase
		s.customers[i] = c
		s.persistLocked(storage.KeyCustomers, s.customers)
		return nil
	})
	if err != nil {
		return core.Customer{}, err
	}
	return c, nil
}

// Customer returns one customer by id.
func (s *POSService) Customer(id string) (core.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.customerIndexLocked(id)
	if i < 0 {
		return core.Customer{}, ErrCustomerNotFound
	}
	return s.customers[i], nil
}

// ExpenseCategories returns the sorted category list.
func (s *POSService) ExpenseCategories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.categories...)
}

func (s *POSService) AddExpenseCategory(ctx context.Context, name string) error {
	return s.mutate(ctx, func() error {
		name = strings.TrimSpace(name)
		if name == "" {
			return core.ErrEmptyName
		}
		for _, c := range s.categories {
			if strings.EqualFold(c, name) {
				return ErrCategoryExists
			}
		}
		s.categories = core.NormalizeCategories(append(s.categories, name))
		s.persistLocked(storage.KeyExpenseCategories, s.categories)
		return nil
	})
}

func (s *POSService) DeleteExpenseCategory(ctx context.Context, name string) error {
	return s.mutate(ctx, func() error {
		name = strings.TrimSpace(name)
		out := make([]string, 0, len(s.categories))
		for _, c := range s.categories {
			if !strings.EqualFold(c, name) {
				out = append(out, c)
			}
		}
		if len(out) == len(s.categories) {
			return ErrCategoryNotFound
		}
		s.categories = out
		s.persistLocked(storage.KeyExpenseCategories, s.categories)
		return nil
	})
}

// PaymentMethods returns the configured methods with their surcharges.
func (s *POSService) PaymentMethods() []core.PaymentMethod {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.PaymentMethod(nil), s.paymentMethods...)
}

// AddPaymentMethod registers a method. Names are unique regardless of case.
func (s *POSService) AddPaymentMethod(ctx context.Context, m core.PaymentMethod) (core.PaymentMethod, error) {
	err := s.mutate(ctx, func() error {
		if m.ID == "" {
			m.ID = s.newID()
		}
		m.Name = strings.TrimSpace(m.Name)
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid payment method: %w", err)
		}
		if s.paymentMethodNameTakenLocked(m.Name, "") {
			return ErrPaymentMethodExists
		}
		s.paymentMethods = append(s.paymentMethods, m)
		s.persistLocked(storage.KeyPaymentMethods, s.paymentMethods)
		return nil
	})
	if err != nil {
		return core.PaymentMethod{}, err
	}
	return m, nil
}

// UpdatePaymentMethod replaces the method with the same id. Sales already
// recorded keep the surcharge they were booked with.
func (s *POSService) UpdatePaymentMethod(ctx context.Context, m core.PaymentMethod) (core.PaymentMethod, error) {
	err := s.mutate(ctx, func() error {
		i := s.paymentMethodIndexLocked(m.ID)
		if i < 0 {
			return ErrPaymentMethodNotFound
		}
		m.Name = strings.TrimSpace(m.Name)
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid payment method: %w", err)
		}
		if s.paymentMethodNameTakenLocked(m.Name, m.ID) {
			return ErrPaymentMethodExists
		}
		s.paymentMethods[i] = m
		s.persistLocked(storage.KeyPaymentMethods, s.paymentMethods)
		return nil
	})
	if err != nil {
		return core.PaymentMethod{}, err
	}
	return m, nil
}

// DeletePaymentMethod removes a method. Recorded sales are untouched.
func (s *POSService) DeletePaymentMethod(ctx context.Context, id string) error {
	return s.mutate(ctx, func() error {
		i := s.paymentMethodIndexLocked(id)
		if i < 0 {
			return ErrPaymentMethodNotFound
		}
		s.paymentMethods = append(s.paymentMethods[:i:i], s.paymentMethods[i+1:]...)
		s.persistLocked(storage.KeyPaymentMethods, s.paymentMethods)
		return nil
	})
}

func (s *POSService) paymentMethodIndexLocked(id string) int {
	for i := range s.paymentMethods {
		if s.paymentMethods[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *POSService) paymentMethodNameTakenLocked(name, exceptID string) bool {
	for _, pm := range s.paymentMethods {
		if pm.ID != exceptID && strings.EqualFold(pm.Name, name) {
			return true
		}
	}
	return false
}

func (s *POSService) productIndexLocked(id string) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *POSService) customerIndexLocked(id string) int {
	for i := range s.customers {
		if s.customers[i].ID == id {
			return i
		}
	}
	return -1
}
