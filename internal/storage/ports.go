// Package storage defines the persistence ports of the point of sale. The
// backends live in the memory, sqlite and redis subpackages.
package storage

import (
	"context"
	"errors"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

// ErrNotFound is returned by Load when nothing was ever saved under a key.
var ErrNotFound = errors.New("storage: key not found")

// Snapshot keys, one per collection.
const (
	KeyProducts          = "products"
	KeySales             = "sales"
	KeyExpenses          = "expenses"
	KeyLayaways          = "layaways"
	KeyPurchases         = "purchases"
	KeyCustomers         = "customers"
	KeyRegisters         = "cashRegisters"
	KeyExpenseCategories = "expenseCategories"
	KeyPaymentMethods    = "paymentMethods"
)

// SnapshotKeys lists every collection key a backend is expected to hold.
func SnapshotKeys() []string {
	return []string{
		KeyProducts, KeySales, KeyExpenses, KeyLayaways, KeyPurchases,
		KeyCustomers, KeyRegisters, KeyExpenseCategories, KeyPaymentMethods,
	}
}

// Ports for outbound adapters.
type (
	// SnapshotStore is a key-value store holding whole serialized collections.
	SnapshotStore interface {
		Load(ctx context.Context, key string) ([]byte, error)
		Save(ctx context.Context, key string, value []byte) error
	}

	// Journal persists cash movements one at a time, in order.
	Journal interface {
		AppendMovement(ctx context.Context, m core.CashMovement) error
		LoadMovements(ctx context.Context) ([]core.CashMovement, error)
	}

	// Backend is everything the point of sale persists to.
	Backend interface {
		SnapshotStore
		Journal
		Close() error
	}
)
