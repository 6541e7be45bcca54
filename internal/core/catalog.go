package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultExpenseCategories is the category list a fresh installation starts with.
func DefaultExpenseCategories() []string {
	return []string{
		"Servicios",
		"Mantenimiento",
		"Suministros",
		"Marketing",
		"Transporte",
		"Seguridad",
		"Limpieza",
		"Otros",
	}
}

// DefaultPaymentMethods returns the seeded payment methods with their
// processing percentages.
func DefaultPaymentMethods() []PaymentMethod {
	pm := func(id, name, pct string) PaymentMethod {
		return PaymentMethod{ID: id, Name: name, DiscountPercentage: decimal.RequireFromString(pct), IsActive: true}
	}
	return []PaymentMethod{
		pm("1", "Efectivo", "0"),
		pm("2", "Tarjeta Débito", "2.5"),
		pm("3", "Tarjeta Crédito", "3.8"),
		pm("4", "Transferencia", "1.2"),
		pm("5", "PayPal", "4.2"),
		pm("6", "Nequi", "1.8"),
	}
}

// FindPaymentMethod looks a method up by name, case-insensitively.
func FindPaymentMethod(methods []PaymentMethod, name string) (PaymentMethod, bool) {
	for _, m := range methods {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// NormalizeCategories trims, drops empties and returns a sorted unique list.
func NormalizeCategories(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
