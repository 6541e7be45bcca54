// Package reporting computes the dashboard figures from the ledger and the
// store collections. Everything is recomputed on each call.
package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

// Source supplies the collections a dashboard is built from.
type Source interface {
	Movements(storeID string) []core.CashMovement
	Expenses(storeID string) []core.Expense
	Products(storeID string) []core.Product
}

// Dashboard is the per-store summary shown on the home screen.
type Dashboard struct {
	StoreID          string              `json:"storeId"`
	GeneratedAt      time.Time           `json:"generatedAt"`
	TodayRevenue     decimal.Decimal     `json:"todayRevenue"`
	TodayIncomeCount int                 `json:"todayIncomeCount"`
	TotalRevenue     decimal.Decimal     `json:"totalRevenue"`
	TotalExpenses    decimal.Decimal     `json:"totalExpenses"`
	NetProfit        decimal.Decimal     `json:"netProfit"`
	LowStock         []core.Product      `json:"lowStock"`
	RecentIncome     []core.CashMovement `json:"recentIncome"`
	Display          DisplayFigures      `json:"display"`
}

// DisplayFigures carries the currency formatted versions of the totals.
type DisplayFigures struct {
	TodayRevenue  string `json:"todayRevenue"`
	TotalRevenue  string `json:"totalRevenue"`
	TotalExpenses string `json:"totalExpenses"`
	NetProfit     string `json:"netProfit"`
}

const recentIncomeLimit = 5

type Aggregator struct {
	source Source
	now    func() time.Time
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source, now: time.Now}
}

// WithNow overrides the clock. The location of the returned time decides
// where "today" starts.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Dashboard(ctx context.Context, storeID string) (Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}
	now := a.now()
	movements := a.source.Movements(storeID)

	d := Dashboard{
		StoreID:          storeID,
		GeneratedAt:      now,
		TodayRevenue:     TodayRevenue(movements, storeID, now),
		TodayIncomeCount: TodayIncomeCount(movements, storeID, now),
		TotalRevenue:     TotalRevenue(movements, storeID),
		TotalExpenses:    TotalExpenses(a.source.Expenses(storeID), storeID),
		LowStock:         LowStock(a.source.Products(storeID), storeID),
		RecentIncome:     RecentIncome(movements, storeID, recentIncomeLimit),
	}
	d.NetProfit = NetProfit(d.TotalRevenue, d.TotalExpenses)
	d.Display = DisplayFigures{
		TodayRevenue:  core.FormatCOP(d.TodayRevenue),
		TotalRevenue:  core.FormatCOP(d.TotalRevenue),
		TotalExpenses: core.FormatCOP(d.TotalExpenses),
		NetProfit:     core.FormatCOP(d.NetProfit),
	}
	return d, nil
}

func isIncome(m core.CashMovement, storeID string) bool {
	return m.StoreID == storeID && m.Type == core.MovementSale
}

// TodayRevenue sums sale movements dated on the calendar day of now, read in
// now's location. A sale from late yesterday does not count even when it is
// less than 24 hours old.
func TodayRevenue(movements []core.CashMovement, storeID string, now time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		if isIncome(m, storeID) && core.SameCalendarDay(m.Date, now) {
			total = total.Add(m.Amount)
		}
	}
	return total
}

func TodayIncomeCount(movements []core.CashMovement, storeID string, now time.Time) int {
	n := 0
	for _, m := range movements {
		if isIncome(m, storeID) && core.SameCalendarDay(m.Date, now) {
			n++
		}
	}
	return n
}

// TotalRevenue sums every sale movement of the store.
func TotalRevenue(movements []core.CashMovement, storeID string) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		if isIncome(m, storeID) {
			total = total.Add(m.Amount)
		}
	}
	return total
}

// TotalExpenses sums the expense records, not the ledger, so expenses that
// never reached the ledger still show up.
func TotalExpenses(expenses []core.Expense, storeID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if e.StoreID == storeID {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func NetProfit(revenue, expenses decimal.Decimal) decimal.Decimal {
	return revenue.Sub(expenses)
}

func LowStock(products []core.Product, storeID string) []core.Product {
	out := []core.Product{}
	for _, p := range products {
		if p.StoreID == storeID && p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out
}

// RecentIncome returns up to n sale movements, newest appended first.
func RecentIncome(movements []core.CashMovement, storeID string, n int) []core.CashMovement {
	out := []core.CashMovement{}
	for i := len(movements) - 1; i >= 0 && len(out) < n; i-- {
		if isIncome(movements[i], storeID) {
			out = append(out, movements[i])
		}
	}
	return out
}
