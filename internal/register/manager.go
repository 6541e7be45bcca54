// Package register implements the cash register session lifecycle: opening
// a shift, closing it and reconciling the counted cash against the
// expected balance.
package register

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/ledger"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
)

// Appender receives the opening and closing movements.
type Appender interface {
	Append(core.CashMovement) error
}

// AppenderFunc adapts a function to Appender.
type AppenderFunc func(core.CashMovement) error

func (f AppenderFunc) Append(m core.CashMovement) error { return f(m) }

// Activity exposes the sales and expenses of a store. Close calls it while
// the manager lock is held, so implementations must not call back into the
// manager.
type Activity interface {
	Sales(storeID string) []core.Sale
	Expenses(storeID string) []core.Expense
}

type Manager struct {
	mu              sync.Mutex
	registers       map[string]*core.CashRegister
	order           []string
	appender        Appender
	activity        Activity
	recorder        ledger.Recorder
	logger          *log.Logger
	now             func() time.Time
	newID           func() string
	allowConcurrent bool
}

type Option func(*Manager)

// WithNow overrides the clock, mostly for tests.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithConcurrentSessions lets a store hold more than one open register.
func WithConcurrentSessions(allow bool) Option {
	return func(m *Manager) { m.allowConcurrent = allow }
}

func WithRecorder(r ledger.Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l.WithComponent(log.ComponentRegister)
		}
	}
}

func NewManager(appender Appender, activity Activity, opts ...Option) *Manager {
	m := &Manager{
		registers: make(map[string]*core.CashRegister),
		appender:  appender,
		activity:  activity,
		recorder:  ledger.NewRecorder(),
		logger:    log.Discard(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a shift for storeID and books the opening float.
func (m *Manager) Open(ctx context.Context, storeID, employeeID string, openingAmount decimal.Decimal) (core.CashRegister, error) {
	if strings.TrimSpace(storeID) == "" {
		return core.CashRegister{}, ErrEmptyStore
	}
	if openingAmount.IsNegative() {
		return core.CashRegister{}, ErrNegativeOpeningAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.allowConcurrent {
		if open := m.openForLocked(storeID); open != nil {
			return core.CashRegister{}, ErrRegisterAlreadyOpen
		}
	}

	reg := core.CashRegister{
		ID:            m.newID(),
		StoreID:       storeID,
		EmployeeID:    employeeID,
		OpeningAmount: openingAmount,
		OpenedAt:      m.now(),
		Status:        core.RegisterOpen,
	}
	if err := m.appender.Append(m.recorder.RecordRegisterOpen(reg)); err != nil {
		return core.CashRegister{}, err
	}
	m.registers[reg.ID] = &reg
	m.order = append(m.order, reg.ID)

	m.logger.InfoContext(ctx, "cash register opened",
		log.FieldRegisterID, reg.ID,
		log.FieldStoreID, storeID,
		log.FieldAmount, openingAmount.String())
	return reg, nil
}

// Close reconciles the register. Expected cash is the opening float plus
// sales minus expenses dated inside [OpenedAt, now]. Adjustments are extra
// expenses to include, ignored when an expense with the same id already
// falls inside the window.
func (m *Manager) Close(ctx context.Context, registerID string, closingAmount decimal.Decimal, adjustments ...core.Expense) (core.CashRegister, error) {
	if closingAmount.IsNegative() {
		return core.CashRegister{}, ErrNegativeClosingAmount
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	reg, ok := m.registers[registerID]
	if !ok {
		return core.CashRegister{}, ErrRegisterNotFound
	}
	if !reg.IsOpen() {
		return core.CashRegister{}, &InvalidStateError{RegisterID: reg.ID, Status: reg.Status}
	}

	closedAt := m.now()
	salesTotal := decimal.Zero
	for _, s := range m.activity.Sales(reg.StoreID) {
		if core.InWindow(s.Date, reg.OpenedAt, closedAt) {
			salesTotal = salesTotal.Add(s.Total)
		}
	}

	turno := windowExpenses(m.activity.Expenses(reg.StoreID), reg.OpenedAt, closedAt, adjustments)
	expensesTotal := decimal.Zero
	for _, e := range turno {
		expensesTotal = expensesTotal.Add(e.Amount)
	}

	expected := reg.OpeningAmount.Add(salesTotal).Sub(expensesTotal)
	difference := closingAmount.Sub(expected)

	if err := m.appender.Append(m.recorder.RecordRegisterClose(*reg, closingAmount, closedAt)); err != nil {
		return core.CashRegister{}, err
	}

	reg.Status = core.RegisterClosed
	reg.ClosingAmount = &closingAmount
	reg.ClosedAt = &closedAt
	reg.ExpectedAmount = &expected
	reg.Difference = &difference
	reg.ExpensesTurno = turno

	level := ClassifyDifference(difference, expected)
	fields := log.NewFields().
		WithStore(reg.StoreID).
		WithReconciliation(reg.ID, expected, difference, string(level))
	if level == VarianceNormal {
		m.logger.InfoContext(ctx, "cash register closed", fields.ToSlice()...)
	} else {
		m.logger.WarnContext(ctx, "cash register closed with variance", fields.ToSlice()...)
	}
	return cloneRegister(*reg), nil
}

func windowExpenses(all []core.Expense, from, to time.Time, adjustments []core.Expense) []core.Expense {
	out := make([]core.Expense, 0, len(all)+len(adjustments))
	seen := make(map[string]struct{}, len(all))
	for _, e := range all {
		if core.InWindow(e.Date, from, to) {
			out = append(out, e)
			if e.ID != "" {
				seen[e.ID] = struct{}{}
			}
		}
	}
	for _, e := range adjustments {
		if e.ID != "" {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
		}
		out = append(out, e)
	}
	return out
}

// Get returns a copy of the register.
func (m *Manager) Get(registerID string) (core.CashRegister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg, ok := m.registers[registerID]
	if !ok {
		return core.CashRegister{}, ErrRegisterNotFound
	}
	return cloneRegister(*reg), nil
}

// OpenFor returns the most recently opened register of the store that is
// still open.
func (m *Manager) OpenFor(storeID string) (core.CashRegister, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.openForLocked(storeID)
	if reg == nil {
		return core.CashRegister{}, false
	}
	return cloneRegister(*reg), true
}

func (m *Manager) openForLocked(storeID string) *core.CashRegister {
	for i := len(m.order) - 1; i >= 0; i-- {
		reg := m.registers[m.order[i]]
		if reg.StoreID == storeID && reg.IsOpen() {
			return reg
		}
	}
	return nil
}

// List returns the registers of a store, or of every store when storeID is
// empty, in opening order.
func (m *Manager) List(storeID string) []core.CashRegister {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.CashRegister, 0, len(m.order))
	for _, id := range m.order {
		reg := m.registers[id]
		if storeID == "" || reg.StoreID == storeID {
			out = append(out, cloneRegister(*reg))
		}
	}
	return out
}

// Restore replaces the known registers with a persisted snapshot.
func (m *Manager) Restore(registers []core.CashRegister) {
	sorted := make([]core.CashRegister, len(registers))
	copy(sorted, registers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OpenedAt.Before(sorted[j].OpenedAt) })

	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers = make(map[string]*core.CashRegister, len(sorted))
	m.order = m.order[:0]
	for i := range sorted {
		reg := cloneRegister(sorted[i])
		m.registers[reg.ID] = &reg
		m.order = append(m.order, reg.ID)
	}
}

func cloneRegister(r core.CashRegister) core.CashRegister {
	if r.ExpensesTurno != nil {
		r.ExpensesTurno = append([]core.Expense(nil), r.ExpensesTurno...)
	}
	return r
}
