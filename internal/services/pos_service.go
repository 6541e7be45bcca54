// Package services holds the point of sale application service. POSService
// owns the in-memory collections, serializes every mutation and hands the
// resulting writes to the persistence queue.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/amqp"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/ledger"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/register"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/reporting"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/worker"
)

// Queue accepts persistence tasks without blocking. worker.Flusher is the
// production implementation.
type Queue interface {
	Enqueue(task worker.Task) error
}

// EventPublisher announces ledger changes to other processes.
type EventPublisher interface {
	PublishMovement(ctx context.Context, m core.CashMovement) error
	PublishRegisterClosed(ctx context.Context, report core.ClosingReport) error
}

// Loader reads back what the queue persisted.
type Loader interface {
	storage.SnapshotStore
	storage.Journal
}

type POSService struct {
	mu sync.Mutex

	ledger    *ledger.Ledger
	registers *register.Manager
	recorder  ledger.Recorder

	products       []core.Product
	sales          []core.Sale
	expenses       []core.Expense
	layaways       []core.Layaway
	purchases      []core.Purchase
	customers      []core.Customer
	categories     []string
	paymentMethods []core.PaymentMethod

	// events raised while mu is held, published once it is released
	outbox []*amqp.LedgerEvent
	queue           Queue
	publisher       EventPublisher
	logger          *log.Logger
	now             func() time.Time
	newID           func() string
	allowConcurrent bool
}

type Option func(*POSService)

// WithNow overrides the clock. Its location decides calendar days.
func WithNow(now func() time.Time) Option {
	return func(s *POSService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation reads the wall clock in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *POSService) {
		if loc != nil {
			s.now = func() time.Time { return time.Now().In(loc) }
		}
	}
}

func WithIDGenerator(gen func() string) Option {
	return func(s *POSService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *POSService) { s.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(s *POSService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConcurrentRegisters lets a store keep several registers open at once.
func WithConcurrentRegisters(allow bool) Option {
	return func(s *POSService) { s.allowConcurrent = allow }
}

// NewPOSService builds an empty service. A nil queue disables persistence.
func NewPOSService(queue Queue, opts ...Option) *POSService {
	s := &POSService{
		ledger:         ledger.New(),
		queue:          queue,
		logger:         log.Discard(),
		now:            time.Now,
		newID:          uuid.NewString,
		categories:     core.DefaultExpenseCategories(),
		paymentMethods: core.DefaultPaymentMethods(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentPOS)
	s.recorder = ledger.Recorder{NewID: s.newID}
	s.registers = s.newManager()
	return s
}

func (s *POSService) newManager() *register.Manager {
	return register.NewManager(
		register.AppenderFunc(s.appendLocked),
		lockedActivity{s},
		register.WithNow(s.now),
		register.WithIDGenerator(s.newID),
		register.WithRecorder(s.recorder),
		register.WithConcurrentSessions(s.allowConcurrent),
		register.WithLogger(s.logger),
	)
}

// lockedActivity reads the collections for the register manager, which
// only calls it while s.mu is held.
type lockedActivity struct{ s *POSService }

func (a lockedActivity) Sales(storeID string) []core.Sale {
	return filterStore(a.s.sales, storeID, func(x core.Sale) string { return x.StoreID })
}

func (a lockedActivity) Expenses(storeID string) []core.Expense {
	return filterStore(a.s.expenses, storeID, func(x core.Expense) string { return x.StoreID })
}

func filterStore[T any](all []T, storeID string, store func(T) string) []T {
	out := make([]T, 0, len(all))
	for _, x := range all {
		if storeID == "" || store(x) == storeID {
			out = append(out, x)
		}
	}
	return out
}

// mutate runs fn under the service lock and publishes the events it raised
// after releasing it.
func (s *POSService) mutate(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	err := fn()
	events := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	s.publish(ctx, events)
	return err
}

func (s *POSService) publish(ctx context.Context, events []*amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	for _, e := range events {
		var err error
		switch e.Type {
		case amqp.EventMovementRecorded:
			err = s.publisher.PublishMovement(ctx, *e.Movement)
		case amqp.EventRegisterClosed:
			err = s.publisher.PublishRegisterClosed(ctx, *e.Closing)
		}
		if err != nil {
			// The ledger already holds the change; replicas catch up from the journal.
			s.logger.WarnContext(ctx, "Failed to publish ledger event",
				"type", e.Type,
				log.FieldError, err)
		}
	}
}

// appendLocked adds a movement to the ledger and schedules its write.
// Callers hold s.mu.
func (s *POSService) appendLocked(m core.CashMovement) error {
	if err := s.ledger.Append(m); err != nil {
		return err
	}
	s.enqueue(worker.MovementTask(m))
	s.outbox = append(s.outbox, amqp.NewMovementEvent(m))
	return nil
}

// persistLocked schedules a snapshot of one collection. Callers hold s.mu.
func (s *POSService) persistLocked(key string, value any) {
	if s.queue == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Failed to encode snapshot", log.FieldKey, key, log.FieldError, err)
		return
	}
	s.enqueue(worker.SnapshotTask(key, raw))
}

func (s *POSService) enqueue(task worker.Task) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(task); err != nil {
		s.logger.Error("Failed to queue persistence task",
			"kind", task.Kind.String(),
			log.FieldKey, task.Key,
			log.FieldError, err)
	}
}

// WatchFlushErrors logs write failures reported by the persistence queue
// until errs is closed or ctx ends.
func (s *POSService) WatchFlushErrors(ctx context.Context, errs <-chan worker.FlushError) {
	for {
		select {
		case <-ctx.Done():
			return
		case fe, ok := <-errs:
			if !ok {
				return
			}
			s.logger.Error("Persistence write failed, in-memory state kept",
				"kind", fe.Task.Kind.String(),
				log.FieldKey, fe.Task.Key,
				log.FieldError, fe.Err)
		}
	}
}

// Load replaces the in-memory state with what the backend holds. Missing
// collections keep their defaults.
func (s *POSService) Load(ctx context.Context, src Loader) error {
	var (
		products       []core.Product
		sales          []core.Sale
		expenses       []core.Expense
		layaways       []core.Layaway
		purchases      []core.Purchase
		customers      []core.Customer
		registers      []core.CashRegister
		categories     []string
		paymentMethods []core.PaymentMethod
		movements      []core.CashMovement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyProducts, &products) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeySales, &sales) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyExpenses, &expenses) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyLayaways, &layaways) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyPurchases, &purchases) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyCustomers, &customers) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyRegisters, &registers) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyExpenseCategories, &categories) })
	g.Go(func() error { return loadJSON(gctx, src, storage.KeyPaymentMethods, &paymentMethods) })
	g.Go(func() error {
		var err error
		movements, err = src.LoadMovements(gctx)
		if err != nil {
			return fmt.Errorf("load movements: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	l := ledger.New()
	if err := l.Restore(movements); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
	s.products = products
	s.sales = sales
	s.expenses = expenses
	s.layaways = layaways
	s.purchases = purchases
	s.customers = customers
	if len(categories) > 0 {
		s.categories = core.NormalizeCategories(categories)
	}
	if len(paymentMethods) > 0 {
		s.paymentMethods = paymentMethods
	}
	s.registers.Restore(registers)

	s.logger.InfoContext(ctx, "State loaded",
		"movements", len(movements),
		"registers", len(registers),
		"sales", len(sales),
		"expenses", len(expenses))
	return nil
}

func loadJSON[T any](ctx context.Context, src storage.SnapshotStore, key string, dst *T) error {
	raw, err := src.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// AddCashMovement books a movement entered directly. Expense amounts are
// booked negative whatever sign the caller used. A missing id or date is
// filled in.
func (s *POSService) AddCashMovement(ctx context.Context, m core.CashMovement) (core.CashMovement, error) {
	var booked core.CashMovement
	err := s.mutate(ctx, func() error {
		at := m.Date
		if at.IsZero() {
			at = s.now()
		}
		booked = s.recorder.RecordManual(m.StoreID, m.EmployeeID, m.Type, m.Amount, m.Description, at)
		booked.ReferenceID = m.ReferenceID
		if m.ID != "" {
			booked.ID = m.ID
		}
		return s.appendLocked(booked)
	})
	if err != nil {
		return core.CashMovement{}, err
	}
	return booked, nil
}

// OpenCashRegister starts a shift and books the opening float.
func (s *POSService) OpenCashRegister(ctx context.Context, storeID, employeeID string, openingAmount decimal.Decimal) (core.CashRegister, error) {
	var reg core.CashRegister
	err := s.mutate(ctx, func() error {
		var err error
		reg, err = s.registers.Open(ctx, storeID, employeeID, openingAmount)
		if err != nil {
			return err
		}
		s.persistLocked(storage.KeyRegisters, s.registers.List(""))
		return nil
	})
	return reg, err
}

// CloseCashRegister reconciles the register and returns the closed session
// with its closing report. Adjustments are expenses paid from the drawer
// that were never entered: they count toward the expected amount and are
// booked as regular expenses once the register closes. An adjustment whose
// id matches a recorded expense is not booked twice.
func (s *POSService) CloseCashRegister(ctx context.Context, registerID string, closingAmount decimal.Decimal, adjustments ...core.Expense) (core.CashRegister, core.ClosingReport, error) {
	var (
		reg    core.CashRegister
		report core.ClosingReport
	)
	err := s.mutate(ctx, func() error {
		prepared, err := s.prepareAdjustmentsLocked(registerID, adjustments)
		if err != nil {
			return err
		}
		reg, err = s.registers.Close(ctx, registerID, closingAmount, prepared...)
		if err != nil {
			return err
		}
		if err := s.bookAdjustmentsLocked(prepared); err != nil {
			return err
		}

		level := register.ClassifyDifference(*reg.Difference, *reg.ExpectedAmount)
		var ok bool
		report, ok = core.NewClosingReport(reg, string(level))
		if !ok {
			return fmt.Errorf("register %s: closing report for an open register", reg.ID)
		}
		s.persistLocked(storage.KeyRegisters, s.registers.List(""))
		s.outbox = append(s.outbox, amqp.NewRegisterClosedEvent(report))
		return nil
	})
	return reg, report, err
}

// prepareAdjustmentsLocked fills ids, dates and the store of each
// adjustment and validates it, so a bad adjustment fails before the close.
func (s *POSService) prepareAdjustmentsLocked(registerID string, adjustments []core.Expense) ([]core.Expense, error) {
	if len(adjustments) == 0 {
		return nil, nil
	}
	cur, err := s.registers.Get(registerID)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(adjustments))
	for _, e := range adjustments {
		if e.ID == "" {
			e.ID = s.newID()
		}
		if e.Date.IsZero() {
			e.Date = s.now()
		}
		if e.StoreID == "" {
			e.StoreID = cur.StoreID
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid adjustment: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *POSService) bookAdjustmentsLocked(adjustments []core.Expense) error {
	booked := false
	for _, e := range adjustments {
		if s.expenseIndexLocked(e.ID) >= 0 {
			continue
		}
		if err := s.appendLocked(s.recorder.RecordExpense(e)); err != nil {
			return err
		}
		s.expenses = append(s.expenses, e)
		booked = true
	}
	if booked {
		s.persistLocked(storage.KeyExpenses, s.expenses)
	}
	return nil
}

func (s *POSService) expenseIndexLocked(id string) int {
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// Register returns one session.
func (s *POSService) Register(registerID string) (core.CashRegister, error) {
	return s.registers.Get(registerID)
}

// Registers lists the sessions of a store in opening order.
func (s *POSService) Registers(storeID string) []core.CashRegister {
	return s.registers.List(storeID)
}

// OpenRegister returns the store's current open session, if any.
func (s *POSService) OpenRegister(storeID string) (core.CashRegister, bool) {
	return s.registers.OpenFor(storeID)
}

// Movements returns the ledger entries of a store, or all of them when
// storeID is empty, in insertion order.
func (s *POSService) Movements(storeID string) []core.CashMovement {
	s.mu.Lock()
	l := s.ledger
	s.mu.Unlock()
	if storeID == "" {
		return l.Entries()
	}
	return l.ForStore(storeID)
}

// MovementsByReference returns the entries pointing at referenceID, such as
// a sale, a layaway or a register, limited to storeID when it is set.
func (s *POSService) MovementsByReference(storeID, referenceID string) []core.CashMovement {
	s.mu.Lock()
	l := s.ledger
	s.mu.Unlock()
	return filterStore(l.ByReference(referenceID), storeID, func(m core.CashMovement) string { return m.StoreID })
}

// Expenses returns copies of the store's expenses.
func (s *POSService) Expenses(storeID string) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lockedActivity{s}.Expenses(storeID)
}

// Sales returns copies of the store's sales.
func (s *POSService) Sales(storeID string) []core.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lockedActivity{s}.Sales(storeID)
}

// Products returns the store's catalog.
func (s *POSService) Products(storeID string) []core.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterStore(s.products, storeID, func(p core.Product) string { return p.StoreID })
}

// Dashboard recomputes the store summary.
func (s *POSService) Dashboard(ctx context.Context, storeID string) (reporting.Dashboard, error) {
	return reporting.NewAggregator(s).WithNow(s.now).Dashboard(ctx, storeID)
}
