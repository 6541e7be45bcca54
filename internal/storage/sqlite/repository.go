// Package sqlite is the SQLite storage backend. Collections are stored as
// JSON snapshots and the cash ledger as an append-only table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

const timeLayout = time.RFC3339Nano

type Repository struct {
	db      *sql.DB
	queries *Queries
}

// Open creates the database file if needed, runs the migrations and
// returns a ready repository.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writers serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, queries: New(db)}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := r.queries.GetSnapshot(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	return value, nil
}

func (r *Repository) Save(ctx context.Context, key string, value []byte) error {
	if err := r.queries.UpsertSnapshot(ctx, key, value); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

// AppendMovement inserts one ledger row. Re-inserting an id fails.
func (r *Repository) AppendMovement(ctx context.Context, m core.CashMovement) error {
	if err := r.queries.InsertMovement(ctx, movementParams(m)); err != nil {
		return fmt.Errorf("insert movement %s: %w", m.ID, err)
	}
	return nil
}

// ApplyMovement is the idempotent variant used when replaying events. It
// reports whether the row was new.
func (r *Repository) ApplyMovement(ctx context.Context, m core.CashMovement) (bool, error) {
	n, err := r.queries.InsertMovementIgnore(ctx, movementParams(m))
	if err != nil {
		return false, fmt.Errorf("apply movement %s: %w", m.ID, err)
	}
	return n > 0, nil
}

func (r *Repository) LoadMovements(ctx context.Context) ([]core.CashMovement, error) {
	rows, err := r.queries.ListMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	out := make([]core.CashMovement, 0, len(rows))
	for _, row := range rows {
		m, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("decode movement %s: %w", row.ID, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// RecordClosing stores a closing report for later export. Duplicates are
// ignored; the return value reports whether the row was new.
func (r *Repository) RecordClosing(ctx context.Context, c core.ClosingReport) (bool, error) {
	n, err := r.queries.InsertClosingIgnore(ctx, InsertClosingParams{
		RegisterID:     c.RegisterID,
		StoreID:        c.StoreID,
		EmployeeID:     c.EmployeeID,
		OpeningAmount:  c.OpeningAmount.String(),
		ClosingAmount:  c.ClosingAmount.String(),
		ExpectedAmount: c.ExpectedAmount.String(),
		Difference:     c.Difference.String(),
		VarianceLevel:  c.VarianceLevel,
		ExpenseCount:   int64(c.ExpenseCount),
		OpenedAt:       c.OpenedAt.UTC().Format(timeLayout),
		ClosedAt:       c.ClosedAt.UTC().Format(timeLayout),
	})
	if err != nil {
		return false, fmt.Errorf("record closing %s: %w", c.RegisterID, err)
	}
	return n > 0, nil
}

// PendingClosings returns up to limit closings not yet exported.
func (r *Repository) PendingClosings(ctx context.Context, limit int) ([]core.ClosingReport, error) {
	rows, err := r.queries.GetPendingClosings(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending closings: %w", err)
	}
	out := make([]core.ClosingReport, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("decode closing %s: %w", row.RegisterID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repository) MarkClosingSynced(ctx context.Context, registerID string) error {
	if err := r.queries.MarkClosingSynced(ctx, registerID); err != nil {
		return fmt.Errorf("mark closing synced: %w", err)
	}
	return nil
}

func (r *Repository) MarkClosingSyncError(ctx context.Context, registerID string) error {
	if err := r.queries.MarkClosingSyncError(ctx, registerID); err != nil {
		return fmt.Errorf("mark closing sync error: %w", err)
	}
	return nil
}

func movementParams(m core.CashMovement) InsertMovementParams {
	return InsertMovementParams{
		ID:          m.ID,
		StoreID:     m.StoreID,
		EmployeeID:  m.EmployeeID,
		Type:        string(m.Type),
		Amount:      m.Amount.String(),
		Description: m.Description,
		OccurredAt:  m.Date.Format(timeLayout),
		ReferenceID: m.ReferenceID,
	}
}

func (row CashMovement) toCore() (core.CashMovement, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.CashMovement{}, err
	}
	at, err := time.Parse(timeLayout, row.OccurredAt)
	if err != nil {
		return core.CashMovement{}, err
	}
	return core.CashMovement{
		ID:          row.ID,
		StoreID:     row.StoreID,
		EmployeeID:  row.EmployeeID,
		Type:        core.MovementType(row.Type),
		Amount:      amount,
		Description: row.Description,
		Date:        at,
		ReferenceID: row.ReferenceID,
	}, nil
}

func (row RegisterClosing) toCore() (core.ClosingReport, error) {
	var c core.ClosingReport
	amounts := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{row.OpeningAmount, &c.OpeningAmount},
		{row.ClosingAmount, &c.ClosingAmount},
		{row.ExpectedAmount, &c.ExpectedAmount},
		{row.Difference, &c.Difference},
	}
	for _, a := range amounts {
		d, err := decimal.NewFromString(a.raw)
		if err != nil {
			return c, err
		}
		*a.dst = d
	}
	var err error
	if c.OpenedAt, err = time.Parse(timeLayout, row.OpenedAt); err != nil {
		return c, err
	}
	if c.ClosedAt, err = time.Parse(timeLayout, row.ClosedAt); err != nil {
		return c, err
	}
	c.RegisterID = row.RegisterID
	c.StoreID = row.StoreID
	c.EmployeeID = row.EmployeeID
	c.VarianceLevel = row.VarianceLevel
	c.ExpenseCount = int(row.ExpenseCount)
	return c, nil
}
