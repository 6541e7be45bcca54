package sqlite

import "context"

const upsertSnapshot = `
INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
`

func (q *Queries) UpsertSnapshot(ctx context.Context, key string, value []byte) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot, key, value)
	return err
}

const getSnapshot = `SELECT value FROM snapshots WHERE key = ?`

func (q *Queries) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	row := q.db.QueryRowContext(ctx, getSnapshot, key)
	var value []byte
	err := row.Scan(&value)
	return value, err
}

type InsertMovementParams struct {
	ID          string
	StoreID     string
	EmployeeID  string
	Type        string
	Amount      string
	Description string
	OccurredAt  string
	ReferenceID string
}

const insertMovement = `
INSERT INTO cash_movements (id, store_id, employee_id, type, amount, description, occurred_at, reference_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertMovement(ctx context.Context, arg InsertMovementParams) error {
	_, err := q.db.ExecContext(ctx, insertMovement,
		arg.ID, arg.StoreID, arg.EmployeeID, arg.Type, arg.Amount, arg.Description, arg.OccurredAt, arg.ReferenceID)
	return err
}

const insertMovementIgnore = `
INSERT OR IGNORE INTO cash_movements (id, store_id, employee_id, type, amount, description, occurred_at, reference_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// InsertMovementIgnore returns the number of inserted rows, zero when the id
// already exists.
func (q *Queries) InsertMovementIgnore(ctx context.Context, arg InsertMovementParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertMovementIgnore,
		arg.ID, arg.StoreID, arg.EmployeeID, arg.Type, arg.Amount, arg.Description, arg.OccurredAt, arg.ReferenceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listMovements = `
SELECT seq, id, store_id, employee_id, type, amount, description, occurred_at, reference_id
FROM cash_movements ORDER BY seq
`

func (q *Queries) ListMovements(ctx context.Context) ([]CashMovement, error) {
	rows, err := q.db.QueryContext(ctx, listMovements)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CashMovement
	for rows.Next() {
		var i CashMovement
		if err := rows.Scan(&i.Seq, &i.ID, &i.StoreID, &i.EmployeeID, &i.Type, &i.Amount, &i.Description, &i.OccurredAt, &i.ReferenceID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type InsertClosingParams struct {
	RegisterID     string
	StoreID        string
	EmployeeID     string
	OpeningAmount  string
	ClosingAmount  string
	ExpectedAmount string
	Difference     string
	VarianceLevel  string
	ExpenseCount   int64
	OpenedAt       string
	ClosedAt       string
}

const insertClosingIgnore = `
INSERT OR IGNORE INTO register_closings (
    register_id, store_id, employee_id, opening_amount, closing_amount,
    expected_amount, difference, variance_level, expense_count, opened_at, closed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertClosingIgnore(ctx context.Context, arg InsertClosingParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertClosingIgnore,
		arg.RegisterID, arg.StoreID, arg.EmployeeID, arg.OpeningAmount, arg.ClosingAmount,
		arg.ExpectedAmount, arg.Difference, arg.VarianceLevel, arg.ExpenseCount, arg.OpenedAt, arg.ClosedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getPendingClosings = `
SELECT register_id, store_id, employee_id, opening_amount, closing_amount, expected_amount,
       difference, variance_level, expense_count, opened_at, closed_at, sync_status, synced_at
FROM register_closings
WHERE sync_status = 'pending'
ORDER BY created_at, register_id
LIMIT ?
`

func (q *Queries) GetPendingClosings(ctx context.Context, limit int64) ([]RegisterClosing, error) {
	rows, err := q.db.QueryContext(ctx, getPendingClosings, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RegisterClosing
	for rows.Next() {
		var i RegisterClosing
		if err := rows.Scan(&i.RegisterID, &i.StoreID, &i.EmployeeID, &i.OpeningAmount, &i.ClosingAmount,
			&i.ExpectedAmount, &i.Difference, &i.VarianceLevel, &i.ExpenseCount, &i.OpenedAt, &i.ClosedAt,
			&i.SyncStatus, &i.SyncedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markClosingSynced = `
UPDATE register_closings SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP WHERE register_id = ?
`

func (q *Queries) MarkClosingSynced(ctx context.Context, registerID string) error {
	_, err := q.db.ExecContext(ctx, markClosingSynced, registerID)
	return err
}

const markClosingSyncError = `UPDATE register_closings SET sync_status = 'error' WHERE register_id = ?`

func (q *Queries) MarkClosingSyncError(ctx context.Context, registerID string) error {
	_, err := q.db.ExecContext(ctx, markClosingSyncError, registerID)
	return err
}
