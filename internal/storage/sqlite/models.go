package sqlite

import "database/sql"

type CashMovement struct {
	Seq         int64
	ID          string
	StoreID     string
	EmployeeID  string
	Type        string
	Amount      string
	Description string
	OccurredAt  string
	ReferenceID string
}

type RegisterClosing struct {
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
	SyncStatus     string
	SyncedAt       sql.NullTime
}
