package amqp

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

func TestLedgerEventJSON(t *testing.T) {
	m := core.CashMovement{
		ID: "m1", StoreID: "2", Type: core.MovementExpense,
		Amount: decimal.RequireFromString("-10000"), Description: "Taxi",
		Date: time.Date(2025, 4, 4, 12, 0, 0, 0, time.UTC),
	}
	body, err := NewMovementEvent(m).ToJSON()
	require.NoError(t, err)

	got, err := LedgerEventFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, EventMovementRecorded, got.Type)
	require.NotNil(t, got.Movement)
	assert.Equal(t, "m1", got.Movement.ID)
	assert.True(t, got.Movement.Amount.Equal(m.Amount))
	assert.Nil(t, got.Closing)
}

func TestLedgerEventFromJSONRejectsInconsistentPayloads(t *testing.T) {
	cases := map[string]string{
		"invalid json":          `{"type":`,
		"unknown type":          `{"type":"sale.voided"}`,
		"movement without body": `{"type":"movement.recorded"}`,
		"closing without body":  `{"type":"register.closed","movement":{"id":"x"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LedgerEventFromJSON([]byte(body))
			assert.Error(t, err)
		})
	}
}
