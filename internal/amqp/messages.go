package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

type EventType string

const (
	EventMovementRecorded EventType = "movement.recorded"
	EventRegisterClosed   EventType = "register.closed"
)

// LedgerEvent is published after a ledger change is applied in memory.
// Exactly one of Movement or Closing is set, matching Type.
type LedgerEvent struct {
	Type      EventType           `json:"type"`
	Movement  *core.CashMovement  `json:"movement,omitempty"`
	Closing   *core.ClosingReport `json:"closing,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

func NewMovementEvent(m core.CashMovement) *LedgerEvent {
	return &LedgerEvent{Type: EventMovementRecorded, Movement: &m, Timestamp: time.Now()}
}

func NewRegisterClosedEvent(c core.ClosingReport) *LedgerEvent {
	return &LedgerEvent{Type: EventRegisterClosed, Closing: &c, Timestamp: time.Now()}
}

// ToJSON converts the message to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and checks that the payload matches the type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Type {
	case EventMovementRecorded:
		if e.Movement == nil {
			return nil, errors.New("movement event without movement")
		}
	case EventRegisterClosed:
		if e.Closing == nil {
			return nil, errors.New("register closed event without closing")
		}
	default:
		return nil, errors.New("unknown event type " + string(e.Type))
	}
	return &e, nil
}
