package register

import (
	"errors"
	"fmt"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
)

var (
	ErrRegisterNotFound      = errors.New("register: not found")
	ErrRegisterAlreadyOpen   = errors.New("register: store already has an open register")
	ErrNegativeOpeningAmount = errors.New("register: opening amount cannot be negative")
	ErrNegativeClosingAmount = errors.New("register: closing amount cannot be negative")
	ErrEmptyStore            = errors.New("register: empty store id")
	ErrInvalidState          = errors.New("register: invalid state")
)

// InvalidStateError is returned when an operation needs a register status
// the register does not have.
type InvalidStateError struct {
	RegisterID string
	Status     core.RegisterStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("register: %s is %s", e.RegisterID, e.Status)
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
