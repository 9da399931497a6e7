package services

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/scheduling"
)

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrTableNotFound          = errors.New("table not found")
	ErrTableBusy              = errors.New("table is not available")
	ErrSessionNotFound        = errors.New("active session not found")
	ErrSessionNotRunning      = errors.New("session is not running")
	ErrMenuItemNotFound       = errors.New("menu item not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrCustomerRequired       = errors.New("wallet payment needs a customer")
	ErrInsufficientFunds      = errors.New("insufficient wallet balance")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrReservationClosed      = errors.New("reservation is no longer pending")
	ErrReservationConflict    = errors.New("an upcoming reservation overlaps this booking")
	ErrQueueEntryNotFound     = errors.New("queue entry not found")
	ErrBillNotFound           = errors.New("bill not found")
	ErrAlreadyAutoBilled      = errors.New("session was already billed automatically")
	ErrTableAvailable         = scheduling.ErrTableAvailable
	ErrEarlyExitChoiceMissing = billing.ErrEarlyExitChoiceRequired
)

// ConflictError carries the advisory conflict so the caller can offer "Add Anyway".
type ConflictError struct {
	Conflict scheduling.Conflict
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: reservation #%d at %s", ErrReservationConflict, e.Conflict.Reservation.ID,
		e.Conflict.Reservation.ReservationTime.Format("15:04"))
}

func (e *ConflictError) Unwrap() error { return ErrReservationConflict }

// EarlyExitError carries both billing options; a bill is only produced once one is chosen.
type EarlyExitError struct {
	Options billing.Options
}

func (e *EarlyExitError) Error() string { return billing.ErrEarlyExitChoiceRequired.Error() }

func (e *EarlyExitError) Unwrap() error { return billing.ErrEarlyExitChoiceRequired }

// InsufficientFundsError is returned when a wallet would go negative without consent.
type InsufficientFundsError struct {
	Balance  float64
	Required float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s: balance %.2f, required %.2f", ErrInsufficientFunds, e.Balance, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
