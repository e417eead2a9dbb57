package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means the viewer must sign in first. Callers route to
	// the login flow; the submit is not retried automatically.
	ErrUnauthenticated   = errors.New("sign in to book seats")
	ErrEmptySelection    = errors.New("select at least one seat")
	ErrSubmitInProgress  = errors.New("a booking is already being submitted")
	ErrPaymentInProgress = errors.New("payment is already in progress")
	ErrUnknownBooking    = errors.New("booking not found")
	ErrAlreadyPaid       = errors.New("booking is already paid")
	// ErrScopeClosed is returned when a call finished after Remount; its
	// result was not applied.
	ErrScopeClosed = errors.New("view closed before the request finished")
)

// BookingFailedError wraps a rejected or failed booking submission. The
// selection is left intact so the user can retry.
type BookingFailedError struct {
	SessionID int
	Err       error
}

func (e *BookingFailedError) Error() string {
	if e == nil || e.Err == nil {
		return "booking failed"
	}
	return fmt.Sprintf("booking failed: %v", e.Err)
}

func (e *BookingFailedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PaymentFailedError wraps a failed payment confirmation. The booking stays
// pending.
type PaymentFailedError struct {
	BookingID string
	Err       error
}

func (e *PaymentFailedError) Error() string {
	if e == nil || e.Err == nil {
		return "payment failed"
	}
	return fmt.Sprintf("payment for booking %s failed: %v", e.BookingID, e.Err)
}

func (e *PaymentFailedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
