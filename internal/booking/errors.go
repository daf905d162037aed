package booking

import "errors"

// Stable error kinds surfaced to callers. Handlers map these to HTTP codes;
// anything that is not one of them is treated as an internal failure.
var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrEventNotFound covers a Book against a missing event.
	ErrEventNotFound = errors.New("event not found")
	// ErrBookingNotFound covers a Cancel that removed nothing: the
	// participant was never booked (or the event does not exist).
	ErrBookingNotFound = errors.New("booking not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	// ErrConflict should not surface while membership updates stay atomic
	// and ticket ids stay content-derived; it exists so a violated
	// assumption is visible instead of silent.
	ErrConflict = errors.New("conflict")
	// ErrStoreUnavailable marks transient infrastructure failures, retryable
	// by the caller.
	ErrStoreUnavailable = errors.New("store unavailable")
)
