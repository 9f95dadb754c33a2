package booking

import "errors"

// Commit and query failure kinds. Conflict and OutOfWindow are retryable by
// re-querying availability; NotAssigned and InvalidInput are terminal.
var (
	// ErrConflict: the slot was taken (or blocked) between query and commit.
	ErrConflict = errors.New("slot no longer available")

	// ErrNotAssigned: the employee cannot perform the requested service.
	ErrNotAssigned = errors.New("employee is not assigned to this service")

	// ErrOutOfWindow: the slot fails day-window or grid re-validation, e.g.
	// hours changed between query and commit.
	ErrOutOfWindow = errors.New("slot is outside the bookable window")

	// ErrInvalidInput: malformed identifiers, date, time, or contact data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound: referenced business, employee, service, or reservation
	// does not exist.
	ErrNotFound = errors.New("not found")
)
