package booking

import (
	"context"
	"time"

	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

// ProfileStore is the engine's read-only view of the business-profile data:
// operating hours, employees with their weekly schedules, the service
// catalogue, and employee-service assignments. The data is administered
// elsewhere; the engine only consumes it.
type ProfileStore interface {
	BusinessHours(ctx context.Context, businessID string) (schedule.WeekSchedule, error)
	Employee(ctx context.Context, businessID, employeeID string) (schedule.Employee, error)
	Employees(ctx context.Context, businessID string) ([]schedule.Employee, error)
	Service(ctx context.Context, businessID, serviceID string) (schedule.Service, error)
	ServiceAssignments(ctx context.Context, businessID, serviceID string) ([]schedule.Assignment, error)
}

// RevalidateFunc re-checks a reservation against the freshly loaded set of
// active reservations for the same employee/date. It runs inside the store's
// atomic commit unit, after mutual exclusion on (employee, date) is held.
type RevalidateFunc func(ctx context.Context, active []schedule.Reservation) error

// ReservationStore persists reservations. Commit must guarantee that two
// concurrent commits for overlapping windows on the same employee/date can
// never both succeed: it runs list-active -> revalidate -> insert as one
// atomic unit and returns ErrConflict for the loser. A failed commit leaves
// no trace.
type ReservationStore interface {
	// ListActive returns non-cancelled reservations for the employee/date.
	ListActive(ctx context.Context, employeeID string, date time.Time) ([]schedule.Reservation, error)

	Commit(ctx context.Context, res schedule.Reservation, revalidate RevalidateFunc) (schedule.Reservation, error)

	// ListDay returns all reservations (any status) for a business's
	// employee/date, ascending by start time.
	ListDay(ctx context.Context, businessID, employeeID string, date time.Time) ([]schedule.Reservation, error)

	// Cancel marks a reservation cancelled, freeing its slot. Cancelling an
	// already-cancelled reservation is a no-op returning the stored row.
	Cancel(ctx context.Context, businessID, reservationID, reason string) (schedule.Reservation, error)
}
