package schedule

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

type ClientContact struct {
	Name  string
	Email string
	Phone string
}

// Reservation is a committed claim on an employee's time. Slot occupancy is
// determined solely by (EmployeeID, Date, [StartMinute, StartMinute+Duration));
// cancelled reservations never occupy.
type Reservation struct {
	ID              string
	BusinessID      string
	EmployeeID      string
	ServiceID       string
	Date            time.Time
	StartMinute     Minutes
	DurationMinutes int
	Price           string
	Status          ReservationStatus
	Client          ClientContact
	CreatedAt       time.Time
	CancelledAt     *time.Time
}

func (r Reservation) EndMinute() Minutes {
	return r.StartMinute + Minutes(r.DurationMinutes)
}

// Occupies reports whether the reservation blocks other bookings.
// Whether a pending reservation holds its slot is business policy.
func (r Reservation) Occupies(pendingBlocks bool) bool {
	switch r.Status {
	case StatusCancelled:
		return false
	case StatusPending:
		return pendingBlocks
	default:
		return true
	}
}

// Slot is a bookable start time for an employee/service pair. It is transient:
// produced by availability queries, consumed by commits, never persisted.
type Slot struct {
	EmployeeID      string
	ServiceID       string
	StartMinute     Minutes
	DurationMinutes int
}
