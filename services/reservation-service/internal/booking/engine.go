// Package booking is the availability and reservation engine: it orchestrates
// the calendar resolver, slot generator, and occupancy filter into the two
// public operations (list open slots, commit a reservation) and owns the
// commit-time re-validation that makes double booking impossible.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookora/bookora/services/reservation-service/internal/calendar"
	"github.com/bookora/bookora/services/reservation-service/internal/occupancy"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
	"github.com/bookora/bookora/services/reservation-service/internal/slots"
)

// Policy carries the business-level booking knobs: slot
// granularity, whether a pending reservation holds its slot, and the status a
// fresh reservation is created in.
type Policy struct {
	StepMinutes   int
	PendingBlocks bool
	InitialStatus schedule.ReservationStatus
}

func DefaultPolicy() Policy {
	return Policy{
		StepMinutes:   30,
		PendingBlocks: true,
		InitialStatus: schedule.StatusConfirmed,
	}
}

func (p Policy) normalized() Policy {
	if p.StepMinutes <= 0 {
		p.StepMinutes = 30
	}
	if p.InitialStatus != schedule.StatusPending && p.InitialStatus != schedule.StatusConfirmed {
		p.InitialStatus = schedule.StatusConfirmed
	}
	return p
}

type Engine struct {
	profiles     ProfileStore
	reservations ReservationStore
	policy       Policy
	logger       *slog.Logger
}

func NewEngine(profiles ProfileStore, reservations ReservationStore, policy Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		profiles:     profiles,
		reservations: reservations,
		policy:       policy.normalized(),
		logger:       logger,
	}
}

// Terms is the effective duration and price for an employee/service pair
// after applying assignment overrides.
type Terms struct {
	DurationMinutes int
	Price           string
}

// ResolveTerms applies the two-level lookup: assignment override if one exists
// and is available, else the service defaults. A service with no assignment
// records at all is open to every employee (backward compatibility with
// pre-assignment data); a service with records but none for this employee is
// not bookable with them.
func (e *Engine) ResolveTerms(ctx context.Context, businessID, employeeID, serviceID string) (Terms, error) {
	svc, err := e.profiles.Service(ctx, businessID, serviceID)
	if err != nil {
		return Terms{}, err
	}

	terms := Terms{DurationMinutes: svc.DurationMinutes, Price: svc.Price}

	assignments, err := e.profiles.ServiceAssignments(ctx, businessID, serviceID)
	if err != nil {
		return Terms{}, err
	}
	if len(assignments) == 0 {
		return terms, nil
	}

	for _, a := range assignments {
		if a.EmployeeID != employeeID {
			continue
		}
		if !a.Available {
			return Terms{}, ErrNotAssigned
		}
		if a.DurationMinutes != nil && *a.DurationMinutes > 0 {
			terms.DurationMinutes = *a.DurationMinutes
		}
		if a.Price != nil {
			terms.Price = *a.Price
		}
		return terms, nil
	}
	return Terms{}, ErrNotAssigned
}

// ListSlots returns the bookable start times for (employee, service, date),
// ascending. A closed day is an empty result, not an error.
func (e *Engine) ListSlots(ctx context.Context, businessID, employeeID, serviceID string, date time.Time) ([]schedule.Slot, error) {
	if businessID == "" || employeeID == "" || serviceID == "" || date.IsZero() {
		return nil, ErrInvalidInput
	}

	terms, err := e.ResolveTerms(ctx, businessID, employeeID, serviceID)
	if err != nil {
		return nil, err
	}

	hours, err := e.profiles.BusinessHours(ctx, businessID)
	if err != nil {
		return nil, err
	}
	emp, err := e.profiles.Employee(ctx, businessID, employeeID)
	if err != nil {
		return nil, err
	}

	window, open := calendar.ResolveDay(hours, emp, date)
	if !open {
		return nil, nil
	}

	candidates := slots.Candidates(window, terms.DurationMinutes, e.policy.StepMinutes)
	if len(candidates) == 0 {
		return nil, nil
	}

	active, err := e.reservations.ListActive(ctx, employeeID, schedule.DateOf(date))
	if err != nil {
		return nil, err
	}

	free := occupancy.Filter(candidates, terms.DurationMinutes, schedule.WeekdayOf(date), emp.Breaks, active, e.policy.PendingBlocks)

	out := make([]schedule.Slot, 0, len(free))
	for _, t := range free {
		out = append(out, schedule.Slot{
			EmployeeID:      employeeID,
			ServiceID:       serviceID,
			StartMinute:     t,
			DurationMinutes: terms.DurationMinutes,
		})
	}
	return out, nil
}

// ListEligibleEmployees returns the employees a caller may offer for a
// service: those with an available assignment, or every employee when the
// service has no assignment records at all.
func (e *Engine) ListEligibleEmployees(ctx context.Context, businessID, serviceID string) ([]schedule.Employee, error) {
	if businessID == "" || serviceID == "" {
		return nil, ErrInvalidInput
	}
	if _, err := e.profiles.Service(ctx, businessID, serviceID); err != nil {
		return nil, err
	}

	emps, err := e.profiles.Employees(ctx, businessID)
	if err != nil {
		return nil, err
	}
	assignments, err := e.profiles.ServiceAssignments(ctx, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return emps, nil
	}

	available := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if a.Available {
			available[a.EmployeeID] = true
		}
	}
	out := make([]schedule.Employee, 0, len(emps))
	for _, emp := range emps {
		if available[emp.ID] {
			out = append(out, emp)
		}
	}
	return out, nil
}

// CommitRequest is the input to Commit: the slot tuple plus client contact.
type CommitRequest struct {
	BusinessID  string
	EmployeeID  string
	ServiceID   string
	Date        time.Time
	StartMinute schedule.Minutes
	Client      schedule.ClientContact
}

func (r CommitRequest) validate() error {
	if r.BusinessID == "" || r.EmployeeID == "" || r.ServiceID == "" {
		return fmt.Errorf("%w: missing identifier", ErrInvalidInput)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidInput)
	}
	if r.StartMinute < 0 || r.StartMinute >= schedule.EndOfDay {
		return fmt.Errorf("%w: start time out of range", ErrInvalidInput)
	}
	if strings.TrimSpace(r.Client.Name) == "" {
		return fmt.Errorf("%w: client name required", ErrInvalidInput)
	}
	return nil
}

// Commit atomically claims a slot. The store re-runs day-window and occupancy
// validation inside the same atomic unit that inserts the row, so of two
// simultaneous commits for overlapping windows on one employee, at most one
// can succeed. The caller must treat ErrConflict and ErrOutOfWindow as
// "re-query and choose again", never as "retry the same commit".
func (e *Engine) Commit(ctx context.Context, req CommitRequest) (schedule.Reservation, error) {
	if err := req.validate(); err != nil {
		return schedule.Reservation{}, err
	}

	terms, err := e.ResolveTerms(ctx, req.BusinessID, req.EmployeeID, req.ServiceID)
	if err != nil {
		return schedule.Reservation{}, err
	}

	res := schedule.Reservation{
		ID:              uuid.NewString(),
		BusinessID:      req.BusinessID,
		EmployeeID:      req.EmployeeID,
		ServiceID:       req.ServiceID,
		Date:            schedule.DateOf(req.Date),
		StartMinute:     req.StartMinute,
		DurationMinutes: terms.DurationMinutes,
		Price:           terms.Price,
		Status:          e.policy.InitialStatus,
		Client:          req.Client,
	}

	committed, err := e.reservations.Commit(ctx, res, func(ctx context.Context, active []schedule.Reservation) error {
		return e.revalidate(ctx, res, active)
	})
	if err != nil {
		return schedule.Reservation{}, err
	}

	e.logger.Info("reservation committed",
		"reservation_id", committed.ID,
		"business_id", committed.BusinessID,
		"employee_id", committed.EmployeeID,
		"date", committed.Date.Format("2006-01-02"),
		"start", committed.StartMinute.Clock(),
	)
	return committed, nil
}

// revalidate re-derives the slot from current profile data and the active
// reservations loaded under the commit lock. Window or grid failures are
// ErrOutOfWindow; collisions with occupancy are ErrConflict.
func (e *Engine) revalidate(ctx context.Context, res schedule.Reservation, active []schedule.Reservation) error {
	hours, err := e.profiles.BusinessHours(ctx, res.BusinessID)
	if err != nil {
		return err
	}
	emp, err := e.profiles.Employee(ctx, res.BusinessID, res.EmployeeID)
	if err != nil {
		return err
	}

	window, open := calendar.ResolveDay(hours, emp, res.Date)
	if !open {
		return ErrOutOfWindow
	}
	candidates := slots.Candidates(window, res.DurationMinutes, e.policy.StepMinutes)
	if !containsMinute(candidates, res.StartMinute) {
		return ErrOutOfWindow
	}

	free := occupancy.Filter([]schedule.Minutes{res.StartMinute}, res.DurationMinutes, schedule.WeekdayOf(res.Date), emp.Breaks, active, e.policy.PendingBlocks)
	if len(free) == 0 {
		return ErrConflict
	}
	return nil
}

// Cancel releases a reservation's slot. Idempotent.
func (e *Engine) Cancel(ctx context.Context, businessID, reservationID, reason string) (schedule.Reservation, error) {
	if businessID == "" || reservationID == "" {
		return schedule.Reservation{}, ErrInvalidInput
	}
	return e.reservations.Cancel(ctx, businessID, reservationID, reason)
}

// DayReservations returns a business's reservations for an employee/date.
func (e *Engine) DayReservations(ctx context.Context, businessID, employeeID string, date time.Time) ([]schedule.Reservation, error) {
	if businessID == "" || employeeID == "" || date.IsZero() {
		return nil, ErrInvalidInput
	}
	return e.reservations.ListDay(ctx, businessID, employeeID, schedule.DateOf(date))
}

func containsMinute(list []schedule.Minutes, m schedule.Minutes) bool {
	for _, v := range list {
		if v == m {
			return true
		}
	}
	return false
}
