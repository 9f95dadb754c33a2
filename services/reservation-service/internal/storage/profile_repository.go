package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bookora/bookora/libs/db"
	"github.com/bookora/bookora/services/reservation-service/internal/booking"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

// ProfileRepository is the engine's read-side adapter over the business
// profile tables (hours, employees, services, assignments). Those tables are
// administered by the surrounding product; this repository only reads them.
type ProfileRepository struct {
	pool *db.Pool
}

func NewProfileRepository(pool *db.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) BusinessHours(ctx context.Context, businessID string) (schedule.WeekSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, open_minute, close_minute, is_closed
		FROM business_hours
		WHERE business_id = $1
	`, businessID)
	if err != nil {
		return schedule.WeekSchedule{}, err
	}
	defer rows.Close()

	// Days with no row default to closed.
	ws := schedule.ClosedWeek()
	found := false
	for rows.Next() {
		var weekday, open, close int
		var closed bool
		if err := rows.Scan(&weekday, &open, &close, &closed); err != nil {
			return schedule.WeekSchedule{}, err
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		found = true
		ws[weekday] = schedule.DayRule{
			Open:   schedule.Minutes(open),
			Close:  schedule.Minutes(close),
			Closed: closed,
		}
	}
	if rows.Err() != nil {
		return schedule.WeekSchedule{}, rows.Err()
	}
	if !found {
		return schedule.WeekSchedule{}, booking.ErrNotFound
	}
	return ws, nil
}

func (r *ProfileRepository) Employee(ctx context.Context, businessID, employeeID string) (schedule.Employee, error) {
	var emp schedule.Employee
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, business_id::text, name, role
		FROM employees
		WHERE business_id = $1 AND id = $2
	`, businessID, employeeID).Scan(&emp.ID, &emp.BusinessID, &emp.Name, &emp.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Employee{}, booking.ErrNotFound
		}
		return schedule.Employee{}, err
	}

	if emp.Weekly, err = r.employeeHours(ctx, employeeID); err != nil {
		return schedule.Employee{}, err
	}
	if emp.TimeOff, err = r.employeeTimeOff(ctx, employeeID); err != nil {
		return schedule.Employee{}, err
	}
	if emp.Breaks, err = r.employeeBreaks(ctx, employeeID); err != nil {
		return schedule.Employee{}, err
	}
	if emp.Assignments, err = r.employeeAssignments(ctx, employeeID); err != nil {
		return schedule.Employee{}, err
	}
	return emp, nil
}

// Employees lists a business's employees without their schedule
// sub-collections; callers that need hours or breaks load the employee by id.
func (r *ProfileRepository) Employees(ctx context.Context, businessID string) ([]schedule.Employee, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, business_id::text, name, role
		FROM employees
		WHERE business_id = $1
		ORDER BY created_at ASC
	`, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Employee
	for rows.Next() {
		var emp schedule.Employee
		if err := rows.Scan(&emp.ID, &emp.BusinessID, &emp.Name, &emp.Role); err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) Service(ctx context.Context, businessID, serviceID string) (schedule.Service, error) {
	var svc schedule.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, business_id::text, name, duration_minutes, price::text, description
		FROM services
		WHERE business_id = $1 AND id = $2
	`, businessID, serviceID).Scan(&svc.ID, &svc.BusinessID, &svc.Name, &svc.DurationMinutes, &svc.Price, &svc.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Service{}, booking.ErrNotFound
		}
		return schedule.Service{}, err
	}
	return svc, nil
}

func (r *ProfileRepository) ServiceAssignments(ctx context.Context, businessID, serviceID string) ([]schedule.Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.employee_id::text, a.service_id::text, a.duration_minutes, a.price::text, a.available
		FROM service_assignments a
		JOIN employees e ON e.id = a.employee_id
		WHERE e.business_id = $1 AND a.service_id = $2
	`, businessID, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func (r *ProfileRepository) employeeHours(ctx context.Context, employeeID string) (schedule.WeekSchedule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, open_minute, close_minute, is_closed
		FROM employee_hours
		WHERE employee_id = $1
	`, employeeID)
	if err != nil {
		return schedule.WeekSchedule{}, err
	}
	defer rows.Close()

	ws := schedule.ClosedWeek()
	for rows.Next() {
		var weekday, open, close int
		var closed bool
		if err := rows.Scan(&weekday, &open, &close, &closed); err != nil {
			return schedule.WeekSchedule{}, err
		}
		if weekday < 0 || weekday > 6 {
			continue
		}
		ws[weekday] = schedule.DayRule{
			Open:   schedule.Minutes(open),
			Close:  schedule.Minutes(close),
			Closed: closed,
		}
	}
	return ws, rows.Err()
}

func (r *ProfileRepository) employeeTimeOff(ctx context.Context, employeeID string) ([]schedule.TimeOffPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, employee_id::text, start_date, end_date, COALESCE(reason, '')
		FROM employee_time_off
		WHERE employee_id = $1
		ORDER BY start_date ASC
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.TimeOffPeriod
	for rows.Next() {
		var p schedule.TimeOffPeriod
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.StartDate, &p.EndDate, &p.Reason); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) employeeBreaks(ctx context.Context, employeeID string) ([]schedule.Break, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, employee_id::text, weekday, start_minute, end_minute, COALESCE(reason, '')
		FROM employee_breaks
		WHERE employee_id = $1
		ORDER BY weekday ASC, start_minute ASC
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Break
	for rows.Next() {
		var b schedule.Break
		var weekday, start, end int
		if err := rows.Scan(&b.ID, &b.EmployeeID, &weekday, &start, &end, &b.Reason); err != nil {
			return nil, err
		}
		b.Weekday = schedule.Weekday(weekday)
		b.Start = schedule.Minutes(start)
		b.End = schedule.Minutes(end)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) employeeAssignments(ctx context.Context, employeeID string) ([]schedule.Assignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT employee_id::text, service_id::text, duration_minutes, price::text, available
		FROM service_assignments
		WHERE employee_id = $1
	`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]schedule.Assignment, error) {
	var out []schedule.Assignment
	for rows.Next() {
		var a schedule.Assignment
		var duration *int
		var price *string
		if err := rows.Scan(&a.EmployeeID, &a.ServiceID, &duration, &price, &a.Available); err != nil {
			return nil, err
		}
		a.DurationMinutes = duration
		a.Price = price
		out = append(out, a)
	}
	return out, rows.Err()
}

var _ booking.ProfileStore = (*ProfileRepository)(nil)
