package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookora/bookora/libs/db"
	"github.com/bookora/bookora/services/reservation-service/internal/booking"
	"github.com/bookora/bookora/services/reservation-service/internal/outbox"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

const reservationColumns = `
	id::text, business_id::text, employee_id::text, service_id::text,
	date, start_minute, duration_minutes, price::text, status,
	client_name, client_email, client_phone, created_at, cancelled_at`

// ReservationRepository persists reservations in Postgres. Commit is the
// engine's single write path: it serializes concurrent commits per
// (employee, date) with a transaction-scoped advisory lock and re-validates
// before inserting. The exclusion constraint on confirmed rows is the backstop
// if anything slips past; pending occupancy is left to the revalidation so the
// pending-blocks policy stays effective.
type ReservationRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
	logger *slog.Logger
}

func NewReservationRepository(pool *db.Pool, outboxRepo *outbox.Repository, logger *slog.Logger) *ReservationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationRepository{pool: pool, outbox: outboxRepo, logger: logger}
}

func (r *ReservationRepository) ListActive(ctx context.Context, employeeID string, date time.Time) ([]schedule.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE employee_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY start_minute ASC
	`, employeeID, schedule.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *ReservationRepository) Commit(ctx context.Context, res schedule.Reservation, revalidate booking.RevalidateFunc) (schedule.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return schedule.Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize commits for this employee/day. The lock is released at
	// COMMIT/ROLLBACK, so the revalidate-then-insert sequence below is
	// mutually exclusive with every other commit for the same key.
	lockKey := res.EmployeeID + ":" + res.Date.Format("2006-01-02")
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return schedule.Reservation{}, err
	}

	active, err := listActiveTx(ctx, tx, res.EmployeeID, res.Date)
	if err != nil {
		return schedule.Reservation{}, err
	}
	if err := revalidate(ctx, active); err != nil {
		return schedule.Reservation{}, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO reservations
			(id, business_id, employee_id, service_id, date, start_minute, duration_minutes, price, status,
			 client_name, client_email, client_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`, res.ID, res.BusinessID, res.EmployeeID, res.ServiceID, res.Date, int(res.StartMinute),
		res.DurationMinutes, res.Price, string(res.Status),
		res.Client.Name, res.Client.Email, res.Client.Phone).Scan(&res.CreatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return schedule.Reservation{}, booking.ErrConflict
		}
		return schedule.Reservation{}, err
	}

	if r.outbox != nil {
		payload, err := json.Marshal(map[string]any{
			"reservation_id": res.ID,
			"business_id":    res.BusinessID,
			"employee_id":    res.EmployeeID,
			"service_id":     res.ServiceID,
			"date":           res.Date.Format("2006-01-02"),
			"start_time":     res.StartMinute.Clock(),
			"duration_mins":  res.DurationMinutes,
			"status":         string(res.Status),
			"client_name":    res.Client.Name,
			"client_email":   res.Client.Email,
			"client_phone":   res.Client.Phone,
		})
		if err != nil {
			return schedule.Reservation{}, fmt.Errorf("build reservation event: %w", err)
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "reservation",
			AggregateID:   res.ID,
			EventType:     "reservation.created.v1",
			Payload:       payload,
		}); err != nil {
			return schedule.Reservation{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return schedule.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepository) ListDay(ctx context.Context, businessID, employeeID string, date time.Time) ([]schedule.Reservation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE business_id = $1 AND employee_id = $2 AND date = $3
		ORDER BY start_minute ASC
	`, businessID, employeeID, schedule.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

func (r *ReservationRepository) Cancel(ctx context.Context, businessID, reservationID, reason string) (schedule.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return schedule.Reservation{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE business_id = $1 AND id = $2
		FOR UPDATE
	`, businessID, reservationID)
	res, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.Reservation{}, booking.ErrNotFound
		}
		return schedule.Reservation{}, err
	}

	if res.Status == schedule.StatusCancelled {
		return res, tx.Commit(ctx)
	}

	var cancelledAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE reservations
		SET status = 'cancelled',
			cancelled_at = now(),
			cancel_reason = $3
		WHERE business_id = $1 AND id = $2
		RETURNING cancelled_at
	`, businessID, reservationID, reason).Scan(&cancelledAt)
	if err != nil {
		return schedule.Reservation{}, err
	}
	res.Status = schedule.StatusCancelled
	res.CancelledAt = &cancelledAt

	if r.outbox != nil {
		payload, err := json.Marshal(map[string]any{
			"reservation_id": res.ID,
			"business_id":    res.BusinessID,
			"employee_id":    res.EmployeeID,
			"date":           res.Date.Format("2006-01-02"),
			"start_time":     res.StartMinute.Clock(),
			"cancelled_at":   cancelledAt.UTC().Format(time.RFC3339),
			"reason":         reason,
			"client_name":    res.Client.Name,
			"client_email":   res.Client.Email,
			"client_phone":   res.Client.Phone,
		})
		if err != nil {
			return schedule.Reservation{}, fmt.Errorf("build cancellation event: %w", err)
		}
		if err := r.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "reservation",
			AggregateID:   res.ID,
			EventType:     "reservation.cancelled.v1",
			Payload:       payload,
		}); err != nil {
			return schedule.Reservation{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return schedule.Reservation{}, err
	}
	return res, nil
}

func listActiveTx(ctx context.Context, tx pgx.Tx, employeeID string, date time.Time) ([]schedule.Reservation, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE employee_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY start_minute ASC
	`, employeeID, schedule.DateOf(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReservations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (schedule.Reservation, error) {
	var res schedule.Reservation
	var status string
	var startMinute int
	var cancelledAt *time.Time
	err := row.Scan(
		&res.ID, &res.BusinessID, &res.EmployeeID, &res.ServiceID,
		&res.Date, &startMinute, &res.DurationMinutes, &res.Price, &status,
		&res.Client.Name, &res.Client.Email, &res.Client.Phone,
		&res.CreatedAt, &cancelledAt,
	)
	if err != nil {
		return schedule.Reservation{}, err
	}
	res.StartMinute = schedule.Minutes(startMinute)
	res.Status = schedule.ReservationStatus(status)
	res.CancelledAt = cancelledAt
	res.Date = schedule.DateOf(res.Date)
	return res, nil
}

func scanReservations(rows pgx.Rows) ([]schedule.Reservation, error) {
	var out []schedule.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

var _ booking.ReservationStore = (*ReservationRepository)(nil)
