package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bookora/bookora/services/reservation-service/internal/booking"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
	"github.com/bookora/bookora/services/reservation-service/internal/testfixtures"
)

// 2025-06-09 is a Monday.
var monday = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

const (
	bizID  = "biz-1"
	empA   = "emp-a"
	empB   = "emp-b"
	svcCut = "svc-cut"
)

// newFixture builds a salon open Mon-Fri 09:00-17:00 with one employee
// working the same hours, a 12:00-13:00 Monday lunch break, and a 60-minute
// service. Callers adjust the stores before building the engine.
func newFixture() (*testfixtures.ProfileStore, *testfixtures.ReservationStore) {
	profiles := testfixtures.NewProfileStore()

	week := schedule.ClosedWeek()
	for d := schedule.Monday; d <= schedule.Friday; d++ {
		week[d] = schedule.DayRule{Open: 540, Close: 1020}
	}
	profiles.SetBusinessHours(bizID, week)

	profiles.AddEmployee(bizID, schedule.Employee{
		ID:     empA,
		Name:   "Alice",
		Weekly: week,
		Breaks: []schedule.Break{
			{ID: "lunch", EmployeeID: empA, Weekday: schedule.Monday, Start: 720, End: 780},
		},
	})

	profiles.AddService(bizID, schedule.Service{
		ID:              svcCut,
		Name:            "Haircut",
		DurationMinutes: 60,
		Price:           "30.00",
	})

	return profiles, testfixtures.NewReservationStore()
}

func newEngine(profiles *testfixtures.ProfileStore, reservations *testfixtures.ReservationStore) *booking.Engine {
	return booking.NewEngine(profiles, reservations, booking.DefaultPolicy(), nil)
}

func slotClocks(slots []schedule.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.StartMinute.Clock()
	}
	return out
}

func TestListSlotsOpenDayWithBreak(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)

	slots, err := engine.ListSlots(context.Background(), bizID, empA, svcCut, monday)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}

	// 09:00-17:00, 60-minute service on a 30-minute grid, lunch 12:00-13:00.
	want := []string{
		"09:00", "09:30", "10:00", "10:30", "11:00",
		"13:00", "13:30", "14:00", "14:30", "15:00", "15:30", "16:00",
	}
	got := slotClocks(slots)
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot[%d] = %s, want %s (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestListSlotsClosedDay(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)

	sunday := monday.AddDate(0, 0, 6)
	slots, err := engine.ListSlots(context.Background(), bizID, empA, svcCut, sunday)
	if err != nil {
		t.Fatalf("ListSlots on closed day: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on closed day, got %v", slotClocks(slots))
	}
}

func TestListSlotsTimeOff(t *testing.T) {
	profiles, reservations := newFixture()
	profiles.AddEmployee(bizID, schedule.Employee{
		ID:     empB,
		Name:   "Bob",
		Weekly: mustWeek(),
		TimeOff: []schedule.TimeOffPeriod{
			{StartDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC)},
		},
	})
	engine := newEngine(profiles, reservations)

	tuesday := monday.AddDate(0, 0, 1)
	slots, err := engine.ListSlots(context.Background(), bizID, empB, svcCut, tuesday)
	if err != nil {
		t.Fatalf("ListSlots during time off: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots during time off, got %v", slotClocks(slots))
	}

	friday := monday.AddDate(0, 0, 4)
	slots, err = engine.ListSlots(context.Background(), bizID, empB, svcCut, friday)
	if err != nil {
		t.Fatalf("ListSlots after time off: %v", err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots after time off ends")
	}
}

func mustWeek() schedule.WeekSchedule {
	week := schedule.ClosedWeek()
	for d := schedule.Monday; d <= schedule.Friday; d++ {
		week[d] = schedule.DayRule{Open: 540, Close: 1020}
	}
	return week
}

func TestResolveTermsOverrides(t *testing.T) {
	profiles, reservations := newFixture()
	dur := 45
	price := "25.00"
	profiles.AddAssignment(bizID, schedule.Assignment{
		EmployeeID:      empA,
		ServiceID:       svcCut,
		DurationMinutes: &dur,
		Price:           &price,
		Available:       true,
	})
	engine := newEngine(profiles, reservations)

	terms, err := engine.ResolveTerms(context.Background(), bizID, empA, svcCut)
	if err != nil {
		t.Fatalf("ResolveTerms: %v", err)
	}
	if terms.DurationMinutes != 45 || terms.Price != "25.00" {
		t.Fatalf("terms = %+v, want 45min at 25.00", terms)
	}
}

func TestResolveTermsDefaultsWhenNoAssignments(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)

	// No assignment rows at all: the service is open to any employee at its
	// base duration and price.
	terms, err := engine.ResolveTerms(context.Background(), bizID, empA, svcCut)
	if err != nil {
		t.Fatalf("ResolveTerms: %v", err)
	}
	if terms.DurationMinutes != 60 || terms.Price != "30.00" {
		t.Fatalf("terms = %+v, want service defaults", terms)
	}
}

func TestResolveTermsNotAssigned(t *testing.T) {
	profiles, reservations := newFixture()
	profiles.AddEmployee(bizID, schedule.Employee{ID: empB, Name: "Bob", Weekly: mustWeek()})
	// Only Bob is assigned, so Alice is no longer eligible.
	profiles.AddAssignment(bizID, schedule.Assignment{
		EmployeeID: empB,
		ServiceID:  svcCut,
		Available:  true,
	})
	engine := newEngine(profiles, reservations)

	if _, err := engine.ResolveTerms(context.Background(), bizID, empA, svcCut); !errors.Is(err, booking.ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned, got %v", err)
	}
}

func TestResolveTermsUnavailableAssignment(t *testing.T) {
	profiles, reservations := newFixture()
	profiles.AddAssignment(bizID, schedule.Assignment{
		EmployeeID: empA,
		ServiceID:  svcCut,
		Available:  false,
	})
	engine := newEngine(profiles, reservations)

	if _, err := engine.ResolveTerms(context.Background(), bizID, empA, svcCut); !errors.Is(err, booking.ErrNotAssigned) {
		t.Fatalf("expected ErrNotAssigned for unavailable assignment, got %v", err)
	}
}

func TestListEligibleEmployees(t *testing.T) {
	profiles, reservations := newFixture()
	profiles.AddEmployee(bizID, schedule.Employee{ID: empB, Name: "Bob", Weekly: mustWeek()})
	engine := newEngine(profiles, reservations)

	// No assignments: everyone is eligible.
	emps, err := engine.ListEligibleEmployees(context.Background(), bizID, svcCut)
	if err != nil {
		t.Fatalf("ListEligibleEmployees: %v", err)
	}
	if len(emps) != 2 {
		t.Fatalf("expected 2 eligible employees, got %d", len(emps))
	}

	// Assign only Alice; Bob's record is unavailable.
	profiles.AddAssignment(bizID, schedule.Assignment{EmployeeID: empA, ServiceID: svcCut, Available: true})
	profiles.AddAssignment(bizID, schedule.Assignment{EmployeeID: empB, ServiceID: svcCut, Available: false})

	emps, err = engine.ListEligibleEmployees(context.Background(), bizID, svcCut)
	if err != nil {
		t.Fatalf("ListEligibleEmployees: %v", err)
	}
	if len(emps) != 1 || emps[0].ID != empA {
		t.Fatalf("expected only %s eligible, got %+v", empA, emps)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	before, err := engine.ListSlots(ctx, bizID, empA, svcCut, monday)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(before) == 0 {
		t.Fatal("expected open slots")
	}

	res, err := engine.Commit(ctx, booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: before[0].StartMinute,
		Client:      schedule.ClientContact{Name: "Carol", Email: "carol@example.com"},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.ID == "" {
		t.Fatal("expected a reservation id")
	}
	if res.Status != schedule.StatusConfirmed {
		t.Fatalf("status = %s, want confirmed", res.Status)
	}
	if res.DurationMinutes != 60 || res.Price != "30.00" {
		t.Fatalf("terms not frozen onto reservation: %+v", res)
	}

	after, err := engine.ListSlots(ctx, bizID, empA, svcCut, monday)
	if err != nil {
		t.Fatalf("ListSlots after commit: %v", err)
	}
	for _, s := range after {
		if s.StartMinute < res.EndMinute() && res.StartMinute < s.StartMinute+schedule.Minutes(s.DurationMinutes) {
			t.Fatalf("slot %s still offered over committed reservation", s.StartMinute.Clock())
		}
	}
}

func TestCommitSameSlotConflicts(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	req := booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: 600,
		Client:      schedule.ClientContact{Name: "Carol"},
	}
	if _, err := engine.Commit(ctx, req); err != nil {
		t.Fatalf("first Commit: %v", err)
	}

	req.Client.Name = "Dave"
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Overlapping but not identical start also conflicts.
	req.StartMinute = 630
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("expected ErrConflict for overlap, got %v", err)
	}
}

func TestCommitOutsideWindow(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	req := booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: 480, // 08:00, before opening
		Client:      schedule.ClientContact{Name: "Carol"},
	}
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrOutOfWindow) {
		t.Fatalf("expected ErrOutOfWindow before opening, got %v", err)
	}

	// Off the step grid.
	req.StartMinute = 585 // 09:45
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrOutOfWindow) {
		t.Fatalf("expected ErrOutOfWindow off grid, got %v", err)
	}

	// Closed day.
	req.StartMinute = 600
	req.Date = monday.AddDate(0, 0, 6)
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrOutOfWindow) {
		t.Fatalf("expected ErrOutOfWindow on closed day, got %v", err)
	}
}

func TestCommitAfterHoursChange(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	slots, err := engine.ListSlots(ctx, bizID, empA, svcCut, monday)
	if err != nil || len(slots) == 0 {
		t.Fatalf("ListSlots: %v (%d slots)", err, len(slots))
	}
	start := slots[0].StartMinute

	// The business shortens Monday before the client commits; the previously
	// offered slot must be rejected, not silently booked.
	week := schedule.ClosedWeek()
	week[schedule.Monday] = schedule.DayRule{Open: 780, Close: 1020} // 13:00-17:00
	profiles.SetBusinessHours(bizID, week)

	_, err = engine.Commit(ctx, booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: start,
		Client:      schedule.ClientContact{Name: "Carol"},
	})
	if !errors.Is(err, booking.ErrOutOfWindow) {
		t.Fatalf("expected ErrOutOfWindow after hours change, got %v", err)
	}
}

func TestCommitValidation(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	base := booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: 600,
		Client:      schedule.ClientContact{Name: "Carol"},
	}

	req := base
	req.EmployeeID = ""
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrInvalidInput) {
		t.Fatalf("missing employee: expected ErrInvalidInput, got %v", err)
	}

	req = base
	req.Client.Name = "   "
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrInvalidInput) {
		t.Fatalf("blank client name: expected ErrInvalidInput, got %v", err)
	}

	req = base
	req.StartMinute = schedule.EndOfDay
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrInvalidInput) {
		t.Fatalf("start at end of day: expected ErrInvalidInput, got %v", err)
	}

	req = base
	req.ServiceID = "svc-missing"
	if _, err := engine.Commit(ctx, req); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("unknown service: expected ErrNotFound, got %v", err)
	}
}

func TestCommitConcurrentSingleWinner(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	const racers = 16
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Commit(ctx, booking.CommitRequest{
				BusinessID:  bizID,
				EmployeeID:  empA,
				ServiceID:   svcCut,
				Date:        monday,
				StartMinute: 600,
				Client:      schedule.ClientContact{Name: "Racer"},
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, booking.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestCancelFreesSlot(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	res, err := engine.Commit(ctx, booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: 600,
		Client:      schedule.ClientContact{Name: "Carol"},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	cancelled, err := engine.Cancel(ctx, bizID, res.ID, "client request")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != schedule.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Fatal("expected CancelledAt to be set")
	}

	// Cancelling again is a no-op, not an error.
	if _, err := engine.Cancel(ctx, bizID, res.ID, ""); err != nil {
		t.Fatalf("second Cancel: %v", err)
	}

	// The slot is bookable again.
	if _, err := engine.Commit(ctx, booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: 600,
		Client:      schedule.ClientContact{Name: "Dave"},
	}); err != nil {
		t.Fatalf("Commit after cancel: %v", err)
	}

	if _, err := engine.Cancel(ctx, bizID, "res-unknown", ""); !errors.Is(err, booking.ErrNotFound) {
		t.Fatalf("unknown reservation: expected ErrNotFound, got %v", err)
	}
}

func TestPendingPolicy(t *testing.T) {
	profiles, reservations := newFixture()
	policy := booking.DefaultPolicy()
	policy.InitialStatus = schedule.StatusPending
	policy.PendingBlocks = false
	engine := booking.NewEngine(profiles, reservations, policy, nil)
	ctx := context.Background()

	res, err := engine.Commit(ctx, booking.CommitRequest{
		BusinessID:  bizID,
		EmployeeID:  empA,
		ServiceID:   svcCut,
		Date:        monday,
		StartMinute: 600,
		Client:      schedule.ClientContact{Name: "Carol"},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Status != schedule.StatusPending {
		t.Fatalf("status = %s, want pending", res.Status)
	}

	// With pending not blocking, the slot is still offered.
	slots, err := engine.ListSlots(ctx, bizID, empA, svcCut, monday)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	found := false
	for _, s := range slots {
		if s.StartMinute == 600 {
			found = true
		}
	}
	if !found {
		t.Fatal("non-blocking pending reservation should leave the slot open")
	}
}

func TestPendingCommitOverlapFollowsPolicy(t *testing.T) {
	commitAt := func(engine *booking.Engine, start schedule.Minutes) error {
		_, err := engine.Commit(context.Background(), booking.CommitRequest{
			BusinessID:  bizID,
			EmployeeID:  empA,
			ServiceID:   svcCut,
			Date:        monday,
			StartMinute: start,
			Client:      schedule.ClientContact{Name: "Carol"},
		})
		return err
	}

	// Non-blocking pending: two overlapping pending reservations may coexist.
	profiles, reservations := newFixture()
	policy := booking.DefaultPolicy()
	policy.InitialStatus = schedule.StatusPending
	policy.PendingBlocks = false
	engine := booking.NewEngine(profiles, reservations, policy, nil)

	if err := commitAt(engine, 600); err != nil {
		t.Fatalf("first pending commit: %v", err)
	}
	if err := commitAt(engine, 600); err != nil {
		t.Fatalf("overlapping pending commit with non-blocking policy: %v", err)
	}

	// Blocking pending: the second overlapping commit must lose.
	profiles, reservations = newFixture()
	policy.PendingBlocks = true
	engine = booking.NewEngine(profiles, reservations, policy, nil)

	if err := commitAt(engine, 600); err != nil {
		t.Fatalf("first pending commit: %v", err)
	}
	if err := commitAt(engine, 630); !errors.Is(err, booking.ErrConflict) {
		t.Fatalf("overlapping pending commit with blocking policy: got %v, want conflict", err)
	}
}

func TestDayReservations(t *testing.T) {
	profiles, reservations := newFixture()
	engine := newEngine(profiles, reservations)
	ctx := context.Background()

	for _, start := range []schedule.Minutes{840, 600} {
		if _, err := engine.Commit(ctx, booking.CommitRequest{
			BusinessID:  bizID,
			EmployeeID:  empA,
			ServiceID:   svcCut,
			Date:        monday,
			StartMinute: start,
			Client:      schedule.ClientContact{Name: "Carol"},
		}); err != nil {
			t.Fatalf("Commit at %s: %v", start.Clock(), err)
		}
	}

	list, err := engine.DayReservations(ctx, bizID, empA, monday)
	if err != nil {
		t.Fatalf("DayReservations: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 reservations, got %d", len(list))
	}
	if list[0].StartMinute != 600 || list[1].StartMinute != 840 {
		t.Fatalf("expected ascending start order, got %s then %s", list[0].StartMinute.Clock(), list[1].StartMinute.Clock())
	}
}
