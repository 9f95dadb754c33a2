package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTimeOffCovers(t *testing.T) {
	p := TimeOffPeriod{
		StartDate: date(2025, 6, 10),
		EndDate:   date(2025, 6, 12),
	}
	cases := []struct {
		day  time.Time
		want bool
	}{
		{date(2025, 6, 9), false},
		{date(2025, 6, 10), true},
		{date(2025, 6, 11), true},
		{date(2025, 6, 12), true},
		{date(2025, 6, 13), false},
	}
	for _, c := range cases {
		if got := p.Covers(c.day); got != c.want {
			t.Errorf("Covers(%s) = %v, want %v", c.day.Format("2006-01-02"), got, c.want)
		}
	}
	// A timestamp within a covered day still counts.
	if !p.Covers(time.Date(2025, 6, 12, 23, 59, 0, 0, time.UTC)) {
		t.Fatal("end-of-day timestamp on the last day should be covered")
	}
}

func TestEmployeeOnTimeOff(t *testing.T) {
	emp := Employee{
		TimeOff: []TimeOffPeriod{
			{StartDate: date(2025, 6, 10), EndDate: date(2025, 6, 12)},
			{StartDate: date(2025, 7, 1), EndDate: date(2025, 7, 1)},
		},
	}
	if !emp.OnTimeOff(date(2025, 6, 11)) {
		t.Fatal("expected on time off 2025-06-11")
	}
	if !emp.OnTimeOff(date(2025, 7, 1)) {
		t.Fatal("expected on time off for single-day period")
	}
	if emp.OnTimeOff(date(2025, 6, 13)) {
		t.Fatal("expected working 2025-06-13")
	}
}

func TestBreaksOn(t *testing.T) {
	emp := Employee{
		Breaks: []Break{
			{ID: "b1", Weekday: Monday, Start: 720, End: 780},
			{ID: "b2", Weekday: Friday, Start: 600, End: 630},
			{ID: "b3", Weekday: Monday, Start: 900, End: 915},
		},
	}
	monday := emp.BreaksOn(Monday)
	if len(monday) != 2 {
		t.Fatalf("expected 2 Monday breaks, got %d", len(monday))
	}
	if len(emp.BreaksOn(Sunday)) != 0 {
		t.Fatal("expected no Sunday breaks")
	}
}

func TestAssignmentFor(t *testing.T) {
	dur := 45
	emp := Employee{
		Assignments: []Assignment{
			{ServiceID: "svc-1", EmployeeID: "e1", DurationMinutes: &dur, Available: true},
		},
	}
	a, ok := emp.AssignmentFor("svc-1")
	if !ok {
		t.Fatal("expected assignment for svc-1")
	}
	if a.DurationMinutes == nil || *a.DurationMinutes != 45 {
		t.Fatalf("unexpected override: %+v", a)
	}
	if _, ok := emp.AssignmentFor("svc-2"); ok {
		t.Fatal("expected no assignment for svc-2")
	}
}
