package schedule

import "time"

// TimeOffPeriod blocks an employee for whole days, bounds inclusive.
type TimeOffPeriod struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}

func (p TimeOffPeriod) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(p.StartDate)) && !d.After(DateOf(p.EndDate))
}

// Break is a recurring weekly pause in an employee's day, e.g. lunch.
type Break struct {
	ID         string
	EmployeeID string
	Weekday    Weekday
	Start      Minutes
	End        Minutes
	Reason     string
}

// Service is a business catalogue entry. DurationMinutes and Price are the
// defaults applied when an employee has no per-service override.
type Service struct {
	ID              string
	BusinessID      string
	Name            string
	DurationMinutes int
	Price           string
	Description     string
}

// Assignment links an employee to a service they may perform, with optional
// duration/price overrides. Nil override means "use the service default".
type Assignment struct {
	EmployeeID      string
	ServiceID       string
	DurationMinutes *int
	Price           *string
	Available       bool
}

type Employee struct {
	ID          string
	BusinessID  string
	Name        string
	Role        string
	Weekly      WeekSchedule
	TimeOff     []TimeOffPeriod
	Breaks      []Break
	Assignments []Assignment
}

func (e Employee) OnTimeOff(date time.Time) bool {
	for _, p := range e.TimeOff {
		if p.Covers(date) {
			return true
		}
	}
	return false
}

func (e Employee) BreaksOn(d Weekday) []Break {
	var out []Break
	for _, b := range e.Breaks {
		if b.Weekday == d {
			out = append(out, b)
		}
	}
	return out
}

// AssignmentFor returns the employee's assignment for a service, if any.
func (e Employee) AssignmentFor(serviceID string) (Assignment, bool) {
	for _, a := range e.Assignments {
		if a.ServiceID == serviceID {
			return a, true
		}
	}
	return Assignment{}, false
}
