// Package calendar resolves which hours, if any, an employee is bookable on a
// given calendar date. It is pure computation over profile data.
package calendar

import (
	"time"

	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

// Window is the effective bookable envelope for one employee on one date:
// business hours intersected with the employee's personal hours.
type Window struct {
	Open  schedule.Minutes
	Close schedule.Minutes
}

func (w Window) Span() int {
	return int(w.Close - w.Open)
}

// ResolveDay returns the day window for an employee on a date, or ok=false if
// the day is closed: business closed, employee not working, an empty
// intersection of the two, or the employee on time off. Business hours are an
// upper bound; an employee cannot be bookable outside them.
func ResolveDay(business schedule.WeekSchedule, emp schedule.Employee, date time.Time) (Window, bool) {
	wd := schedule.WeekdayOf(date)

	bizRule := business.At(wd)
	if bizRule.Closed {
		return Window{}, false
	}
	empRule := emp.Weekly.At(wd)
	if empRule.Closed {
		return Window{}, false
	}

	open := maxMinutes(bizRule.Open, empRule.Open)
	close := minMinutes(bizRule.Close, empRule.Close)
	if open >= close {
		return Window{}, false
	}

	if emp.OnTimeOff(date) {
		return Window{}, false
	}

	return Window{Open: open, Close: close}, true
}

func maxMinutes(a, b schedule.Minutes) schedule.Minutes {
	if a > b {
		return a
	}
	return b
}

func minMinutes(a, b schedule.Minutes) schedule.Minutes {
	if a < b {
		return a
	}
	return b
}
