// Package slots enumerates raw candidate start times within a day window.
package slots

import (
	"github.com/bookora/bookora/services/reservation-service/internal/calendar"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

// Candidates returns every start time t = window.Open + k*step such that
// t + duration <= window.Close, ascending. A duration longer than the window
// yields an empty result, never an error. Non-positive duration or step also
// yield nothing.
func Candidates(w calendar.Window, durationMins, stepMins int) []schedule.Minutes {
	if durationMins <= 0 || stepMins <= 0 {
		return nil
	}
	if w.Span() < durationMins {
		return nil
	}

	var out []schedule.Minutes
	for t := w.Open; t+schedule.Minutes(durationMins) <= w.Close; t += schedule.Minutes(stepMins) {
		out = append(out, t)
	}
	return out
}
