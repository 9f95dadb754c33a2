// Package occupancy removes candidate start times that collide with an
// employee's recurring breaks or existing reservations.
package occupancy

import (
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

// Filter returns the candidates whose [t, t+duration) interval overlaps no
// break on the given weekday and no occupying reservation. Intervals are
// half-open, so a reservation ending exactly at t does not block a candidate
// starting at t. Ordering is preserved; each candidate is wholly kept or
// wholly dropped. Filtering is idempotent.
func Filter(candidates []schedule.Minutes, durationMins int, weekday schedule.Weekday, breaks []schedule.Break, reservations []schedule.Reservation, pendingBlocks bool) []schedule.Minutes {
	if len(candidates) == 0 {
		return nil
	}

	busy := make([]span, 0, len(breaks)+len(reservations))
	for _, b := range breaks {
		if b.Weekday != weekday {
			continue
		}
		busy = append(busy, span{start: b.Start, end: b.End})
	}
	for _, r := range reservations {
		if !r.Occupies(pendingBlocks) {
			continue
		}
		busy = append(busy, span{start: r.StartMinute, end: r.EndMinute()})
	}

	out := make([]schedule.Minutes, 0, len(candidates))
	for _, t := range candidates {
		if overlapsAny(t, t+schedule.Minutes(durationMins), busy) {
			continue
		}
		out = append(out, t)
	}
	return out
}

type span struct {
	start schedule.Minutes
	end   schedule.Minutes
}

func overlapsAny(start, end schedule.Minutes, busy []span) bool {
	for _, b := range busy {
		// Half-open: [start,end) overlaps [b.start,b.end) iff start < b.end && b.start < end.
		if start < b.end && b.start < end {
			return true
		}
	}
	return false
}
