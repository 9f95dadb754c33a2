package slots

import (
	"testing"

	"github.com/bookora/bookora/services/reservation-service/internal/calendar"
	"github.com/bookora/bookora/services/reservation-service/internal/schedule"
)

func TestCandidatesBasic(t *testing.T) {
	w := calendar.Window{Open: 540, Close: 720} // 09:00-12:00
	got := Candidates(w, 60, 30)
	want := []schedule.Minutes{540, 570, 600, 630, 660}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidate[%d] = %s, want %s", i, got[i].Clock(), want[i].Clock())
		}
	}
}

func TestCandidatesLastSlotFlush(t *testing.T) {
	// 11:00 + 60min lands exactly on close and must be included.
	w := calendar.Window{Open: 540, Close: 720}
	got := Candidates(w, 60, 60)
	if len(got) != 3 || got[2] != 660 {
		t.Fatalf("got %v, want last candidate 11:00", got)
	}
}

func TestCandidatesEndOfDayClose(t *testing.T) {
	// A 24:00 close is a real end-of-day bound, not midnight: a 60-minute slot
	// starting at 23:00 fits exactly.
	w := calendar.Window{Open: 1380, Close: schedule.EndOfDay}
	got := Candidates(w, 60, 30)
	if len(got) != 1 || got[0] != 1380 {
		t.Fatalf("got %v, want single candidate 23:00", got)
	}
	if got[0].Clock() != "23:00" {
		t.Fatalf("candidate renders as %q", got[0].Clock())
	}

	// The full 00:00-24:00 day yields a 23:00 last start for a 60-minute slot.
	w = calendar.Window{Open: 0, Close: schedule.EndOfDay}
	got = Candidates(w, 60, 60)
	if len(got) != 24 || got[len(got)-1] != 1380 {
		t.Fatalf("full day: got %d candidates, last %v", len(got), got[len(got)-1])
	}
}

func TestCandidatesDurationExceedsWindow(t *testing.T) {
	w := calendar.Window{Open: 540, Close: 570}
	if got := Candidates(w, 60, 30); got != nil {
		t.Fatalf("expected nil for duration longer than window, got %v", got)
	}
}

func TestCandidatesDegenerateArgs(t *testing.T) {
	w := calendar.Window{Open: 540, Close: 1020}
	if got := Candidates(w, 0, 30); got != nil {
		t.Fatalf("expected nil for zero duration, got %v", got)
	}
	if got := Candidates(w, -15, 30); got != nil {
		t.Fatalf("expected nil for negative duration, got %v", got)
	}
	if got := Candidates(w, 60, 0); got != nil {
		t.Fatalf("expected nil for zero step, got %v", got)
	}
}

func TestCandidatesAscending(t *testing.T) {
	w := calendar.Window{Open: 480, Close: 1080}
	got := Candidates(w, 45, 15)
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("candidates not strictly ascending at %d: %v", i, got)
		}
	}
}
