package schedule

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    Minutes
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"12:30", 750, false},
		{"23:59", 1439, false},
		{"24:00", EndOfDay, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"9:00", 0, true},
		{"09:0a", 0, true},
		{"+9:00", 0, true},
		{"-0:30", 0, true},
		{"0 :15", 0, true},
		{"0900", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := ParseClock(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseClock(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestClockRendering(t *testing.T) {
	if got := Minutes(0).Clock(); got != "00:00" {
		t.Fatalf("Minutes(0).Clock() = %q", got)
	}
	if got := EndOfDay.Clock(); got != "24:00" {
		t.Fatalf("EndOfDay.Clock() = %q", got)
	}
	if got := Minutes(540).Clock(); got != "09:00" {
		t.Fatalf("Minutes(540).Clock() = %q", got)
	}
	// Start-of-day and end-of-day are distinct values.
	if EndOfDay == 0 {
		t.Fatal("EndOfDay must not equal start of day")
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2025-06-09 is a Monday.
	for i, want := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday} {
		date := time.Date(2025, 6, 9+i, 0, 0, 0, 0, time.UTC)
		if got := WeekdayOf(date); got != want {
			t.Errorf("WeekdayOf(%s) = %s, want %s", date.Format("2006-01-02"), got, want)
		}
	}
}

func TestDayRuleValidate(t *testing.T) {
	if err := (DayRule{Open: 540, Close: 1020}).Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
	if err := (DayRule{Closed: true}).Validate(); err != nil {
		t.Fatalf("closed rule rejected: %v", err)
	}
	if err := (DayRule{Open: 1020, Close: 540}).Validate(); err == nil {
		t.Fatal("inverted rule accepted")
	}
	if err := (DayRule{Open: 540, Close: 540}).Validate(); err == nil {
		t.Fatal("empty rule accepted")
	}
	if err := (DayRule{Open: 0, Close: EndOfDay + 1}).Validate(); err == nil {
		t.Fatal("out-of-range rule accepted")
	}
	// Full day open, 00:00 to 24:00, is legal.
	if err := (DayRule{Open: 0, Close: EndOfDay}).Validate(); err != nil {
		t.Fatalf("full-day rule rejected: %v", err)
	}
}

func TestWeekScheduleValidate(t *testing.T) {
	var ws WeekSchedule
	// Zero value is open 00:00-00:00 every day, which must not validate.
	if err := ws.Validate(); err == nil {
		t.Fatal("zero-value schedule accepted")
	}
	if err := ClosedWeek().Validate(); err != nil {
		t.Fatalf("closed week rejected: %v", err)
	}
	ws = ClosedWeek()
	ws[Monday] = DayRule{Open: 540, Close: 1020}
	if err := ws.Validate(); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}
	if got := ws.At(Monday); got.Closed {
		t.Fatal("At(Monday) should be open")
	}
	if got := ws.At(Weekday(9)); !got.Closed {
		t.Fatal("At with out-of-range weekday should be closed")
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	stamp := time.Date(2025, 6, 10, 18, 45, 12, 0, loc)
	got := DateOf(stamp)
	want := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("DateOf = %s, want %s", got, want)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.June || d.Day() != 10 {
		t.Fatalf("ParseDate = %s", d)
	}
	if _, err := ParseDate("10/06/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
	if _, err := ParseDate("2025-13-40"); err == nil {
		t.Fatal("expected error for impossible date")
	}
}
