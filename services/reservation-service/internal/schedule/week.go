package schedule

import (
	"fmt"
	"strconv"
	"time"
)

// Weekday indexes a week Monday=0..Sunday=6, independent of locale and of
// time.Weekday's Sunday-first numbering.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// WeekdayOf maps a calendar date to its Weekday. The mapping is explicit so a
// change in time.Weekday semantics can never shift schedules silently.
func WeekdayOf(date time.Time) Weekday {
	switch date.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Minutes is a minute-of-day clock value. 0 is start-of-day ("00:00") and
// EndOfDay (1440, "24:00") is the exclusive end of the day; the two are never
// interchangeable.
type Minutes int

const EndOfDay Minutes = 24 * 60

// ParseClock parses "HH:MM" (24-hour). "24:00" is accepted and yields EndOfDay.
func ParseClock(s string) (Minutes, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	// Atoi alone would let a sign through ("+9:00"); require bare digits.
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid clock value %q", s)
		}
	}
	h, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	if h == 24 && m == 0 {
		return EndOfDay, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return Minutes(h*60 + m), nil
}

// Clock renders the value as "HH:MM"; EndOfDay renders as "24:00".
func (m Minutes) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

func (m Minutes) Valid() bool {
	return m >= 0 && m <= EndOfDay
}

// DayRule is one weekday's open/close envelope. If Closed is true, Open and
// Close are meaningless.
type DayRule struct {
	Open   Minutes
	Close  Minutes
	Closed bool
}

func (r DayRule) Validate() error {
	if r.Closed {
		return nil
	}
	if !r.Open.Valid() || !r.Close.Valid() {
		return fmt.Errorf("day rule out of range: open=%d close=%d", r.Open, r.Close)
	}
	if r.Open >= r.Close {
		return fmt.Errorf("day rule inverted: open %s not before close %s", r.Open.Clock(), r.Close.Clock())
	}
	return nil
}

// WeekSchedule holds exactly one rule per weekday. A fixed-size array makes a
// "missing day" unrepresentable; the zero value is open 00:00-00:00, which
// Validate rejects, so schedules must be populated explicitly.
type WeekSchedule [7]DayRule

func (ws WeekSchedule) At(d Weekday) DayRule {
	if d < Monday || d > Sunday {
		return DayRule{Closed: true}
	}
	return ws[d]
}

func (ws WeekSchedule) Validate() error {
	for d := Monday; d <= Sunday; d++ {
		if err := ws[d].Validate(); err != nil {
			return fmt.Errorf("%s: %w", d, err)
		}
	}
	return nil
}

// ClosedWeek is a WeekSchedule with every day closed, the default for
// employees whose hours were never configured.
func ClosedWeek() WeekSchedule {
	var ws WeekSchedule
	for d := Monday; d <= Sunday; d++ {
		ws[d] = DayRule{Closed: true}
	}
	return ws
}

// DateOf normalizes a timestamp to its civil date at midnight UTC. All
// date-keyed lookups in the engine go through this so that wall-clock
// components can never leak into date comparisons.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a civil date in "2006-01-02" form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
