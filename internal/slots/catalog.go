// Package slots generates the bookable day/slot matrix and reconciles it with
// the booked records reported by the scheduling backend.
package slots

import (
	"time"

	"cloud.google.com/go/civil"
)

// ID identifies one of the fixed daily slots. IDs never contain underscores.
type ID string

const (
	Morning  ID = "morning"
	Evening1 ID = "evening1"
	Evening2 ID = "evening2"
)

// Period is the coarse time-of-day bucket a slot belongs to.
type Period string

const (
	PeriodMorning Period = "morning"
	PeriodEvening Period = "evening"
)

// Slot is one fixed daily consultation window.
type Slot struct {
	ID        ID     `json:"id"`
	Label     string `json:"label"`
	TimeRange string `json:"time"`
	Period    Period `json:"period"`
}

var catalog = [...]Slot{
	{ID: Morning, Label: "Morning", TimeRange: "7:00 AM - 8:00 AM", Period: PeriodMorning},
	{ID: Evening1, Label: "Evening", TimeRange: "6:00 PM - 7:00 PM", Period: PeriodEvening},
	{ID: Evening2, Label: "Late Evening", TimeRange: "7:30 PM - 8:30 PM", Period: PeriodEvening},
}

// Catalog returns the ordered slot list offered every day.
func Catalog() []Slot {
	out := make([]Slot, len(catalog))
	copy(out, catalog[:])
	return out
}

// LookupSlot resolves a slot by id.
func LookupSlot(id ID) (Slot, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

// WindowDays is the length of the rolling booking window.
const WindowDays = 3

// Day is one bookable calendar date in the rolling window.
type Day struct {
	Index int
	Date  civil.Date
}

// Label is the short card label, e.g. "Tue, 17 Feb".
func (d Day) Label() string {
	return d.Date.In(time.UTC).Format("Mon, 2 Jan")
}

// Heading is the long form used in confirmations, e.g. "Tuesday, 17 February 2026".
func (d Day) Heading() string {
	return d.Date.In(time.UTC).Format("Monday, 2 January 2006")
}

// Window returns the WindowDays calendar days starting at now's date, in now's location.
func Window(now time.Time) []Day {
	today := civil.DateOf(now)
	days := make([]Day, WindowDays)
	for i := range days {
		days[i] = Day{Index: i, Date: today.AddDays(i)}
	}
	return days
}

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the host wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
