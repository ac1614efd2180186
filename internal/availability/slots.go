// Package availability turns busy calendar intervals into free appointment slots.
package availability

import (
	"time"

	"github.com/schedura-ai/booking-assistant/internal/business"
)

// SlotLayout is the display format of a slot start.
const SlotLayout = "15:04"

// BusyInterval is an occupied span taken from the calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Window returns the opening and closing instants of date's business day in loc.
func Window(date time.Time, open, close business.Clock, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	return open.On(y, m, d, loc), close.On(y, m, d, loc)
}

// ComputeFreeSlots lists the starts of slotDuration-long slots between open and
// close on date that do not overlap any busy interval.
//
// Slot boundaries are built in loc and every comparison is made on UTC instants,
// so busy intervals may carry any offset. A slot that would run past closing is
// not offered. Intervals that only touch a slot boundary do not block it.
func ComputeFreeSlots(date time.Time, open, close business.Clock, loc *time.Location, slotDuration time.Duration, busy []BusyInterval) []string {
	slots := make([]string, 0)
	if slotDuration <= 0 {
		return slots
	}

	dayStart, dayEnd := Window(date, open, close, loc)
	closing := dayEnd.UTC()

	normalized := make([]BusyInterval, 0, len(busy))
	for _, b := range busy {
		normalized = append(normalized, BusyInterval{Start: b.Start.UTC(), End: b.End.UTC()})
	}

	for start := dayStart; ; start = start.Add(slotDuration) {
		slotStart := start.UTC()
		slotEnd := slotStart.Add(slotDuration)
		if !slotStart.Before(closing) || slotEnd.After(closing) {
			break
		}

		if !overlapsAny(slotStart, slotEnd, normalized) {
			slots = append(slots, start.In(loc).Format(SlotLayout))
		}
	}

	return slots
}

// overlapsAny reports whether [start, end) intersects any interval over a
// non-empty span.
func overlapsAny(start, end time.Time, busy []BusyInterval) bool {
	for _, b := range busy {
		if latest(start, b.Start).Before(earliest(end, b.End)) {
			return true
		}
	}
	return false
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
