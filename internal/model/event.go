package model

import (
	"time"
)

// EventType represents the type of booking event.
type EventType string

const (
	EventTypeBookingCreated EventType = "booking.created"
)

// BookingEvent is published after a booking has been written to the calendar
// and the ledger.
type BookingEvent struct {
	ID              string        `json:"id"`
	Type            EventType     `json:"type"`
	CalendarEventID string        `json:"calendar_event_id"`
	Booking         BookingRecord `json:"booking"`
	StartsAt        time.Time     `json:"starts_at"`
	EndsAt          time.Time     `json:"ends_at"`
	CreatedAt       time.Time     `json:"created_at"`
}
