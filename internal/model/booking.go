package model

import (
	"time"
)

// Appointment is a calendar entry about to be created.
type Appointment struct {
	ServiceName string
	UserName    string
	UserEmail   string
	Start       time.Time
	End         time.Time
}

// Summary is the calendar event title.
func (a Appointment) Summary() string {
	return a.ServiceName + " for " + a.UserName
}

// BookingRecord is one ledger row.
type BookingRecord struct {
	CreatedAt   time.Time `json:"created_at"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	ServiceName string    `json:"service_name"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
}

// Row returns the ledger columns in their fixed order.
func (r BookingRecord) Row() []any {
	return []any{
		r.CreatedAt.Format(time.RFC3339),
		r.UserName,
		r.UserEmail,
		r.ServiceName,
		r.Date,
		r.Time,
	}
}
