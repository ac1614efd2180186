package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/schedura-ai/booking-assistant/internal/availability"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
)

// Calendar lists and inserts events on one Google calendar.
type Calendar struct {
	svc        *calendar.Service
	calendarID string
}

// NewCalendar creates a calendar gateway. Pass option.WithTokenSource for
// user credentials.
func NewCalendar(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Calendar, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &Calendar{svc: svc, calendarID: calendarID}, nil
}

// ListBusy returns the busy intervals of all events overlapping [from, to).
func (c *Calendar) ListBusy(ctx context.Context, from, to time.Time) ([]availability.BusyInterval, error) {
	start := time.Now()

	var items []*calendar.Event
	err := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	metrics.RecordExternalCall("calendar", "list", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}

	return BusyIntervals(items, from, to)
}

// Insert creates the appointment event and returns its ID.
func (c *Calendar) Insert(ctx context.Context, appt model.Appointment) (string, error) {
	zone := appt.Start.Location().String()
	ev := &calendar.Event{
		Summary: appt.Summary(),
		Start: &calendar.EventDateTime{
			DateTime: appt.Start.Format(time.RFC3339),
			TimeZone: zone,
		},
		End: &calendar.EventDateTime{
			DateTime: appt.End.Format(time.RFC3339),
			TimeZone: zone,
		},
		Attendees: []*calendar.EventAttendee{{Email: appt.UserEmail}},
	}

	start := time.Now()
	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	metrics.RecordExternalCall("calendar", "insert", err, time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return created.Id, nil
}

// BusyIntervals converts calendar events into busy intervals. Cancelled events
// and events marked as free are skipped. All-day events block the whole
// [from, to) window.
func BusyIntervals(items []*calendar.Event, from, to time.Time) ([]availability.BusyInterval, error) {
	busy := make([]availability.BusyInterval, 0, len(items))
	for _, ev := range items {
		if ev == nil || ev.Status == "cancelled" || ev.Transparency == "transparent" {
			continue
		}
		if ev.Start == nil || ev.End == nil {
			continue
		}

		if ev.Start.DateTime == "" {
			busy = append(busy, availability.BusyInterval{Start: from, End: to})
			continue
		}

		s, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return nil, fmt.Errorf("event %s has invalid start %q: %w", ev.Id, ev.Start.DateTime, err)
		}
		e, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			return nil, fmt.Errorf("event %s has invalid end %q: %w", ev.Id, ev.End.DateTime, err)
		}
		busy = append(busy, availability.BusyInterval{Start: s.UTC(), End: e.UTC()})
	}
	return busy, nil
}
