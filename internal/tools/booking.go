package tools

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/schedura-ai/booking-assistant/internal/business"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/internal/notify"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
	"github.com/schedura-ai/booking-assistant/pkg/tracing"
)

// BookingRequest carries the model-supplied booking arguments.
type BookingRequest struct {
	ServiceName string
	Date        string
	Time        string
	UserName    string
	UserEmail   string
}

// BookingFromArgs builds a request from tool-call arguments.
func BookingFromArgs(args map[string]string) BookingRequest {
	return BookingRequest{
		ServiceName: strings.TrimSpace(args[ArgServiceName]),
		Date:        strings.TrimSpace(args[ArgDate]),
		Time:        strings.TrimSpace(args[ArgTime]),
		UserName:    strings.TrimSpace(args[ArgUserName]),
		UserEmail:   strings.TrimSpace(args[ArgUserEmail]),
	}
}

// missingFields lists the identity fields that are absent or unusable.
func (r BookingRequest) missingFields() []string {
	var missing []string
	if r.UserName == "" {
		missing = append(missing, ArgUserName)
	}
	if r.UserEmail == "" {
		missing = append(missing, ArgUserEmail)
	} else if _, err := mail.ParseAddress(r.UserEmail); err != nil {
		missing = append(missing, ArgUserEmail+" (not a valid address)")
	}
	return missing
}

// BookAppointment books the requested service and returns a confirmation or an
// error sentence. Nothing is written unless the service exists, the date and
// time parse, and the user name and email are present.
//
// The calendar insert, ledger append and email are sent in that order. A
// later step failing does not undo an earlier one.
func (t *Toolbox) BookAppointment(ctx context.Context, req BookingRequest) string {
	ctx, span := tracing.Start(ctx, "tools.book_appointment",
		attribute.String("service", req.ServiceName),
		attribute.String("date", req.Date),
		attribute.String("time", req.Time),
	)
	defer span.End()

	result, outcome := t.book(ctx, req)
	metrics.RecordBooking(outcome)
	if outcome == "booked" || outcome == "booked_without_email" {
		metrics.RecordToolCall(ToolBookAppointment, "success")
	} else {
		metrics.RecordToolCall(ToolBookAppointment, "error")
	}
	span.SetAttributes(attribute.String("outcome", outcome))
	return result
}

func (t *Toolbox) book(ctx context.Context, req BookingRequest) (string, string) {
	if missing := req.missingFields(); len(missing) > 0 {
		return fmt.Sprintf("Error: Missing required booking details: %s.", strings.Join(missing, ", ")), "invalid"
	}

	cfg, err := t.config.Load(ctx)
	if err != nil {
		return fmt.Sprintf("Error booking appointment: %v", err), "failed"
	}

	svc, err := cfg.FindService(req.ServiceName)
	if err != nil {
		if errors.Is(err, business.ErrServiceNotFound) {
			return fmt.Sprintf("Error: Service '%s' not found.", req.ServiceName), "invalid"
		}
		return fmt.Sprintf("Error booking appointment: %v", err), "failed"
	}

	loc := cfg.Location(t.location)
	start, err := time.ParseInLocation(DateLayout+" 15:04", req.Date+" "+req.Time, loc)
	if err != nil {
		return fmt.Sprintf("Error: Invalid date or time '%s %s'. Use YYYY-MM-DD and HH:MM.", req.Date, req.Time), "invalid"
	}
	end := start.Add(svc.Duration())

	eventID, err := t.calendar.Insert(ctx, model.Appointment{
		ServiceName: svc.Name,
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		Start:       start,
		End:         end,
	})
	if err != nil {
		t.logger.Error("Calendar insert failed", zap.Error(err))
		return fmt.Sprintf("Error booking appointment: %v", err), "failed"
	}

	rec := model.BookingRecord{
		CreatedAt:   t.now(),
		UserName:    req.UserName,
		UserEmail:   req.UserEmail,
		ServiceName: svc.Name,
		Date:        req.Date,
		Time:        req.Time,
	}
	if err := t.ledger.Append(ctx, rec); err != nil {
		t.logger.Error("Ledger append failed after calendar insert",
			zap.String("calendar_event_id", eventID),
			zap.Error(err))
		return fmt.Sprintf("Error booking appointment: %v", err), "failed"
	}

	emailed := true
	err = t.notifier.SendConfirmation(ctx, notify.Confirmation{
		BusinessName: cfg.BusinessName,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		ServiceName:  svc.Name,
		Date:         req.Date,
		Time:         req.Time,
	})
	if err != nil {
		emailed = false
		t.logger.Warn("Confirmation email failed",
			zap.String("calendar_event_id", eventID),
			zap.Error(err))
	}

	t.publish(ctx, eventID, rec, start, end)

	t.logger.Info("Appointment booked",
		zap.String("calendar_event_id", eventID),
		zap.String("service", svc.Name),
		zap.Time("start", start))

	if !emailed {
		return fmt.Sprintf("Appointment confirmed for %s on %s at %s, but the confirmation email could not be sent.",
			svc.Name, req.Date, req.Time), "booked_without_email"
	}
	return fmt.Sprintf("Appointment confirmed for %s on %s at %s. A confirmation email has been sent.",
		svc.Name, req.Date, req.Time), "booked"
}

func (t *Toolbox) publish(ctx context.Context, eventID string, rec model.BookingRecord, start, end time.Time) {
	if t.events == nil {
		return
	}
	_, err := t.events.PublishBooking(ctx, &model.BookingEvent{
		Type:            model.EventTypeBookingCreated,
		CalendarEventID: eventID,
		Booking:         rec,
		StartsAt:        start.UTC(),
		EndsAt:          end.UTC(),
	})
	if err != nil {
		t.logger.Warn("Booking event publish failed",
			zap.String("calendar_event_id", eventID),
			zap.Error(err))
	}
}
