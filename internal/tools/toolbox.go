// Package tools implements the business operations the model can call.
// Failures are returned as data so the conversation can carry on.
package tools

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/schedura-ai/booking-assistant/internal/availability"
	"github.com/schedura-ai/booking-assistant/internal/business"
	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/internal/notify"
	"github.com/schedura-ai/booking-assistant/pkg/logger"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
	"github.com/schedura-ai/booking-assistant/pkg/tracing"
)

// DateLayout is the expected format of date arguments.
const DateLayout = "2006-01-02"

// ConfigProvider loads the business document.
type ConfigProvider interface {
	Load(ctx context.Context) (*business.Config, error)
}

// Calendar reads busy time and creates appointment events.
type Calendar interface {
	ListBusy(ctx context.Context, from, to time.Time) ([]availability.BusyInterval, error)
	Insert(ctx context.Context, appt model.Appointment) (string, error)
}

// Ledger records confirmed bookings.
type Ledger interface {
	Append(ctx context.Context, rec model.BookingRecord) error
}

// Notifier sends confirmation emails.
type Notifier interface {
	SendConfirmation(ctx context.Context, c notify.Confirmation) error
}

// Publisher announces confirmed bookings.
type Publisher interface {
	PublishBooking(ctx context.Context, event *model.BookingEvent) (uint64, error)
}

// Options holds optional toolbox settings.
type Options struct {
	// Location is used when the business document names no timezone.
	Location *time.Location
	// SlotDuration is the length of offered slots. Defaults to one hour.
	SlotDuration time.Duration
	// Events, when set, receives a booking.created event after each booking.
	Events Publisher
	Logger *logger.Logger
	Now    func() time.Time
}

// Toolbox runs the tool operations against the configured gateways.
type Toolbox struct {
	config   ConfigProvider
	calendar Calendar
	ledger   Ledger
	notifier Notifier
	events   Publisher

	location     *time.Location
	slotDuration time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

// New creates a toolbox.
func New(config ConfigProvider, calendar Calendar, ledger Ledger, notifier Notifier, opts Options) *Toolbox {
	t := &Toolbox{
		config:       config,
		calendar:     calendar,
		ledger:       ledger,
		notifier:     notifier,
		events:       opts.Events,
		location:     opts.Location,
		slotDuration: opts.SlotDuration,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if t.location == nil {
		t.location = time.UTC
	}
	if t.slotDuration <= 0 {
		t.slotDuration = time.Hour
	}
	if t.logger == nil {
		t.logger = logger.Global()
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// GetAvailableServices returns the service catalog.
func (t *Toolbox) GetAvailableServices(ctx context.Context) ([]business.Service, error) {
	ctx, span := tracing.Start(ctx, "tools.get_available_services")

	cfg, err := t.config.Load(ctx)
	tracing.End(span, err)
	if err != nil {
		metrics.RecordToolCall(ToolGetAvailableServices, "error")
		return nil, err
	}

	metrics.RecordToolCall(ToolGetAvailableServices, "success")
	services := make([]business.Service, len(cfg.Services))
	copy(services, cfg.Services)
	return services, nil
}

// GetAvailableSlots returns the free slot starts on date (YYYY-MM-DD) as HH:MM
// strings in business-local time.
func (t *Toolbox) GetAvailableSlots(ctx context.Context, date string) ([]string, error) {
	ctx, span := tracing.Start(ctx, "tools.get_available_slots", attribute.String("date", date))

	slots, err := t.availableSlots(ctx, date)
	tracing.End(span, err)
	if err != nil {
		metrics.RecordToolCall(ToolGetAvailableSlots, "error")
		return nil, err
	}

	metrics.RecordToolCall(ToolGetAvailableSlots, "success")
	return slots, nil
}

func (t *Toolbox) availableSlots(ctx context.Context, date string) ([]string, error) {
	cfg, err := t.config.Load(ctx)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location(t.location)

	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}

	open, close, err := cfg.BusinessHours.Bounds()
	if err != nil {
		return nil, err
	}
	from, to := availability.Window(day, open, close, loc)

	busy, err := t.calendar.ListBusy(ctx, from, to)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("Computing free slots",
		zap.String("date", date),
		zap.Int("busy_intervals", len(busy)))

	return availability.ComputeFreeSlots(day, open, close, loc, t.slotDuration, busy), nil
}

// DescribeServicesError is the message shown for a failed catalog read.
func DescribeServicesError(err error) string {
	return fmt.Sprintf("Error reading services: %v", err)
}

// DescribeSlotsError is the message shown for a failed slot lookup.
func DescribeSlotsError(err error) string {
	return fmt.Sprintf("Error getting slots: %v", err)
}
