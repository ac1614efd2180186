package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/schedura-ai/booking-assistant/internal/model"
	"github.com/schedura-ai/booking-assistant/pkg/metrics"
)

const (
	// StreamName is the name of the bookings stream.
	StreamName = "BOOKINGS"

	// SubjectPrefix is the prefix for all booking subjects.
	SubjectPrefix = "booking"
)

// JetStreamPublisher is the subset of jetstream.JetStream used to publish.
type JetStreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher writes booking events to the bookings stream.
type Publisher struct {
	js  JetStreamPublisher
	now func() time.Time
}

// NewPublisher creates a publisher on top of a JetStream context.
func NewPublisher(js JetStreamPublisher) *Publisher {
	return &Publisher{js: js, now: time.Now}
}

// EnsureStream creates the bookings stream if it does not exist yet.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Confirmed bookings",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// Subject returns the subject an event type is published on.
func Subject(t model.EventType) string {
	return string(t)
}

// PublishBooking publishes a booking event and returns its stream sequence.
// A missing ID or creation time is filled in. The event ID is used as the
// message ID so JetStream drops duplicates.
func (p *Publisher) PublishBooking(ctx context.Context, event *model.BookingEvent) (uint64, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Type == "" {
		event.Type = model.EventTypeBookingCreated
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = p.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	start := time.Now()
	ack, err := p.js.Publish(ctx, Subject(event.Type), data, jetstream.WithMsgID(event.ID))
	metrics.RecordExternalCall("nats", "publish", err, time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}
