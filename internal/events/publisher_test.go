package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedura-ai/booking-assistant/internal/model"
)

type fakeJetStream struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeJetStream) Publish(_ context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.subject = subject
	f.data = data
	return &jetstream.PubAck{Stream: StreamName, Sequence: 7}, nil
}

func TestPublisher_PublishBooking(t *testing.T) {
	js := &fakeJetStream{}
	p := NewPublisher(js)
	p.now = func() time.Time { return time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC) }

	start := time.Date(2025, 1, 10, 4, 30, 0, 0, time.UTC)
	rec := model.BookingRecord{
		UserName:    "Alice",
		UserEmail:   "alice@example.com",
		ServiceName: "Haircut",
		Date:        "2025-01-10",
		Time:        "10:00",
	}
	event := &model.BookingEvent{
		CalendarEventID: "evt-1",
		Booking:         rec,
		StartsAt:        start,
		EndsAt:          start.Add(time.Hour),
	}

	seq, err := p.PublishBooking(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
	assert.Equal(t, "booking.created", js.subject)

	var got model.BookingEvent
	require.NoError(t, json.Unmarshal(js.data, &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, event.ID, got.ID)
	assert.True(t, got.CreatedAt.Equal(time.Date(2025, 1, 9, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, model.EventTypeBookingCreated, got.Type)
	assert.Equal(t, "evt-1", got.CalendarEventID)
	assert.Equal(t, "Haircut", got.Booking.ServiceName)
	assert.True(t, got.StartsAt.Equal(start))
}

func TestPublisher_PublishError(t *testing.T) {
	p := NewPublisher(&fakeJetStream{err: errors.New("no responders")})

	_, err := p.PublishBooking(context.Background(), &model.BookingEvent{CalendarEventID: "evt-1"})
	assert.ErrorContains(t, err, "no responders")
}
