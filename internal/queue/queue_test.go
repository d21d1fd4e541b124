package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/model"
	"github.com/vexeviet/seat-hold/internal/seathold"
)

var (
	expiry = time.Date(2026, 10, 20, 7, 10, 0, 0, time.UTC)
	held   = model.Hold{HoldID: "h-1", ExpiresAt: expiry, Seats: []string{"A1", "A2"}, RouteID: "R1", DepartureDate: "2026-10-20"}
)

func TestHoldEventFor(t *testing.T) {
	at := expiry.Add(-10 * time.Minute)
	tests := []struct {
		cause seathold.Cause
		want  string
	}{
		{seathold.CauseHeld, EventHoldCreated},
		{seathold.CauseExpired, EventHoldExpired},
		{seathold.CauseReleased, EventHoldReleased},
		{seathold.CauseCleared, EventHoldCleared},
	}
	for _, tt := range tests {
		ev, ok := HoldEventFor(seathold.Snapshot{Cause: tt.cause, Hold: held, HasHold: true, At: at})
		require.True(t, ok, tt.cause)
		assert.Equal(t, HoldEvent{
			Type:          tt.want,
			HoldID:        "h-1",
			RouteID:       "R1",
			DepartureDate: "2026-10-20",
			Seats:         []string{"A1", "A2"},
			ExpiresAt:     "2026-10-20T07:10:00Z",
			OccurredAt:    "2026-10-20T07:00:00Z",
		}, ev)
	}

	for _, c := range []seathold.Cause{seathold.CauseTick, seathold.CauseHolding, seathold.CauseReleasing, seathold.CauseRejected} {
		_, ok := HoldEventFor(seathold.Snapshot{Cause: c, Hold: held, HasHold: true})
		assert.False(t, ok, c)
	}
	_, ok := HoldEventFor(seathold.Snapshot{Cause: seathold.CauseCleared})
	assert.False(t, ok, "clearing nothing is not an event")
}

func TestHandleMessageFormatsLine(t *testing.T) {
	ev, _ := HoldEventFor(seathold.Snapshot{Cause: seathold.CauseHeld, Hold: held, HasHold: true, At: expiry.Add(-10 * time.Minute)})
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, handleMessage(body, &buf))
	assert.Equal(t,
		"[2026-10-20T07:00:00Z] hold.created | hold_id=h-1 | route_id=R1 | date=2026-10-20 | seats=[A1,A2] | expires_at=2026-10-20T07:10:00Z\n",
		buf.String())
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, handleMessage([]byte("not json"), &buf))
	assert.Error(t, handleMessage([]byte(`{"type":"hold.created"}`), &buf))
	assert.Empty(t, buf.String())
}

func TestAppendEventCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hold_events.log")
	body, _ := json.Marshal(HoldEvent{Type: EventHoldReleased, HoldID: "h-1"})
	require.NoError(t, appendEvent(path, body))
	require.NoError(t, appendEvent(path, body))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(b, []byte("hold.released")))
}

type fakeChannel struct {
	mu   sync.Mutex
	msgs []amqp.Publishing
	keys []string
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, exchange+"|"+key)
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisherSendsPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "seat.hold.events"}

	require.NoError(t, p.PublishJSON(context.Background(), HoldEvent{Type: EventHoldCreated, HoldID: "h-1"}))
	require.Len(t, ch.msgs, 1)
	assert.Equal(t, "|seat.hold.events", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)
	assert.JSONEq(t, `{"type":"hold.created","hold_id":"h-1","route_id":"","departure_date":"","seats":null,"expires_at":"","occurred_at":""}`, string(ch.msgs[0].Body))
	assert.NoError(t, p.Close())
}

type fakeSubscriber struct {
	fn func(seathold.Snapshot)
}

func (f *fakeSubscriber) Subscribe(fn func(seathold.Snapshot)) func() {
	f.fn = fn
	return func() { f.fn = nil }
}

func TestForwardHoldEvents(t *testing.T) {
	ch := &fakeChannel{}
	sub := &fakeSubscriber{}
	unsubscribe := ForwardHoldEvents(sub, &Publisher{ch: ch, queue: "q"}, time.Second, logger.Discard())

	sub.fn(seathold.Snapshot{Cause: seathold.CauseTick, Hold: held, HasHold: true})
	sub.fn(seathold.Snapshot{Cause: seathold.CauseHeld, Hold: held, HasHold: true, At: expiry})
	ch.err = errors.New("broker gone")
	sub.fn(seathold.Snapshot{Cause: seathold.CauseExpired, Hold: held, HasHold: true, At: expiry})

	require.Len(t, ch.msgs, 1)
	var ev HoldEvent
	require.NoError(t, json.Unmarshal(ch.msgs[0].Body, &ev))
	assert.Equal(t, EventHoldCreated, ev.Type)

	unsubscribe()
	assert.Nil(t, sub.fn)
}
