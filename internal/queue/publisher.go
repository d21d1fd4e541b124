package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vexeviet/seat-hold/internal/logger"
	"github.com/vexeviet/seat-hold/internal/seathold"
)

// channel is the slice of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher keeps one connection and channel open and publishes JSON
// to a durable queue through the default exchange.
type Publisher struct {
	conn  *amqp.Connection
	ch    channel
	queue string
}

// NewPublisher dials url and declares queue (durable).
func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// PublishJSON marshals v and publishes it as a persistent message.
func (p *Publisher) PublishJSON(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// JSONPublisher is anything that can publish a JSON payload.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, v any) error
}

// Subscriber is the observer registration of seathold.Controller.
type Subscriber interface {
	Subscribe(fn func(seathold.Snapshot)) (unsubscribe func())
}

// HoldEventForwarder returns a snapshot observer that publishes a
// HoldEvent for every hold transition.  Publish failures are logged and
// otherwise ignored; the hold flow never waits on the broker for longer
// than timeout.
func HoldEventForwarder(pub JSONPublisher, timeout time.Duration, log *logger.Logger) func(seathold.Snapshot) {
	if log == nil {
		log = logger.GetDefault()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return func(s seathold.Snapshot) {
		ev, ok := HoldEventFor(s)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := pub.PublishJSON(ctx, ev); err != nil {
			log.WithError(err).Warn("publish hold event failed", "type", ev.Type, "hold_id", ev.HoldID)
		}
	}
}

// ForwardHoldEvents subscribes a HoldEventForwarder to ctrl.
func ForwardHoldEvents(ctrl Subscriber, pub JSONPublisher, timeout time.Duration, log *logger.Logger) (unsubscribe func()) {
	return ctrl.Subscribe(HoldEventForwarder(pub, timeout, log))
}
