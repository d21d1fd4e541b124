package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/vexeviet/seat-hold/internal/logger"
)

// ConsumerConfig configures StartHoldEventConsumer.
type ConsumerConfig struct {
	URL     string // AMQP URL
	Queue   string // durable queue to consume
	LogPath string // file each event is appended to
}

// StartHoldEventConsumer consumes hold events and appends one line per
// event to cfg.LogPath.  It reconnects with backoff until ctx is done,
// then returns ctx.Err().  Malformed messages are rejected without
// requeue.
func StartHoldEventConsumer(ctx context.Context, cfg ConsumerConfig, log *logger.Logger) error {
	if log == nil {
		log = logger.GetDefault()
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.WithError(err).Warn("hold-event consumer: dial failed", "retry_in", backoff.String())
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("hold-event consumer: loop ended, reconnecting")
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, log *logger.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("hold-event consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := appendEvent(cfg.LogPath, d.Body); err != nil {
				log.WithError(err).Warn("hold-event consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func appendEvent(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return handleMessage(body, f)
}

// handleMessage decodes one HoldEvent and writes its log line to w.
func handleMessage(body []byte, w io.Writer) error {
	var ev HoldEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.HoldID == "" {
		return errors.New("event without type or hold_id")
	}
	if _, err := io.WriteString(w, FormatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatEvent renders ev as a single log line.
func FormatEvent(ev HoldEvent) string {
	return fmt.Sprintf("[%s] %s | hold_id=%s | route_id=%s | date=%s | seats=[%s] | expires_at=%s\n",
		ev.OccurredAt, ev.Type, ev.HoldID, ev.RouteID, ev.DepartureDate, strings.Join(ev.Seats, ","), ev.ExpiresAt)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
