package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer drains the catalog queue into an audit log file, one line per
// event.
type Consumer struct {
	URL      string
	Queue    string
	AuditLog string
	Log      *zap.Logger
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.  Messages that cannot be handled are rejected without
// requeue.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("catalog consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.Log.Warn("catalog consumer: reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("catalog consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			// closing the channel ends the deliveries range below
			_ = ch.Close()
		case <-stop:
		}
	}()

	for d := range msgs {
		if err := c.handle(d.Body); err != nil {
			c.Log.Error("catalog consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// handle appends one audit line for the encoded event in body.
func (c *Consumer) handle(body []byte) error {
	var ev CatalogEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Entity == "" || ev.Action == "" {
		return errors.New("event without entity or action")
	}

	if err := os.MkdirAll(filepath.Dir(c.AuditLog), 0o755); err != nil {
		return fmt.Errorf("mkdir audit dir: %w", err)
	}
	f, err := os.OpenFile(c.AuditLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single newline-terminated line.
func FormatAuditLine(ev CatalogEvent) string {
	return fmt.Sprintf("[%s] %s %s | id=%d | restaurant_id=%d | name=%q | actor_id=%d | actor_role=%s\n",
		ev.OccurredAt, ev.Entity, ev.Action, ev.ID, ev.RestaurantID, ev.Name, ev.ActorID, ev.ActorRole)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
