package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/arunika0/menu/internal/metrics"
)

// Publisher sends catalog events somewhere.  Handlers call it after a
// successful write and never fail the request because of it.
type Publisher interface {
	Publish(ctx context.Context, ev CatalogEvent) error
}

// Nop discards every event.  It is used when events are disabled.
type Nop struct{}

func (Nop) Publish(context.Context, CatalogEvent) error { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable queue via
// the default exchange.  Each publish opens its own connection, which is
// fine for the low write volume of catalog administration.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url, queue string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: queue}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev CatalogEvent) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.EventsPublished.WithLabelValues(outcome).Inc()
	}()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err = ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}
