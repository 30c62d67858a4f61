package events

import (
	"context"
	"driver-batching-service/internal/platform/obs"
	"driver-batching-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "deliveries"

// confirmBuffer leaves room for confirms of abandoned publishes until the
// next Publish drains them.
const confirmBuffer = 64

// publishChannel is the part of *amqp.Channel the publisher needs.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	GetNextPublishSeqNo() uint64
	Close() error
}

// RabbitPublisher publishes delivery events to a topic exchange, using the
// event type as routing key, and waits for the broker confirm.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       publishChannel
	acks     <-chan amqp.Confirmation
	exchange string

	// serializes publishes so each one knows its own delivery tag
	mu sync.Mutex
}

// DialRabbit connects, declares the durable topic exchange and enables
// publisher confirms.
func DialRabbit(url, exchange string) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit: declare exchange %q: %w", exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit: enable confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))

	p := newRabbitPublisher(ch, acks, exchange)
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch publishChannel, acks <-chan amqp.Confirmation, exchange string) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, acks: acks, exchange: exchange}
}

func (p *RabbitPublisher) Publish(ctx context.Context, event ports.DeliveryEvent) (err error) {
	defer obs.Time(ctx, "events.rabbit.Publish")(&err)
	defer func() { obs.CountEvent(event.Type, err) }()

	if event.Type == "" {
		return errors.New("rabbit publish: event type is empty")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("rabbit publish %s: encode: %w", event.Type, err)
	}

	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tag := p.ch.GetNextPublishSeqNo()

	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    uuid.NewString(),
		Timestamp:    ts,
		Type:         event.Type,
		Headers:      amqp.Table{"driver_id": event.DriverID},
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbit publish %s: %w", event.Type, err)
	}

	return p.waitConfirm(ctx, event.Type, tag)
}

// waitConfirm reads confirms until the one for tag arrives. Confirms left
// behind by a publish whose context was cancelled carry lower tags and are
// dropped.
func (p *RabbitPublisher) waitConfirm(ctx context.Context, eventType string, tag uint64) error {
	for {
		select {
		case conf, ok := <-p.acks:
			if !ok {
				return fmt.Errorf("rabbit publish %s: confirm channel closed", eventType)
			}
			if conf.DeliveryTag < tag {
				continue
			}
			if conf.DeliveryTag > tag {
				return fmt.Errorf("rabbit publish %s: confirm for tag %d never arrived (got %d)", eventType, tag, conf.DeliveryTag)
			}
			if !conf.Ack {
				return fmt.Errorf("rabbit publish %s: nack from broker (tag %d)", eventType, conf.DeliveryTag)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("rabbit publish %s: wait for confirm: %w", eventType, ctx.Err())
		}
	}
}

func (p *RabbitPublisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
