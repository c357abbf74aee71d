package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const OrderCreatedRoutingKey = "checkout.order_created"

type Publisher interface {
	PublishOrderCreated(ctx context.Context, event *models.CheckoutEvent) error
	Close() error
}

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

// NewRabbitPublisher dials the broker and declares a durable topic exchange for checkout events.
func NewRabbitPublisher(url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	p, err := newRabbitPublisher(ch, exchange)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	p.conn = conn

	return p, nil
}

func newRabbitPublisher(ch amqpChannel, exchange string) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()

		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &RabbitPublisher{ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) PublishOrderCreated(ctx context.Context, event *models.CheckoutEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, OrderCreatedRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.OrderID,
		Timestamp:    time.Unix(event.CreatedAt, 0),
		Type:         event.Event,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", OrderCreatedRoutingKey, err)
	}

	return nil
}

func (p *RabbitPublisher) Close() error {
	var firstErr error

	if p.ch != nil {
		firstErr = p.ch.Close()
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

type noopPublisher struct{}

// NewNoopPublisher drops every event; used when no broker URL is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishOrderCreated(context.Context, *models.CheckoutEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
