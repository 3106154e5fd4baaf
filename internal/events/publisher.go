// Package events publishes domain events to AMQP for downstream
// notification consumers. Publishing is best-effort at the service
// layer: a failed publish is logged, never rolled back into the
// originating transaction.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	routingPaymentConfirmed = "payment.confirmed"
	routingRoundCompleted   = "round.completed"
)

// Publisher emits circle domain events.
type Publisher interface {
	PaymentConfirmed(ctx context.Context, msg *PaymentConfirmedMessage) error
	RoundCompleted(ctx context.Context, msg *RoundCompletedMessage) error
	Close() error
}

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQP connects to the broker and declares the exchange.
func NewAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// PaymentConfirmed publishes a payment-confirmed event.
func (p *AMQPPublisher) PaymentConfirmed(ctx context.Context, msg *PaymentConfirmedMessage) error {
	body, err := msg.toJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.publish(ctx, routingPaymentConfirmed, body)
}

// RoundCompleted publishes a round-completed event.
func (p *AMQPPublisher) RoundCompleted(ctx context.Context, msg *RoundCompletedMessage) error {
	body, err := msg.toJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.publish(ctx, routingRoundCompleted, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PaymentConfirmed(context.Context, *PaymentConfirmedMessage) error { return nil }
func (NopPublisher) RoundCompleted(context.Context, *RoundCompletedMessage) error     { return nil }
func (NopPublisher) Close() error                                                     { return nil }
