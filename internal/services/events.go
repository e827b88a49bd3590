package services

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// AMQPPublisher publishes order lifecycle events to RabbitMQ. Queues are
// declared durable on first publish so consumers can bind before or after
// the producer starts.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPPublisher connects to RabbitMQ and opens a channel
func NewAMQPPublisher(amqpURL string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel}, nil
}

// Publish declares the queue and sends the payload as JSON
func (p *AMQPPublisher) Publish(queue string, payload any) error {
	q, err := p.channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	err = p.channel.Publish(
		"",     // exchange
		q.Name, // routing key
		false,  // mandatory
		false,  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queue, err)
	}

	return nil
}

// Close shuts down the channel and connection
func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher drops events. Used when no broker is configured so the
// checkout pipeline keeps working in development.
type NoopPublisher struct{}

// Publish logs and discards the event
func (NoopPublisher) Publish(queue string, payload any) error {
	log.Printf("Event publishing disabled, dropping %s event", queue)
	return nil
}

// Close is a no-op
func (NoopPublisher) Close() error { return nil }
