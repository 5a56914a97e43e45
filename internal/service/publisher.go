package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/mesalibre/mesalibre/internal/queue"
)

// EventPublisher publishes decision events to RabbitMQ. Errors are logged
// and returned so callers can ignore failures without interrupting the
// main request flow. A zero AMQP URL disables publishing entirely.
type EventPublisher struct {
	url string
	log zerolog.Logger
}

func NewEventPublisher(url string, log zerolog.Logger) *EventPublisher {
	return &EventPublisher{url: url, log: log}
}

// PublishReservationDecided publishes to the reservation.decided queue.
func (p *EventPublisher) PublishReservationDecided(ctx context.Context, ev queue.ReservationDecidedEvent) error {
	return p.publish(ctx, queue.ReservationDecidedQueue, ev)
}

// PublishVenueDecided publishes to the venue.decided queue.
func (p *EventPublisher) PublishVenueDecided(ctx context.Context, ev queue.VenueDecidedEvent) error {
	return p.publish(ctx, queue.VenueDecidedQueue, ev)
}

func (p *EventPublisher) publish(ctx context.Context, queueName string, event any) error {
	if p == nil || p.url == "" {
		return nil
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		p.log.Warn().Err(err).Str("queue", queueName).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.log.Warn().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		p.log.Warn().Err(err).Str("queue", queueName).Msg("rabbitmq: publish failed")
		return err
	}

	return nil
}
