// Package service fans reservation changes out to the message broker and
// the admin live feed.  Failures are logged and never fail the request
// that caused the change.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/experiencias-arroyo/sierra-explora/internal/queue"
)

const (
	minRedial = time.Second
	maxRedial = 30 * time.Second
)

// ErrBrokerBackoff is returned without dialling while the publisher waits
// out a failed connection attempt.
var ErrBrokerBackoff = errors.New("broker unavailable, waiting to redial")

// AMQPPublisher publishes ReservationEvents to the reservations.events
// queue.  The connection is opened lazily and redialled after it drops.
// After a failed dial no new attempt is made until a backoff, doubling up
// to 30 seconds, has passed.
type AMQPPublisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)
	now  func() time.Time

	mu       sync.Mutex
	conn     *amqp.Connection
	backoff  time.Duration
	nextDial time.Time
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dial: dialBroker, now: time.Now}
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(3 * time.Second),
	})
}

func (p *AMQPPublisher) connection() (*amqp.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		return p.conn, nil
	}
	now := p.now()
	if now.Before(p.nextDial) {
		return nil, ErrBrokerBackoff
	}
	conn, err := p.dial(p.url)
	if err != nil {
		p.backoff = min(max(p.backoff*2, minRedial), maxRedial)
		p.nextDial = now.Add(p.backoff)
		return nil, err
	}
	p.conn, p.backoff, p.nextDial = conn, 0, time.Time{}
	return conn, nil
}

// Publish sends ev as a persistent JSON message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	conn, err := p.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",              // default exchange
		queue.QueueName, // routing key = queue name
		false,           // mandatory
		false,           // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.MessageID,
			Type:         string(ev.Type),
			Timestamp:    ev.OccurredAt,
			Body:         body,
		})
}

// Close releases the broker connection, if any.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Close()
}
