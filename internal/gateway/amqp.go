package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
)

// NotificationJob is the broker payload consumed by cmd/worker.
type NotificationJob struct {
	Contact  Contact   `json:"contact"`
	Message  Message   `json:"message"`
	Attempt  int       `json:"attempt"`
	QueuedAt time.Time `json:"queued_at"`
}

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPGateway hands messages to the worker through a durable queue. A
// successful publish counts as acceptance.
type AMQPGateway struct {
	mu    sync.Mutex
	ch    publisher
	queue string
}

// NewAMQPGateway declares the queue on ch and returns a gateway publishing to it.
func NewAMQPGateway(ch *amqp.Channel, queue string) (*AMQPGateway, error) {
	if err := DeclareQueue(ch, queue); err != nil {
		return nil, err
	}
	return &AMQPGateway{ch: ch, queue: queue}, nil
}

// DeclareQueue declares the durable notification queue.
func DeclareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}

func (g *AMQPGateway) Send(ctx context.Context, to Contact, msg Message) (Receipt, error) {
	if err := g.Publish(ctx, NotificationJob{Contact: to, Message: msg}); err != nil {
		return Receipt{}, err
	}
	return Receipt{Queued: true}, nil
}

// Publish enqueues job as-is; the worker uses it to requeue with a bumped
// Attempt.
func (g *AMQPGateway) Publish(ctx context.Context, job NotificationJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode notification job: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	err = g.ch.Publish("", g.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: publish to %s: %v", ErrGatewayUnavailable, g.queue, err)
	}
	return nil
}

var _ Gateway = (*AMQPGateway)(nil)
