// Package queue moves enrichment jobs through RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type EnrichmentJob struct {
	ID          string    `json:"id"`
	ClerkID     string    `json:"clerkId"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewEnrichmentJob(clerkID string) EnrichmentJob {
	return EnrichmentJob{
		ID:          uuid.NewString(),
		ClerkID:     clerkID,
		RequestedAt: time.Now().UTC(),
	}
}

func declare(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue, // queue name
		true,  // durable (survives broker restarts)
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

// Publisher sends jobs on one shared channel. amqp channels are not safe for
// concurrent publishes, so sends are serialized.
type Publisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection, queue string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := declare(ch, queue); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return &Publisher{conn: conn, queue: queue, ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, job EnrichmentJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.RequestedAt,
		Body:         body,
	}

	err = p.ch.Publish(
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		msg,
	)
	if err == amqp.ErrClosed {
		// The channel dies on broker-side errors; reopen once and retry.
		ch, openErr := p.conn.Channel()
		if openErr != nil {
			return fmt.Errorf("failed to reopen channel: %w", openErr)
		}
		p.ch = ch
		err = p.ch.Publish("", p.queue, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("failed to publish job %s: %w", job.ID, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}
