package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

type Handler func(ctx context.Context, job EnrichmentJob) error

// Pool runs a fixed number of consumers, each on its own channel with a
// prefetch of one and manual acknowledgement.
type Pool struct {
	conn    *amqp.Connection
	queue   string
	workers int
	handle  Handler
	logger  *slog.Logger

	// IsPermanent reports handler errors that retrying cannot fix; those
	// messages are acked and dropped.
	IsPermanent func(error) bool

	subscribe func() (io.Closer, <-chan amqp.Delivery, error)
}

func NewPool(conn *amqp.Connection, queue string, workers int, handle Handler, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		conn:        conn,
		queue:       queue,
		workers:     workers,
		handle:      handle,
		logger:      logger,
		IsPermanent: func(error) bool { return false },
	}
	p.subscribe = p.openChannel
	return p
}

// Run blocks until ctx is cancelled or a worker fails. Workers already
// started are stopped before Run returns.
func (p *Pool) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, p.workers)

	for i := range p.workers {
		ch, deliveries, err := p.subscribe()
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
		wg.Add(1)
		p.logger.Info("worker started", "worker", i+1, "queue", p.queue)
		go func(id int) {
			defer wg.Done()
			defer ch.Close()
			if err := p.work(ctx, id, deliveries); err != nil {
				errs <- err
				cancel()
			}
		}(i + 1)
	}

	wg.Wait()
	close(errs)
	return <-errs
}

func (p *Pool) openChannel() (io.Closer, <-chan amqp.Delivery, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to set prefetch: %w", err)
	}
	if err := declare(ch, p.queue); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}

	deliveries, err := ch.Consume(
		p.queue, // queue name
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to consume %s: %w", p.queue, err)
	}
	return ch, deliveries, nil
}

func (p *Pool) work(ctx context.Context, id int, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("worker %d: delivery channel closed", id)
			}
			p.handleDelivery(ctx, id, d)
		}
	}
}

func (p *Pool) handleDelivery(ctx context.Context, worker int, d amqp.Delivery) {
	var job EnrichmentJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.ClerkID == "" {
		p.logger.Error("dropping undecodable job", "worker", worker, "message_id", d.MessageId, "error", err)
		p.settle(d.Nack(false, false))
		return
	}

	log := p.logger.With("worker", worker, "job_id", job.ID, "clerk_id", job.ClerkID)
	log.Info("processing enrichment job")

	err := p.handle(ctx, job)
	switch {
	case err == nil:
		log.Info("enrichment job completed")
		p.settle(d.Ack(false))
	case p.IsPermanent(err):
		log.Warn("dropping enrichment job", "error", err)
		p.settle(d.Ack(false))
	default:
		// A job cut short by shutdown goes back regardless of earlier attempts.
		requeue := !d.Redelivered || ctx.Err() != nil
		log.Error("enrichment job failed", "error", err, "requeue", requeue)
		p.settle(d.Nack(false, requeue))
	}
}

func (p *Pool) settle(err error) {
	if err != nil {
		p.logger.Error("failed to settle delivery", "error", err)
	}
}
