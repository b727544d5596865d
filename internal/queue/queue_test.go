package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var errGone = errors.New("gone")

type ackRecorder struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func testPool(handle Handler) *Pool {
	p := NewPool(nil, "enrichment", 1, handle, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.IsPermanent = func(err error) bool { return errors.Is(err, errGone) }
	return p
}

func delivery(t *testing.T, ack amqp.Acknowledger, body any, redelivered bool) amqp.Delivery {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case string:
		raw = []byte(b)
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: raw, Redelivered: redelivered, DeliveryTag: 1}
}

func TestNewEnrichmentJob(t *testing.T) {
	job := NewEnrichmentJob("user_1")
	assert.Equal(t, "user_1", job.ClerkID)
	assert.Len(t, job.ID, 36)
	assert.False(t, job.RequestedAt.IsZero())

	raw, err := json.Marshal(job)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"clerkId":"user_1"`)
	assert.Contains(t, string(raw), `"requestedAt"`)
}

func TestHandleDelivery(t *testing.T) {
	job := NewEnrichmentJob("user_1")

	tests := []struct {
		name        string
		body        any
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantNack    bool
		wantRequeue bool
		wantCalled  bool
		shutdown    bool
	}{
		{name: "success acks", body: job, wantAck: true, wantCalled: true},
		{name: "bad json is dropped", body: "{not json", wantNack: true},
		{name: "missing clerk id is dropped", body: `{"id":"x"}`, wantNack: true},
		{name: "permanent error acks", body: job, handlerErr: errGone, wantAck: true, wantCalled: true},
		{name: "transient error requeues", body: job, handlerErr: errors.New("timeout"), wantNack: true, wantRequeue: true, wantCalled: true},
		{name: "second failure is not requeued", body: job, redelivered: true, handlerErr: errors.New("timeout"), wantNack: true, wantCalled: true},
		{name: "shutdown requeues redelivered job", body: job, redelivered: true, handlerErr: context.Canceled, wantNack: true, wantRequeue: true, wantCalled: true, shutdown: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			p := testPool(func(_ context.Context, got EnrichmentJob) error {
				called = true
				assert.Equal(t, job.ClerkID, got.ClerkID)
				return tt.handlerErr
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.shutdown {
				cancel()
			}

			ack := &ackRecorder{}
			p.handleDelivery(ctx, 1, delivery(t, ack, tt.body, tt.redelivered))

			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeue)
		})
	}
}

func TestWorkStopsOnCancel(t *testing.T) {
	p := testPool(func(context.Context, EnrichmentJob) error { return nil })
	deliveries := make(chan amqp.Delivery)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.work(ctx, 1, deliveries) }()

	cancel()
	assert.NoError(t, <-done)
}

func TestWorkReportsClosedChannel(t *testing.T) {
	p := testPool(func(context.Context, EnrichmentJob) error { return nil })
	deliveries := make(chan amqp.Delivery)
	close(deliveries)

	err := p.work(context.Background(), 1, deliveries)
	assert.Error(t, err)
}

type closeCounter struct{ closed *int32 }

func (c closeCounter) Close() error {
	atomic.AddInt32(c.closed, 1)
	return nil
}

func TestRunStopsStartedWorkersWhenSubscribeFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := testPool(func(context.Context, EnrichmentJob) error { return nil })
	p.workers = 3

	var opened, closed int32
	p.subscribe = func() (io.Closer, <-chan amqp.Delivery, error) {
		if atomic.AddInt32(&opened, 1) == 3 {
			return nil, nil, errors.New("channel limit reached")
		}
		return closeCounter{closed: &closed}, make(chan amqp.Delivery), nil
	}

	err := p.Run(context.Background())
	require.EqualError(t, err, "channel limit reached")
	assert.EqualValues(t, 2, atomic.LoadInt32(&closed))
}

func TestRunStopsPoolWhenWorkerFails(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := testPool(func(context.Context, EnrichmentJob) error { return nil })
	p.workers = 2

	var opened, closed int32
	p.subscribe = func() (io.Closer, <-chan amqp.Delivery, error) {
		deliveries := make(chan amqp.Delivery)
		if atomic.AddInt32(&opened, 1) == 1 {
			close(deliveries)
		}
		return closeCounter{closed: &closed}, deliveries, nil
	}

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery channel closed")
	assert.EqualValues(t, 2, atomic.LoadInt32(&closed))
}
