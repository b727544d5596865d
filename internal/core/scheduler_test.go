package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/baxromumarov/velocity/internal/trends"
)

type countingRefresher struct {
	calls int32
	err   error
}

func (c *countingRefresher) Refresh(context.Context) (*trends.MarketTrends, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.err != nil {
		return nil, c.err
	}
	return &trends.MarketTrends{}, nil
}

func TestSchedulerRefreshesUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := &countingRefresher{}
	s := NewSchedulerService(r, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Start(ctx)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSchedulerSurvivesErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := &countingRefresher{err: errors.New("upstream down")}
	s := NewSchedulerService(r, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := s.Start(ctx)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}

func TestSchedulerDisabled(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	r := &countingRefresher{}
	done := NewSchedulerService(r, 0, quietLogger()).Start(context.Background())
	<-done
	assert.EqualValues(t, 0, atomic.LoadInt32(&r.calls))
}
