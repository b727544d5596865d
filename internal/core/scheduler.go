package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/baxromumarov/velocity/internal/trends"
)

type TrendsRefresher interface {
	Refresh(ctx context.Context) (*trends.MarketTrends, error)
}

// SchedulerService keeps the market trends cache warm.
type SchedulerService struct {
	trends   TrendsRefresher
	interval time.Duration
	logger   *slog.Logger
}

func NewSchedulerService(t TrendsRefresher, interval time.Duration, logger *slog.Logger) *SchedulerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchedulerService{trends: t, interval: interval, logger: logger}
}

// Start runs the refresh loop in the background until ctx is done. A zero
// interval disables it.
func (s *SchedulerService) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.interval <= 0 {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		s.runTrendsRefresh(ctx)
	}()
	return done
}

func (s *SchedulerService) runTrendsRefresh(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on startup
	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *SchedulerService) refresh(ctx context.Context) {
	t, err := s.trends.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("market trends refresh failed", "error", err)
		}
		return
	}
	s.logger.Info("market trends refreshed",
		"growing", len(t.TopGrowingSkills),
		"declining", len(t.TopDecliningSkills),
		"stability", t.MarketStabilityIndex)
}
