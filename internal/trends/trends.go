// Package trends serves market-wide skill trend data from the analysis
// service, cached so dashboard loads do not hit the model on every request.
package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/baxromumarov/velocity/internal/httpx"
	"github.com/baxromumarov/velocity/internal/observability"
)

const cacheKey = "velocity:market-trends"

// fetchTimeout bounds a shared upstream call, which outlives any single
// caller's context.
const fetchTimeout = 30 * time.Second

type SkillRisk struct {
	Skill                  string  `json:"skill"`
	DeclineRiskProbability float64 `json:"decline_risk_probability"`
}

// RiskDistribution counts tracked skills per risk bucket
// (low < 0.33 <= medium < 0.66 <= high).
type RiskDistribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type MarketTrends struct {
	TopGrowingSkills     []SkillRisk      `json:"top_growing_skills"`
	TopDecliningSkills   []SkillRisk      `json:"top_declining_skills"`
	MarketStabilityIndex float64          `json:"market_stability_index"`
	RiskDistribution     RiskDistribution `json:"risk_distribution"`
}

type Service struct {
	url    string
	ttl    time.Duration
	http   *httpx.Client
	cache  Cache
	group  singleflight.Group
	logger *slog.Logger
}

func NewService(url string, ttl time.Duration, cache Cache, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		url:    url,
		ttl:    ttl,
		http:   httpx.NewClient("velocity/1.0", 15*time.Second),
		cache:  cache,
		logger: logger,
	}
}

// Get returns cached trends when fresh, otherwise fetches them. Concurrent
// misses share one upstream call.
func (s *Service) Get(ctx context.Context) (*MarketTrends, error) {
	if s.ttl > 0 {
		raw, ok, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.logger.Warn("trends cache read failed", "error", err)
		} else if ok {
			var t MarketTrends
			if err := json.Unmarshal(raw, &t); err == nil {
				observability.IncTrendCacheHit()
				return &t, nil
			}
		}
	}

	ch := s.group.DoChan(cacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return s.Refresh(fetchCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*MarketTrends), nil
	}
}

// Refresh fetches trends from upstream and replaces the cached copy.
func (s *Service) Refresh(ctx context.Context) (*MarketTrends, error) {
	t, raw, err := s.fetch(ctx)
	if err != nil {
		observability.IncError(observability.ClassifyUpstreamError(err), "trends")
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.Set(ctx, cacheKey, raw, s.ttl); err != nil {
			s.logger.Warn("trends cache write failed", "error", err)
		}
	}
	return t, nil
}

func (s *Service) fetch(ctx context.Context) (*MarketTrends, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	observability.IncTrendFetch()
	resp, err := s.http.Do(ctx, req)
	observability.ObserveUpstreamDuration(time.Since(start).Seconds())
	if err != nil {
		return nil, nil, fmt.Errorf("market trends request failed: %w", err)
	}
	defer resp.Body.Close()

	var t MarketTrends
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return nil, nil, fmt.Errorf("failed to decode market trends: %w", err)
	}
	if t.TopGrowingSkills == nil {
		t.TopGrowingSkills = []SkillRisk{}
	}
	if t.TopDecliningSkills == nil {
		t.TopDecliningSkills = []SkillRisk{}
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return nil, nil, err
	}
	return &t, raw, nil
}
