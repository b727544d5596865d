package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baxromumarov/velocity/internal/ai"
	"github.com/baxromumarov/velocity/internal/observability"
	"github.com/baxromumarov/velocity/internal/store"
)

var (
	// ErrEmptyProfile means the user has neither a role nor skills to analyze.
	ErrEmptyProfile = errors.New("profile has no role or skills")
	// ErrAnalysisFailed wraps any failure of the AI provider.
	ErrAnalysisFailed = errors.New("skill analysis failed")
)

// EnrichmentService attaches AI insights to a stored profile.
type EnrichmentService struct {
	users    store.UserStore
	aiClient ai.Client
	logger   *slog.Logger
}

func NewEnrichmentService(users store.UserStore, aiClient ai.Client, logger *slog.Logger) *EnrichmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichmentService{users: users, aiClient: aiClient, logger: logger}
}

func (s *EnrichmentService) Enrich(ctx context.Context, clerkID string) (*store.User, error) {
	user, err := s.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	profile := ai.Profile{Role: user.Role, Skills: user.Skills}
	if profile.Empty() {
		return nil, ErrEmptyProfile
	}

	observability.IncAICall(s.aiClient.Name())
	start := time.Now()
	insights, err := s.aiClient.Analyze(ctx, profile)
	observability.ObserveUpstreamDuration(time.Since(start).Seconds())
	if err != nil {
		observability.IncError(observability.ClassifyUpstreamError(err), "enrichment")
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	updated, err := s.users.SetInsights(ctx, clerkID, insights)
	if err != nil {
		observability.IncError(observability.ClassifyStoreError(err), "enrichment")
		return nil, fmt.Errorf("failed to save insights: %w", err)
	}

	s.logger.Info("profile enriched", "clerk_id", clerkID, "provider", s.aiClient.Name())
	return updated, nil
}

// IsPermanent reports enrichment errors that a retry cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrEmptyProfile)
}
