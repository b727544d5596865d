package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/baxromumarov/velocity/internal/catalog"
	"github.com/baxromumarov/velocity/internal/observability"
	"github.com/baxromumarov/velocity/internal/readiness"
	"github.com/baxromumarov/velocity/internal/store"
)

var ErrInvalidQuiz = errors.New("invalid quiz submission")

type QuizInput struct {
	Skills []string
	Role   string
}

type ProfileService struct {
	users    store.UserStore
	enricher Enricher
	logger   *slog.Logger
}

func NewProfileService(users store.UserStore, enricher Enricher, logger *slog.Logger) *ProfileService {
	if enricher == nil {
		enricher = DisabledEnricher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileService{users: users, enricher: enricher, logger: logger}
}

// Me returns the caller's profile, creating it on first sight.
func (s *ProfileService) Me(ctx context.Context, id store.Identity) (*store.User, error) {
	user, err := s.users.GetOrCreate(ctx, id)
	if err != nil {
		observability.IncError(observability.ClassifyStoreError(err), "users")
		return nil, err
	}
	observability.IncUserResolved()
	return user, nil
}

// SubmitQuiz saves the quiz answers and kicks off enrichment according to
// the configured mode. Enrichment failures never fail the submission.
func (s *ProfileService) SubmitQuiz(ctx context.Context, clerkID string, in QuizInput) (*store.User, error) {
	role := strings.TrimSpace(in.Role)
	if role == "" {
		return nil, ErrInvalidQuiz
	}
	skills := catalog.NormalizeSkills(in.Skills)

	user, err := s.users.SaveQuiz(ctx, clerkID, store.QuizResult{
		Skills:    skills,
		Role:      role,
		Readiness: readiness.Score(skills),
	})
	if err != nil {
		observability.IncError(observability.ClassifyStoreError(err), "quiz")
		return nil, err
	}
	observability.IncQuizSubmission()

	d, err := s.enricher.Dispatch(ctx, clerkID)
	switch {
	case errors.Is(err, ErrEnrichmentDisabled):
	case err != nil:
		s.logger.Warn("enrichment after quiz failed", "clerk_id", clerkID, "mode", s.enricher.Mode(), "error", err)
	case d.User != nil:
		return d.User, nil
	case d.JobID != "":
		s.logger.Info("enrichment queued", "clerk_id", clerkID, "job_id", d.JobID)
	}
	return user, nil
}

// RequestInsights triggers enrichment on demand.
func (s *ProfileService) RequestInsights(ctx context.Context, clerkID string) (Dispatch, error) {
	return s.enricher.Dispatch(ctx, clerkID)
}

func (s *ProfileService) EnrichmentMode() string {
	return s.enricher.Mode()
}
