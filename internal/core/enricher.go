package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/baxromumarov/velocity/internal/ai"
	"github.com/baxromumarov/velocity/internal/config"
	"github.com/baxromumarov/velocity/internal/observability"
	"github.com/baxromumarov/velocity/internal/queue"
	"github.com/baxromumarov/velocity/internal/store"
)

var ErrEnrichmentDisabled = errors.New("AI enrichment is disabled")

// Dispatch is the outcome of an enrichment request: the enriched user when
// it ran inline, or the job id when it was queued.
type Dispatch struct {
	User  *store.User
	JobID string
}

type Enricher interface {
	Mode() string
	Dispatch(ctx context.Context, clerkID string) (Dispatch, error)
}

type JobPublisher interface {
	Publish(ctx context.Context, job queue.EnrichmentJob) error
}

// NewEnricher picks the dispatch strategy for mode. A queue enricher needs a
// publisher.
func NewEnricher(mode string, svc *EnrichmentService, users store.UserStore, pub JobPublisher) (Enricher, error) {
	switch mode {
	case config.EnrichOff:
		return DisabledEnricher{}, nil
	case config.EnrichInline:
		return &InlineEnricher{svc: svc}, nil
	case config.EnrichQueue:
		if pub == nil {
			return nil, errors.New("queue enrichment requires a publisher")
		}
		return &QueueEnricher{users: users, pub: pub}, nil
	default:
		return nil, fmt.Errorf("unknown enrichment mode %q", mode)
	}
}

type DisabledEnricher struct{}

func (DisabledEnricher) Mode() string { return config.EnrichOff }

func (DisabledEnricher) Dispatch(context.Context, string) (Dispatch, error) {
	return Dispatch{}, ErrEnrichmentDisabled
}

type InlineEnricher struct {
	svc *EnrichmentService
}

func (e *InlineEnricher) Mode() string { return config.EnrichInline }

func (e *InlineEnricher) Dispatch(ctx context.Context, clerkID string) (Dispatch, error) {
	user, err := e.svc.Enrich(ctx, clerkID)
	if err != nil {
		return Dispatch{}, err
	}
	return Dispatch{User: user}, nil
}

// QueueEnricher checks the profile is worth analyzing, then hands the work to
// the worker pool.
type QueueEnricher struct {
	users store.UserStore
	pub   JobPublisher
}

func (e *QueueEnricher) Mode() string { return config.EnrichQueue }

func (e *QueueEnricher) Dispatch(ctx context.Context, clerkID string) (Dispatch, error) {
	user, err := e.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return Dispatch{}, err
	}
	if (ai.Profile{Role: user.Role, Skills: user.Skills}).Empty() {
		return Dispatch{}, ErrEmptyProfile
	}

	job := queue.NewEnrichmentJob(clerkID)
	if err := e.pub.Publish(ctx, job); err != nil {
		observability.IncError("queue", "enrichment")
		return Dispatch{}, fmt.Errorf("failed to queue enrichment: %w", err)
	}
	observability.IncEnrichmentQueued()
	return Dispatch{JobID: job.ID}, nil
}
