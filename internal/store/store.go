// Package store persists user career profiles keyed by identity-provider subject.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// User is the persisted career profile. AIInsights holds the enrichment
// service response verbatim and is null until the first enrichment.
type User struct {
	ID         string          `json:"id"`
	ClerkID    string          `json:"clerkId"`
	Email      string          `json:"email"`
	FirstName  string          `json:"firstName"`
	LastName   string          `json:"lastName"`
	Skills     []string        `json:"skills"`
	Role       string          `json:"role"`
	Readiness  int             `json:"readiness"`
	AIInsights json.RawMessage `json:"aiInsights"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Identity is the subset of token claims used to seed a new user.
type Identity struct {
	ClerkID   string
	Email     string
	FirstName string
	LastName  string
}

// QuizResult is what a quiz submission writes onto the profile.
type QuizResult struct {
	Skills    []string
	Role      string
	Readiness int
}

type UserStore interface {
	// GetByClerkID returns ErrNotFound when no user has the subject.
	GetByClerkID(ctx context.Context, clerkID string) (*User, error)
	// GetOrCreate returns the existing user or inserts one seeded from id.
	// Identity fields of an existing user are left untouched.
	GetOrCreate(ctx context.Context, id Identity) (*User, error)
	// SaveQuiz upserts the quiz result onto the user.
	SaveQuiz(ctx context.Context, clerkID string, quiz QuizResult) (*User, error)
	// SetInsights replaces the stored insights. Returns ErrNotFound for unknown users.
	SetInsights(ctx context.Context, clerkID string, insights json.RawMessage) (*User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

func normalizeSkills(skills []string) []string {
	if skills == nil {
		return []string{}
	}
	return skills
}
