package core

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/baxromumarov/velocity/internal/readiness"
	"github.com/baxromumarov/velocity/internal/store"
)

// atRiskThreshold is the lower bound of the high risk bucket used by the
// trends service.
const atRiskThreshold = 0.66

type DashboardSummary struct {
	Role            string   `json:"role"`
	Skills          []string `json:"skills"`
	Readiness       int      `json:"readiness"`
	Resilience      string   `json:"resilience"`
	TopMatchedRoles []string `json:"topMatchedRoles"`
	AtRiskSkills    []string `json:"atRiskSkills"`
	HasInsights     bool     `json:"hasInsights"`
}

type DashboardService struct {
	users store.UserStore
}

func NewDashboardService(users store.UserStore) *DashboardService {
	return &DashboardService{users: users}
}

func (s *DashboardService) Summary(ctx context.Context, clerkID string) (*DashboardSummary, error) {
	user, err := s.users.GetByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	sum := Summarize(user)
	return &sum, nil
}

func (s *DashboardService) User(ctx context.Context, clerkID string) (*store.User, error) {
	return s.users.GetByClerkID(ctx, clerkID)
}

// Summarize reads the dashboard figures off a stored profile. Missing or
// malformed insights yield empty lists.
func Summarize(u *store.User) DashboardSummary {
	sum := DashboardSummary{
		Role:            u.Role,
		Skills:          append([]string{}, u.Skills...),
		Readiness:       u.Readiness,
		Resilience:      readiness.Resilience(u.Readiness),
		TopMatchedRoles: []string{},
		AtRiskSkills:    []string{},
	}

	if len(u.AIInsights) == 0 || !gjson.ValidBytes(u.AIInsights) {
		return sum
	}
	doc := gjson.ParseBytes(u.AIInsights)
	if !doc.IsObject() {
		return sum
	}
	sum.HasInsights = true

	doc.Get("matched_roles.#.role").ForEach(func(_, v gjson.Result) bool {
		if role := v.String(); role != "" {
			sum.TopMatchedRoles = append(sum.TopMatchedRoles, role)
		}
		return true
	})

	doc.Get("skill_decline_risk").ForEach(func(_, v gjson.Result) bool {
		if v.Get("decline_risk_probability").Float() >= atRiskThreshold {
			if skill := v.Get("skill").String(); skill != "" {
				sum.AtRiskSkills = append(sum.AtRiskSkills, skill)
			}
		}
		return true
	})
	return sum
}
