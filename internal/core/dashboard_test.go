package core

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/velocity/internal/store"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		insights string
		roles    []string
		atRisk   []string
		has      bool
	}{
		{name: "no insights", roles: []string{}, atRisk: []string{}},
		{name: "not an object", insights: `[1]`, roles: []string{}, atRisk: []string{}},
		{
			name: "full document",
			insights: `{
				"matched_roles": [{"role": "Backend Engineer"}, {"role": "SRE"}, {"role": ""}],
				"skill_decline_risk": [
					{"skill": "jQuery", "decline_risk_probability": 0.9},
					{"skill": "Perl", "decline_risk_probability": 0.66},
					{"skill": "Go", "decline_risk_probability": 0.2}
				]
			}`,
			roles:  []string{"Backend Engineer", "SRE"},
			atRisk: []string{"jQuery", "Perl"},
			has:    true,
		},
		{name: "empty object", insights: `{}`, roles: []string{}, atRisk: []string{}, has: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &store.User{Role: "Backend Engineer", Skills: []string{"Go"}, Readiness: 80}
			if tt.insights != "" {
				u.AIInsights = json.RawMessage(tt.insights)
			}

			sum := Summarize(u)
			assert.Equal(t, tt.roles, sum.TopMatchedRoles)
			assert.Equal(t, tt.atRisk, sum.AtRiskSkills)
			assert.Equal(t, tt.has, sum.HasInsights)
			assert.Equal(t, "highly resilient", sum.Resilience)
		})
	}
}

func TestDashboardServiceSummary(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryStore()
	_, err := users.SaveQuiz(ctx, "user_1", store.QuizResult{Role: "SRE", Skills: []string{"Linux"}, Readiness: 10})
	require.NoError(t, err)

	svc := NewDashboardService(users)
	sum, err := svc.Summary(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "SRE", sum.Role)
	assert.Equal(t, "at risk", sum.Resilience)
	assert.False(t, sum.HasInsights)

	_, err = svc.Summary(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
