package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/baxromumarov/velocity/internal/config"
)

const (
	ProviderService    = "service"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

var ErrNotObject = errors.New("analysis result is not a JSON object")

// Client turns a career profile into an insights document. The returned JSON
// object is stored on the user verbatim.
type Client interface {
	Analyze(ctx context.Context, p Profile) (json.RawMessage, error)
	Name() string
}

type Profile struct {
	Role   string
	Skills []string
}

// Text renders the profile the way the analysis service expects it:
// "<role> | skill, skill". The role part is dropped when empty.
func (p Profile) Text() string {
	skills := strings.Join(p.Skills, ", ")
	role := strings.TrimSpace(p.Role)
	switch {
	case role == "":
		return skills
	case skills == "":
		return role
	default:
		return role + " | " + skills
	}
}

func (p Profile) Empty() bool {
	return strings.TrimSpace(p.Role) == "" && len(p.Skills) == 0
}

// NewClient creates an AI client based on cfg.Provider.
// Supported providers: "service", "gemini", "openrouter", "mock".
// When the provider is empty it is picked from whichever credential is set,
// in that order, falling back to mock.
func NewClient(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		switch {
		case cfg.ServiceURL != "":
			provider = ProviderService
		case cfg.GeminiAPIKey != "":
			provider = ProviderGemini
		case cfg.OpenRouterAPIKey != "":
			provider = ProviderOpenRouter
		default:
			provider = ProviderMock
		}
	}

	switch provider {
	case ProviderService:
		if cfg.ServiceURL == "" {
			return nil, errors.New("AI_PROVIDER=service requires AI_SERVICE_URL")
		}
		logger.Info("using analysis service", "url", cfg.ServiceURL)
		return NewServiceClient(cfg.ServiceURL, cfg.Timeout), nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("AI_PROVIDER=gemini but GEMINI_API_KEY not set, falling back to mock")
			return NewMockClient(), nil
		}
		logger.Info("using gemini", "model", cfg.GeminiModel)
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case ProviderOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			logger.Warn("AI_PROVIDER=openrouter but OPENROUTER_API_KEY not set, falling back to mock")
			return NewMockClient(), nil
		}
		logger.Info("using openrouter", "model", cfg.OpenRouterModel)
		return NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	case ProviderMock:
		logger.Info("using mock AI client")
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", provider)
	}
}

// MockClient derives stable insights from the profile so local runs and
// tests see the same document for the same input.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Name() string { return ProviderMock }

type matchedRole struct {
	Role            string   `json:"role"`
	Skills          []string `json:"skills"`
	SimilarityScore float64  `json:"similarity_score"`
}

type skillRisk struct {
	Skill                  string  `json:"skill"`
	DeclineRiskProbability float64 `json:"decline_risk_probability"`
}

type insights struct {
	MatchedRoles     []matchedRole `json:"matched_roles"`
	SkillDeclineRisk []skillRisk   `json:"skill_decline_risk"`
}

func (m *MockClient) Analyze(ctx context.Context, p Profile) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := insights{
		MatchedRoles:     []matchedRole{},
		SkillDeclineRisk: make([]skillRisk, 0, len(p.Skills)),
	}

	if role := strings.TrimSpace(p.Role); role != "" {
		score := 0.5 + 0.05*float64(min(len(p.Skills), 9))
		out.MatchedRoles = append(out.MatchedRoles, matchedRole{
			Role:            role,
			Skills:          append([]string{}, p.Skills...),
			SimilarityScore: round2(score),
		})
	}

	for _, skill := range p.Skills {
		out.SkillDeclineRisk = append(out.SkillDeclineRisk, skillRisk{
			Skill:                  skill,
			DeclineRiskProbability: round2(stableFraction(skill)),
		})
	}
	sort.SliceStable(out.SkillDeclineRisk, func(i, j int) bool {
		return out.SkillDeclineRisk[i].DeclineRiskProbability > out.SkillDeclineRisk[j].DeclineRiskProbability
	})

	return json.Marshal(out)
}

func stableFraction(s string) float64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(s)))
	return float64(h.Sum32()%1000) / 1000
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// cleanJSON removes markdown code blocks if present
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// asObject validates model or service output and returns it compacted.
func asObject(raw string) (json.RawMessage, error) {
	raw = cleanJSON(raw)
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		return nil, fmt.Errorf("%w: %s", ErrNotObject, truncateText(raw, 200))
	}
	return json.RawMessage(raw), nil
}

// truncateText limits text to maxLen characters
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
