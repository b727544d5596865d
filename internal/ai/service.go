package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/baxromumarov/velocity/internal/httpx"
)

// ServiceClient calls the skill-analysis micro-service (POST /analyze).
type ServiceClient struct {
	baseURL string
	http    *httpx.Client
}

func NewServiceClient(baseURL string, timeout time.Duration) *ServiceClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ServiceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpx.NewClient("velocity/1.0", timeout),
	}
}

func (s *ServiceClient) Name() string { return ProviderService }

func (s *ServiceClient) Analyze(ctx context.Context, p Profile) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]string{"text": p.Text()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(ctx, req)
	if err != nil {
		var se *httpx.StatusError
		if errors.As(err, &se) {
			if detail := errorDetail(se.Body); detail != "" {
				return nil, fmt.Errorf("analysis service: %s: %w", detail, err)
			}
		}
		return nil, fmt.Errorf("analysis service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return asObject(string(raw))
}

// errorDetail pulls the human readable message out of an error body.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(truncateText(string(body), 200))
	}
	for _, path := range []string{"detail", "error", "message"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	if v := gjson.GetBytes(body, "detail"); v.Exists() {
		return v.Raw
	}
	return ""
}
