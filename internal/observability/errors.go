package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/baxromumarov/velocity/internal/httpx"
	"github.com/baxromumarov/velocity/internal/store"
)

const (
	ErrorNetwork   = "network"
	ErrorUpstream  = "upstream"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorStore     = "store"
	ErrorNotFound  = "not_found"
	ErrorUnknown   = "unknown"
)

// ClassifyUpstreamError buckets failures from the AI and trends services.
func ClassifyUpstreamError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var se *httpx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case se.Status >= 500:
			return ErrorUpstream
		default:
			return ErrorUpstream
		}
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return ErrorParsing
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// ClassifyStoreError separates missing users from database failures.
func ClassifyStoreError(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return ErrorNotFound
	}
	return ErrorStore
}
