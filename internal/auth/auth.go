// Package auth verifies bearer tokens and carries the caller identity
// through the request context.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/baxromumarov/velocity/internal/store"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier checks a raw bearer token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, token string) (store.Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id store.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (store.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(store.Identity)
	return id, ok && id.ClerkID != ""
}

// Middleware rejects requests without a valid bearer token with 401.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "No token provided")
				return
			}

			token := bearerToken(header)
			if token == "" {
				unauthorized(w, "Invalid token")
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil || id.ClerkID == "" {
				unauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
