package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/velocity/internal/store"
)

type fakeVerifier map[string]store.Identity

func (f fakeVerifier) Verify(_ context.Context, token string) (store.Identity, error) {
	id, ok := f[token]
	if !ok {
		return store.Identity{}, ErrInvalidToken
	}
	return id, nil
}

func TestMiddleware(t *testing.T) {
	v := fakeVerifier{
		"good":  {ClerkID: "user_1", Email: "a@example.com"},
		"blank": {},
	}

	var seen store.Identity
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, `{"message":"No token provided"}`},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, `{"message":"Invalid token"}`},
		{"bare scheme", "Bearer", http.StatusUnauthorized, `{"message":"Invalid token"}`},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, `{"message":"Invalid token"}`},
		{"no subject", "Bearer blank", http.StatusUnauthorized, `{"message":"Invalid token"}`},
		{"valid", "Bearer good", http.StatusNoContent, ""},
		{"lowercase scheme", "bearer good", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, rec.Body.String())
			}
		})
	}
	assert.Equal(t, "user_1", seen.ClerkID)
	assert.Equal(t, "a@example.com", seen.Email)
}

func TestFromContextWithoutIdentity(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	_, ok = FromContext(WithIdentity(context.Background(), store.Identity{}))
	assert.False(t, ok)
}

func TestClerkVerifierRejectsMalformedToken(t *testing.T) {
	v := NewClerkVerifier("sk_test_123")
	_, err := v.Verify(context.Background(), "not-a-jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
