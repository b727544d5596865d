package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	"github.com/clerk/clerk-sdk-go/v2/jwt"

	"github.com/baxromumarov/velocity/internal/store"
)

// profileClaims are the optional profile fields a session token template can add.
type profileClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// ClerkVerifier validates Clerk session tokens against the instance JWKS.
// Keys are cached by key id for the life of the process.
type ClerkVerifier struct {
	jwks *jwks.Client

	mu   sync.RWMutex
	keys map[string]*clerk.JSONWebKey
}

func NewClerkVerifier(secretKey string) *ClerkVerifier {
	cfg := &clerk.ClientConfig{}
	cfg.Key = clerk.String(secretKey)
	return &ClerkVerifier{
		jwks: jwks.NewClient(cfg),
		keys: map[string]*clerk.JSONWebKey{},
	}
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (store.Identity, error) {
	unverified, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return store.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	jwk, err := v.key(ctx, unverified.KeyID)
	if err != nil {
		return store.Identity{}, err
	}

	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{
		Token: token,
		JWK:   jwk,
		CustomClaimsConstructor: func(context.Context) any {
			return &profileClaims{}
		},
	})
	if err != nil {
		return store.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := store.Identity{ClerkID: claims.Subject}
	if custom, ok := claims.Custom.(*profileClaims); ok {
		id.Email = custom.Email
		id.FirstName = custom.FirstName
		id.LastName = custom.LastName
	}
	return id, nil
}

func (v *ClerkVerifier) key(ctx context.Context, kid string) (*clerk.JSONWebKey, error) {
	v.mu.RLock()
	jwk, ok := v.keys[kid]
	v.mu.RUnlock()
	if ok {
		return jwk, nil
	}

	jwk, err := jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{
		KeyID:      kid,
		JWKSClient: v.jwks,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch signing key %q: %w", kid, err)
	}

	v.mu.Lock()
	v.keys[kid] = jwk
	v.mu.Unlock()
	return jwk, nil
}
