package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidCredential is returned for malformed, expired or forged tokens.
var ErrInvalidCredential = errors.New("invalid credential")

// ErrKeysUnavailable means the provider's signing keys could not be loaded,
// so the token could not be checked either way.
var ErrKeysUnavailable = errors.New("signing keys unavailable")

// Identity is what the identity provider vouches for.
type Identity struct {
	Subject     string
	PhoneNumber string
}

type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Admin manages principals at the identity provider.
type Admin interface {
	DeleteAccount(ctx context.Context, subject string) error
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
