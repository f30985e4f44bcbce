package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

type firebaseClaims struct {
	PhoneNumber string `json:"phone_number"`
	AuthTime    int64  `json:"auth_time"`
	jwt.RegisteredClaims
}

// FirebaseVerifier checks Firebase Authentication ID tokens locally against
// Google's published signing certificates.
type FirebaseVerifier struct {
	projectID string
	issuer    string
	keys      *keySource
}

type FirebaseOption func(*FirebaseVerifier)

// WithCertsURL points the verifier at another certificate endpoint.
func WithCertsURL(url string, client *http.Client) FirebaseOption {
	return func(v *FirebaseVerifier) {
		v.keys = newKeySource(url, client)
	}
}

func NewFirebaseVerifier(projectID string, opts ...FirebaseOption) *FirebaseVerifier {
	v := &FirebaseVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		keys:      newKeySource(GoogleCertsURL, nil),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	tok, err := jwt.ParseWithClaims(token, &firebaseClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		return v.keys.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if errors.Is(err, ErrKeysUnavailable) {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := tok.Claims.(*firebaseClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Subject == "" || len(claims.Subject) > 128 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidCredential)
	}
	if claims.AuthTime > 0 && claims.IssuedAt != nil && claims.AuthTime > claims.IssuedAt.Unix() {
		return nil, fmt.Errorf("%w: auth_time in the future", ErrInvalidCredential)
	}

	return &Identity{Subject: claims.Subject, PhoneNumber: claims.PhoneNumber}, nil
}
