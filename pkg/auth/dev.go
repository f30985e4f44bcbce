package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/chefconnect/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

const devAudience = "chefconnect-dev"

type DevClaims struct {
	PhoneNumber string `json:"phone_number"`
	jwt.RegisteredClaims
}

// NewDevToken issues an HS256 token accepted by DevVerifier. It stands in for
// a Firebase ID token in local runs and tests.
func NewDevToken(subject, phone, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := DevClaims{
		PhoneNumber: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{devAudience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

type DevVerifier struct {
	secret []byte
}

func NewDevVerifier(secret string) *DevVerifier {
	return &DevVerifier{secret: []byte(secret)}
}

func (v *DevVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	tok, err := jwt.ParseWithClaims(token, &DevClaims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(devAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	claims, ok := tok.Claims.(*DevClaims)
	if !ok || !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredential
	}
	return &Identity{Subject: claims.Subject, PhoneNumber: claims.PhoneNumber}, nil
}

// DevAdmin only logs account deletions.
type DevAdmin struct{}

func (DevAdmin) DeleteAccount(ctx context.Context, subject string) error {
	logger.InfoContext(ctx, "[DEV AUTH] Identity account deleted", "subject", subject)
	return nil
}
