// Package jwt verifica tokens HS256 firmados con un secreto compartido.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"vet-clinic/internal/ports/auth"
)

var (
	ErrNoSecret     = errors.New("jwt secret not configured")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims es el payload del token: sub = user id.
type Claims struct {
	gojwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	ClinicID string `json:"clinicId,omitempty"`
}

// Verifier implementa auth.AuthVerifier.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewVerifier(secret, issuer string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{secret: []byte(secret), issuer: strings.TrimSpace(issuer), now: time.Now}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(v.issuer))
	}

	c := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, c, func(t *gojwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(c.Subject) == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	return auth.Claims{
		UserID:   strings.TrimSpace(c.Subject),
		Email:    strings.TrimSpace(c.Email),
		Role:     strings.TrimSpace(c.Role),
		ClinicID: strings.TrimSpace(c.ClinicID),
	}, nil
}

// GenerateToken firma claims (tests y `vetctl`).
func GenerateToken(secret, issuer string, c auth.Claims, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrNoSecret
	}
	now := time.Now()
	tok := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   c.UserID,
			Issuer:    issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
		Email:    c.Email,
		Role:     c.Role,
		ClinicID: c.ClinicID,
	})
	return tok.SignedString([]byte(secret))
}
