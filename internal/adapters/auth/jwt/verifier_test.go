package jwt

import (
	"context"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic/internal/ports/auth"
)

func TestVerify_RoundTrip(t *testing.T) {
	v, err := NewVerifier("s3cret", "vet-clinic")
	require.NoError(t, err)

	tok, err := GenerateToken("s3cret", "vet-clinic", auth.Claims{
		UserID: "u-1", Role: "STAFF", ClinicID: "c-1",
	}, time.Hour)
	require.NoError(t, err)

	c, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "u-1", Role: "STAFF", ClinicID: "c-1"}, c)
}

func TestVerify_Rejects(t *testing.T) {
	v, err := NewVerifier("s3cret", "vet-clinic")
	require.NoError(t, err)
	ctx := context.Background()

	wrongKey, err := GenerateToken("other", "vet-clinic", auth.Claims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, wrongKey)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken("s3cret", "vet-clinic", auth.Claims{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(ctx, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer, err := GenerateToken("s3cret", "someone-else", auth.Claims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, wrongIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// "none" no se acepta
	unsigned, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "u-1", Issuer: "vet-clinic"},
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(ctx, unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	_, err := NewVerifier(" ", "")
	assert.ErrorIs(t, err, ErrNoSecret)
}
