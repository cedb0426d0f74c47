package providers

import (
	"context"
	"testing"
	"time"

	"github.com/brizzai/social-connect/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T) *JWTProvider {
	t.Helper()
	p, err := NewJWTProvider(config.AuthConfig{JWTSecret: "test-secret", Issuer: "social-connect", TokenTTL: time.Hour})
	require.NoError(t, err)
	return p
}

func TestNewJWTProvider_RequiresSecret(t *testing.T) {
	_, err := NewJWTProvider(config.AuthConfig{})
	assert.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	p := newProvider(t)

	token, err := p.IssueToken("owner@example.com", "")
	require.NoError(t, err)

	user, err := p.ValidateAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", user.Email)
	assert.Equal(t, "owner@example.com", user.ID)
	assert.Equal(t, "owner@example.com", user.OwnerIdentity())
}

func TestValidate_SubjectFallback(t *testing.T) {
	p := newProvider(t)

	token, err := p.IssueToken("", "user-42")
	require.NoError(t, err)

	user, err := p.ValidateAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", user.OwnerIdentity())
}

func TestValidate_Rejections(t *testing.T) {
	p := newProvider(t)
	ctx := context.Background()

	t.Run("garbage", func(t *testing.T) {
		_, err := p.ValidateAccessToken(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTProvider(config.AuthConfig{JWTSecret: "other", Issuer: "social-connect"})
		require.NoError(t, err)
		token, err := other.IssueToken("owner@example.com", "")
		require.NoError(t, err)
		_, err = p.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTProvider(config.AuthConfig{JWTSecret: "test-secret", Issuer: "someone-else"})
		require.NoError(t, err)
		token, err := other.IssueToken("owner@example.com", "")
		require.NoError(t, err)
		_, err = p.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newProvider(t)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.IssueToken("owner@example.com", "")
		require.NoError(t, err)
		_, err = p.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("no identity", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "social-connect",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = p.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrNoIdentity)
	})

	t.Run("unsigned", func(t *testing.T) {
		claims := &Claims{Email: "owner@example.com", RegisteredClaims: jwt.RegisteredClaims{Issuer: "social-connect"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = p.ValidateAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
