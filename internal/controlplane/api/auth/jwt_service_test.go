package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "too-short"})
	assert.ErrorIs(t, err, ErrInvalidSecretLength)
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin())
	assert.True(t, claims.IsAccessToken())

	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refreshClaims.IsRefreshToken())
}

func TestTokenTypeEnforced(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{
		Secret:              testSecret,
		AccessTokenDuration: -time.Minute,
	})
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestWrongSecretRejected(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: testSecret})
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "ffffffffffffffffffffffffffffffff"})
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair("admin", "admin")
	require.NoError(t, err)

	_, err = other.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCredentialVerify(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	cred := Credential{Username: "admin", PasswordHash: hash}

	assert.NoError(t, cred.Verify("admin", "hunter2"))
	assert.ErrorIs(t, cred.Verify("admin", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, cred.Verify("root", "hunter2"), ErrInvalidCredentials)

	// An unset hash never verifies, even against an empty password.
	empty := Credential{Username: "admin"}
	assert.ErrorIs(t, empty.Verify("admin", ""), ErrInvalidCredentials)
}
