package auth

import (
	"testing"
	"time"

	"reverie/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-test-secret",
		RefreshSecret: "refresh-test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "reverie-test",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()

	token, err := GenerateAccessToken(cfg, 42, "a@test.local", "ADMIN")
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "a@test.local", claims.Email)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, "reverie-test", claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()

	token, err := GenerateRefreshToken(cfg, 7)
	require.NoError(t, err)

	userID, err := ParseRefreshToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestRefreshTokenRejectsAccessSecret(t *testing.T) {
	cfg := testJWTConfig()

	// A refresh token must not parse as an access token and vice versa.
	refresh, err := GenerateRefreshToken(cfg, 7)
	require.NoError(t, err)
	_, err = ParseAccessToken(cfg, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := GenerateAccessToken(cfg, 7, "a@test.local", "USER")
	require.NoError(t, err)
	_, err = ParseRefreshToken(cfg, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	cfg := testJWTConfig()

	_, err := ParseAccessToken(cfg, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = ParseRefreshToken(cfg, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
