package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

func testManager(ttl time.Duration) *TokenManager {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "unit-test-secret"
	cfg.Auth.TokenTTL = ttl
	return NewTokenManager(cfg)
}

func TestIssueAndParse(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.Issue("user-1", false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestParseAdminClaim(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.Issue("admin-1", true)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
}

func TestParseRejectsExpired(t *testing.T) {
	m := testManager(-time.Minute)

	token, err := m.Issue("user-1", false)
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSecret(t *testing.T) {
	issuer := testManager(time.Hour)
	token, err := issuer.Issue("user-1", false)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "different-secret"
	cfg.Auth.TokenTTL = time.Hour
	verifier := NewTokenManager(cfg)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := testManager(time.Hour)

	_, err := m.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
