package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, err := svc.IssueAccessToken("user-1", "alice")
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	sub, err := svc.Verify(access, ports.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	sub, err = svc.Verify(refresh, ports.TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokensUniquePerIssuance(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)

	// Back-to-back issuance lands within one clock second; the jti claim
	// must still make every token distinct or refresh rotation would write
	// the presented value back unchanged.
	r1, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)
	r2, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, r1, r2)

	a1, err := svc.IssueAccessToken("user-1", "alice")
	require.NoError(t, err)
	a2, err := svc.IssueAccessToken("user-1", "alice")
	require.NoError(t, err)
	assert.NotEqual(t, a1, a2)
}

func TestTokenKindsDoNotCross(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)

	access, err := svc.IssueAccessToken("user-1", "alice")
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.Verify(access, ports.TokenRefresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = svc.Verify(refresh, ports.TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenExpiry(t *testing.T) {
	// NewTokenService maps non-positive TTLs to defaults, so build the issuer
	// directly to mint an already-expired token.
	svc := &TokenService{
		accessSecret:  []byte("access-secret"),
		refreshSecret: []byte("refresh-secret"),
		accessTTL:     -time.Minute,
		refreshTTL:    time.Hour,
	}

	access, err := svc.IssueAccessToken("user-1", "alice")
	require.NoError(t, err)

	_, err = svc.Verify(access, ports.TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)
	verifier := NewTokenService("other-secret", "refresh-secret", time.Minute, time.Hour)

	access, err := issuer.IssueAccessToken("user-1", "alice")
	require.NoError(t, err)

	_, err = verifier.Verify(access, ports.TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenGarbageInput(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Minute, time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(token, ports.TokenAccess)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "token %q", token)
	}
}

func TestDefaultTTLs(t *testing.T) {
	svc := NewTokenService("a", "r", 0, 0)
	assert.Equal(t, defaultAccessTTL, svc.accessTTL)
	assert.Equal(t, defaultRefreshTTL, svc.refreshTTL)
}
