package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidhub/platform-api/internal/core/domain"
	"github.com/vidhub/platform-api/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 10 * 24 * time.Hour
)

// TokenService issues and verifies HS256 session tokens. Access and refresh
// tokens are signed with distinct secrets and carry a typ claim, so a token
// of one kind can never pass verification as the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (s *TokenService) IssueAccessToken(userID, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"typ":      string(ports.TokenAccess),
		"jti":      uuid.NewString(),
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(s.accessTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.accessSecret)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	// jti disambiguates tokens minted within the same clock second; without
	// it a login followed by an immediate refresh would rotate the slot to a
	// byte-identical value and the old token would keep matching.
	claims := jwt.MapClaims{
		"sub": userID,
		"typ": string(ports.TokenRefresh),
		"jti": uuid.NewString(),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.refreshTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.refreshSecret)
}

// Verify checks signature, expiry, and kind, returning the subject user id.
// Any failure collapses to domain.ErrInvalidToken; callers resolve the
// subject themselves and surface ErrUserNotFound when the id is stale.
func (s *TokenService) Verify(token string, kind ports.TokenKind) (string, error) {
	secret := s.accessSecret
	if kind == ports.TokenRefresh {
		secret = s.refreshSecret
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	if typ, _ := claims["typ"].(string); typ != string(kind) {
		return "", fmt.Errorf("%w: wrong token type", domain.ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return sub, nil
}
