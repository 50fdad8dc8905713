// Package token mints and validates the signed access/refresh token pairs.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Token type claims. A token of the wrong type is rejected even when
// otherwise valid.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the JWT payload carried by both token types.
type Claims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

type refreshTokenStore interface {
	Put(ctx context.Context, t *domain.RefreshToken) error
	Get(ctx context.Context, token string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
}

// Service signs HS256 token pairs and keeps refresh tokens server-side so
// they can be revoked independently of their signature validity.
type Service struct {
	refreshTokens refreshTokenStore
	secret        []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(refreshTokens refreshTokenStore, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		refreshTokens: refreshTokens,
		secret:        []byte(secret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// CreateTokens mints an access/refresh pair for userID and persists the
// refresh token with revoked=false.
func (s *Service) CreateTokens(ctx context.Context, userID string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.sign(userID, TypeAccess, now, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshExpiry := now.Add(s.refreshTTL)
	refresh, err := s.sign(userID, TypeRefresh, now, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	rec := &domain.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: refreshExpiry.Unix(),
		Revoked:   false,
		CreatedAt: now,
	}
	if err := s.refreshTokens.Put(ctx, rec); err != nil {
		return nil, err
	}

	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyToken checks signature, expiry and the embedded type claim. Returns
// nil on any failure (expired, malformed, wrong type) without telling the
// caller which, beyond logging.
func (s *Service) VerifyToken(tokenStr, expectedType string) *Claims {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		slog.Warn("token verification failed", "err", err)
		return nil
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		slog.Warn("token claims invalid")
		return nil
	}
	if claims.TokenType != expectedType {
		slog.Warn("token type mismatch", "want", expectedType, "got", claims.TokenType)
		return nil
	}
	return claims
}

// RefreshAccessToken exchanges a refresh token for a fresh pair. The token
// must both verify cryptographically and still be unrevoked server-side; the
// double-check is the core security property of the refresh flow.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims := s.VerifyToken(refreshToken, TypeRefresh)
	if claims == nil {
		return nil, domain.ErrToken
	}

	rec, err := s.refreshTokens.Get(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrToken
		}
		return nil, err
	}
	if rec.Revoked {
		slog.Warn("refresh rejected, token revoked server-side", "user_id", rec.UserID)
		return nil, domain.ErrToken
	}

	return s.CreateTokens(ctx, claims.UserID)
}

// RevokeRefreshToken marks the persisted record revoked. The signature stays
// valid; the server-side flag is what kills it.
func (s *Service) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if claims := s.VerifyToken(refreshToken, TypeRefresh); claims == nil {
		return domain.ErrToken
	}
	return s.refreshTokens.Revoke(ctx, refreshToken)
}

func (s *Service) sign(userID, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
