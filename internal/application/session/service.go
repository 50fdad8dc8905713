// Package session tracks login sessions independently of token lifetimes.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/id"
)

const (
	fieldIsActive       = "is_active"
	fieldEndedAt        = "ended_at"
	fieldLastActivityAt = "last_activity_at"
)

type sessionStore interface {
	Put(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	QueryActiveByUser(ctx context.Context, userID string) ([]domain.Session, error)
	Update(ctx context.Context, sessionID string, updates map[string]interface{}) error
}

type Service struct {
	sessions sessionStore
}

func NewService(sessions sessionStore) *Service {
	return &Service{sessions: sessions}
}

// Create opens a new active session. Failing to open a session fails the
// login, unlike End and Touch which are best-effort.
func (s *Service) Create(ctx context.Context, userID, deviceInfo string) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		SessionID:      id.New(),
		UserID:         userID,
		DeviceInfo:     deviceInfo,
		IsActive:       true,
		LastActivityAt: now,
		CreatedAt:      now,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// ActiveSessions lists the user's sessions that have not been ended.
func (s *Service) ActiveSessions(ctx context.Context, userID string) ([]domain.Session, error) {
	return s.sessions.QueryActiveByUser(ctx, userID)
}

// End marks a session inactive. Errors are logged, not returned: a session
// row that outlives its logout only costs a stale listing.
func (s *Service) End(ctx context.Context, sessionID string) {
	now := time.Now().UTC()
	err := s.sessions.Update(ctx, sessionID, map[string]interface{}{
		fieldIsActive: false,
		fieldEndedAt:  now.Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn("failed to end session", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

// Touch bumps last_activity_at. Best-effort.
func (s *Service) Touch(ctx context.Context, sessionID string) {
	err := s.sessions.Update(ctx, sessionID, map[string]interface{}{
		fieldLastActivityAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Warn("failed to touch session", slog.String("session_id", sessionID), slog.Any("error", err))
	}
}

// Get returns a session by id.
func (s *Service) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.Get(ctx, sessionID)
}
