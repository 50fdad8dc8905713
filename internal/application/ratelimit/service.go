// Package ratelimit bounds authentication attempts per identifier within a
// sliding window, backed by the append-only login attempt log.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/id"
)

// Config is the limiter policy. FailOpen is deliberate and overridable: when
// the attempt store errors, Allow admits the request instead of locking out
// legitimate users on transient infra failure. Deployments that prefer
// fail-closed set it to false.
type Config struct {
	Window      time.Duration
	MaxAttempts int
	Retention   time.Duration
	FailOpen    bool
}

type attemptStore interface {
	Put(ctx context.Context, a *domain.LoginAttempt) error
	CountSince(ctx context.Context, identifier string, since time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, identifier string, cutoff time.Time) error
}

// Service is the per-identifier sliding-window rate limiter. The window
// counts all attempts, success and failure alike. IP addresses are recorded
// for audit but not independently enforced.
type Service struct {
	attempts attemptStore
	cfg      Config
}

func NewService(attempts attemptStore, cfg Config) *Service {
	return &Service{attempts: attempts, cfg: cfg}
}

// Allow reports whether the identifier is under the window cap.
func (s *Service) Allow(ctx context.Context, identifier string) bool {
	count, err := s.attempts.CountSince(ctx, identifier, time.Now().Add(-s.cfg.Window))
	if err != nil {
		slog.Warn("rate limit check failed, applying fail-open policy",
			"identifier", identifier, "fail_open", s.cfg.FailOpen, "err", err)
		return s.cfg.FailOpen
	}
	return count < s.cfg.MaxAttempts
}

// Record appends an attempt and opportunistically prunes attempts older than
// the retention horizon. Both writes are best-effort: a logging failure never
// fails the operation that triggered it.
func (s *Service) Record(ctx context.Context, identifier, ip string, success bool) {
	a := &domain.LoginAttempt{
		Identifier: identifier,
		AttemptID:  id.New(),
		IPAddress:  ip,
		Success:    success,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.attempts.Put(ctx, a); err != nil {
		slog.Warn("failed to record attempt", "identifier", identifier, "err", err)
	}
	if err := s.attempts.DeleteOlderThan(ctx, identifier, time.Now().Add(-s.cfg.Retention)); err != nil {
		slog.Warn("failed to prune stale attempts", "identifier", identifier, "err", err)
	}
}

// Remaining returns how many attempts the identifier has left in the current
// window. Used only for client-facing messaging, never for gating.
func (s *Service) Remaining(ctx context.Context, identifier string) int {
	count, err := s.attempts.CountSince(ctx, identifier, time.Now().Add(-s.cfg.Window))
	if err != nil {
		slog.Warn("remaining-attempts check failed", "identifier", identifier, "err", err)
		return 0
	}
	if remaining := s.cfg.MaxAttempts - count; remaining > 0 {
		return remaining
	}
	return 0
}

// Window exposes the configured window size for retry-after hints.
func (s *Service) Window() time.Duration { return s.cfg.Window }
