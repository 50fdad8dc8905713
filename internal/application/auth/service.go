// Package auth orchestrates passwordless registration and verification:
// issue a one-time code over the identifier's channel, then exchange a valid
// code for a user record, a session, and a signed token pair.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-otp-auth/internal/application/user"
	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/pkg/identifier"
)

// RegisterRequest starts a verification for an identifier.
type RegisterRequest struct {
	Channel    domain.Channel
	Identifier string
	Name       string
	IP         string
}

// VerifyRequest exchanges a received code for credentials.
type VerifyRequest struct {
	Channel    domain.Channel
	Identifier string
	Code       string
	IP         string
	DeviceInfo string
}

type verificationStore interface {
	Store(ctx context.Context, v *domain.VerificationCode) error
	Rollback(ctx context.Context, identifier, code string) error
	Consume(ctx context.Context, identifier, code string) (*domain.VerificationCode, error)
}

type codeGenerator interface {
	Generate() (string, error)
}

type notifier interface {
	Send(ctx context.Context, ident domain.Identifier, code string) error
}

type limiter interface {
	Allow(ctx context.Context, identifier string) bool
	Record(ctx context.Context, identifier, ip string, success bool)
	Remaining(ctx context.Context, identifier string) int
	Window() time.Duration
}

type userDirectory interface {
	FindByIdentifier(ctx context.Context, ident domain.Identifier) (*domain.User, error)
	Upsert(ctx context.Context, ident domain.Identifier, name string) (*domain.User, error)
}

type tokenIssuer interface {
	CreateTokens(ctx context.Context, userID string) (*domain.TokenPair, error)
}

type sessionOpener interface {
	Create(ctx context.Context, userID, deviceInfo string) (*domain.Session, error)
}

// Service is the verification flow end to end.
type Service struct {
	verifications verificationStore
	codes         codeGenerator
	notify        notifier
	limiter       limiter
	users         userDirectory
	tokens        tokenIssuer
	sessions      sessionOpener
	otpExpiry     time.Duration
}

func NewService(
	verifications verificationStore,
	codes codeGenerator,
	notify notifier,
	limiter limiter,
	users userDirectory,
	tokens tokenIssuer,
	sessions sessionOpener,
	otpExpiry time.Duration,
) *Service {
	return &Service{
		verifications: verifications,
		codes:         codes,
		notify:        notify,
		limiter:       limiter,
		users:         users,
		tokens:        tokens,
		sessions:      sessions,
		otpExpiry:     otpExpiry,
	}
}

// Register validates the identifier, checks the per-identifier attempt cap,
// stores a fresh one-time code, and delivers it. The stored code is rolled
// back if delivery fails so an undeliverable identifier does not accumulate
// live codes. Every outcome past validation is recorded against the window.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	ident, err := normalize(req.Channel, req.Identifier)
	if err != nil {
		return err
	}

	existing, err := s.users.FindByIdentifier(ctx, ident)
	if err == nil && user.Verified(existing, ident.Channel) {
		return fmt.Errorf("%s already registered: %w", ident.Channel, domain.ErrAlreadyRegistered)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		// Cannot tell whether the identifier is taken; fail closed.
		return err
	}

	key := ident.Key()
	if !s.limiter.Allow(ctx, key) {
		s.limiter.Record(ctx, key, req.IP, false)
		return &domain.RateLimitError{
			Remaining:  s.limiter.Remaining(ctx, key),
			RetryAfter: s.limiter.Window(),
		}
	}

	code, err := s.codes.Generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	now := time.Now().UTC()
	v := &domain.VerificationCode{
		Identifier:  ident.Value,
		Code:        code,
		Channel:     ident.Channel,
		PendingName: req.Name,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.otpExpiry).Unix(),
	}
	if err := s.verifications.Store(ctx, v); err != nil {
		return err
	}

	if err := s.notify.Send(ctx, ident, code); err != nil {
		// Compensate: a code nobody received must not stay redeemable.
		if rbErr := s.verifications.Rollback(ctx, ident.Value, code); rbErr != nil {
			slog.Warn("rollback of undelivered code failed",
				"identifier", key, "err", rbErr)
		}
		s.limiter.Record(ctx, key, req.IP, false)
		return err
	}

	s.limiter.Record(ctx, key, req.IP, true)
	return nil
}

// Verify spends the code and, on success, upserts the user, opens a session,
// and signs a token pair. Verification itself is not gated by the attempt
// window, but its outcome is recorded into it.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*domain.AuthResult, error) {
	ident, err := normalize(req.Channel, req.Identifier)
	if err != nil {
		return nil, err
	}
	key := ident.Key()

	v, err := s.verifications.Consume(ctx, ident.Value, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCode) || errors.Is(err, domain.ErrCodeExpired) {
			s.limiter.Record(ctx, key, req.IP, false)
		}
		return nil, err
	}

	u, err := s.users.Upsert(ctx, ident, v.PendingName)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokens.CreateTokens(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Create(ctx, u.UserID, req.DeviceInfo)
	if err != nil {
		return nil, err
	}

	s.limiter.Record(ctx, key, req.IP, true)
	return &domain.AuthResult{User: u, Tokens: tokens, Session: sess}, nil
}

// normalize canonicalizes the raw identifier for its channel, rejecting
// malformed input before anything is stored or counted.
func normalize(channel domain.Channel, raw string) (domain.Identifier, error) {
	switch channel {
	case domain.ChannelEmail:
		v := strings.ToLower(strings.TrimSpace(raw))
		if !identifier.ValidateEmail(v) {
			return domain.Identifier{}, fmt.Errorf("%w: %w", identifier.ErrInvalidEmail, domain.ErrValidation)
		}
		return domain.Identifier{Channel: domain.ChannelEmail, Value: v}, nil
	case domain.ChannelPhone:
		v, err := identifier.NormalizePhone(raw)
		if err != nil {
			return domain.Identifier{}, fmt.Errorf("%w: %w", err, domain.ErrValidation)
		}
		return domain.Identifier{Channel: domain.ChannelPhone, Value: v}, nil
	default:
		return domain.Identifier{}, fmt.Errorf("unknown channel %q: %w", channel, domain.ErrValidation)
	}
}
