// Package user is the directory of user records keyed by verified identifier.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/go-otp-auth/internal/infrastructure/dynamo"
	"github.com/go-otp-auth/internal/pkg/id"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmailVerified = "email_verified"
	fieldPhoneVerified = "phone_verified"
	fieldAuthType      = "auth_type"
	fieldName          = "name"
)

type userStore interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	ResolveIdentifier(ctx context.Context, key string) (string, error)
	ClaimIdentifier(ctx context.Context, key, userID string) error
}

// Service owns user rows. Each channel upserts independently: an email
// verification and a phone verification never merge into one record, they
// each resolve through their own identifier pointer.
type Service struct {
	users userStore
}

func NewService(users userStore) *Service {
	return &Service{users: users}
}

// FindByIdentifier returns the user holding the identifier, or ErrNotFound.
func (s *Service) FindByIdentifier(ctx context.Context, ident domain.Identifier) (*domain.User, error) {
	userID, err := s.users.ResolveIdentifier(ctx, ident.Key())
	if err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

// Upsert creates or updates the user for a just-verified identifier, setting
// the channel's verified flag and recording which channel drove the
// verification. Idempotent: the identifier pointer's conditional write makes
// exactly one of two concurrent creators win; the loser converges to an
// update-in-place of the winner's record. The claim is taken before the user
// row is written, so a lost claim leaves nothing behind to clean up.
func (s *Service) Upsert(ctx context.Context, ident domain.Identifier, name string) (*domain.User, error) {
	userID, err := s.users.ResolveIdentifier(ctx, ident.Key())
	switch {
	case err == nil:
		return s.update(ctx, userID, ident, name)
	case errors.Is(err, domain.ErrNotFound):
		// fall through to create
	default:
		return nil, err
	}

	u := newUser(ident, name)
	if err := s.users.ClaimIdentifier(ctx, ident.Key(), u.UserID); err != nil {
		if errors.Is(err, dynamo.ErrIdentifierClaimed) {
			// A concurrent upsert won the claim; converge on its record.
			winnerID, rerr := s.users.ResolveIdentifier(ctx, ident.Key())
			if rerr != nil {
				return nil, rerr
			}
			return s.update(ctx, winnerID, ident, name)
		}
		return nil, err
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) update(ctx context.Context, userID string, ident domain.Identifier, name string) (*domain.User, error) {
	updates := map[string]interface{}{
		verifiedField(ident.Channel): true,
		fieldAuthType:                string(ident.Channel),
	}
	if name != "" {
		updates[fieldName] = name
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

func newUser(ident domain.Identifier, name string) *domain.User {
	now := time.Now().UTC()
	u := &domain.User{
		UserID:    id.New(),
		Name:      name,
		AuthType:  ident.Channel,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch ident.Channel {
	case domain.ChannelEmail:
		u.Email = ident.Value
		u.EmailVerified = true
	case domain.ChannelPhone:
		u.Phone = ident.Value
		u.PhoneVerified = true
	}
	return u
}

func verifiedField(c domain.Channel) string {
	if c == domain.ChannelPhone {
		return fieldPhoneVerified
	}
	return fieldEmailVerified
}

// Verified reports whether the user's flag for the given channel is set.
func Verified(u *domain.User, c domain.Channel) bool {
	if u == nil {
		return false
	}
	if c == domain.ChannelPhone {
		return u.PhoneVerified
	}
	return u.EmailVerified
}
