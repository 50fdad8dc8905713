package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/go-otp-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockAttemptStore struct{ mock.Mock }

func (m *mockAttemptStore) Put(ctx context.Context, a *domain.LoginAttempt) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAttemptStore) CountSince(ctx context.Context, identifier string, since time.Time) (int, error) {
	args := m.Called(ctx, identifier, since)
	return args.Int(0), args.Error(1)
}
func (m *mockAttemptStore) DeleteOlderThan(ctx context.Context, identifier string, cutoff time.Time) error {
	return m.Called(ctx, identifier, cutoff).Error(0)
}

func testConfig(failOpen bool) Config {
	return Config{
		Window:      15 * time.Minute,
		MaxAttempts: 5,
		Retention:   24 * time.Hour,
		FailOpen:    failOpen,
	}
}

func TestAllow_UnderLimit(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(4, nil)

	svc := NewService(st, testConfig(true))
	assert.True(t, svc.Allow(context.Background(), "a@b.com"))
}

func TestAllow_AtLimit(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(5, nil)

	svc := NewService(st, testConfig(true))
	assert.False(t, svc.Allow(context.Background(), "a@b.com"))
}

func TestAllow_StorageError_FailOpen(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(0, domain.ErrStorage)

	svc := NewService(st, testConfig(true))
	assert.True(t, svc.Allow(context.Background(), "a@b.com"))
}

func TestAllow_StorageError_FailClosed(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(0, domain.ErrStorage)

	svc := NewService(st, testConfig(false))
	assert.False(t, svc.Allow(context.Background(), "a@b.com"))
}

func TestAllow_CountsWindowStart(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.MatchedBy(func(since time.Time) bool {
		// Window start must sit ~15m in the past.
		d := time.Until(since)
		return d < -14*time.Minute && d > -16*time.Minute
	})).Return(0, nil)

	svc := NewService(st, testConfig(true))
	assert.True(t, svc.Allow(context.Background(), "a@b.com"))
	st.AssertExpectations(t)
}

func TestRecord_AppendsAndPrunes(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("Put", mock.Anything, mock.MatchedBy(func(a *domain.LoginAttempt) bool {
		return a.Identifier == "a@b.com" && a.IPAddress == "1.2.3.4" && !a.Success && a.AttemptID != ""
	})).Return(nil)
	st.On("DeleteOlderThan", mock.Anything, "a@b.com", mock.Anything).Return(nil)

	svc := NewService(st, testConfig(true))
	svc.Record(context.Background(), "a@b.com", "1.2.3.4", false)
	st.AssertExpectations(t)
}

func TestRecord_StorageError_Swallowed(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("Put", mock.Anything, mock.Anything).Return(domain.ErrStorage)
	st.On("DeleteOlderThan", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrStorage)

	svc := NewService(st, testConfig(true))
	// Must not panic or propagate; attempt logging is best-effort.
	svc.Record(context.Background(), "a@b.com", "1.2.3.4", true)
	st.AssertExpectations(t)
}

func TestRemaining(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(3, nil)

	svc := NewService(st, testConfig(true))
	assert.Equal(t, 2, svc.Remaining(context.Background(), "a@b.com"))
}

func TestRemaining_ClampedAtZero(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(9, nil)

	svc := NewService(st, testConfig(true))
	assert.Equal(t, 0, svc.Remaining(context.Background(), "a@b.com"))
}

func TestRemaining_StorageError(t *testing.T) {
	st := &mockAttemptStore{}
	st.On("CountSince", mock.Anything, "a@b.com", mock.Anything).Return(0, domain.ErrStorage)

	svc := NewService(st, testConfig(true))
	assert.Equal(t, 0, svc.Remaining(context.Background(), "a@b.com"))
}
