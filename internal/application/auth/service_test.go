package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/go-otp-auth/internal/domain"
)

type mockVerificationStore struct {
	mock.Mock
}

func (m *mockVerificationStore) Store(ctx context.Context, v *domain.VerificationCode) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockVerificationStore) Rollback(ctx context.Context, identifier, code string) error {
	args := m.Called(ctx, identifier, code)
	return args.Error(0)
}

func (m *mockVerificationStore) Consume(ctx context.Context, identifier, code string) (*domain.VerificationCode, error) {
	args := m.Called(ctx, identifier, code)
	if v := args.Get(0); v != nil {
		return v.(*domain.VerificationCode), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCodeGenerator struct {
	mock.Mock
}

func (m *mockCodeGenerator) Generate() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, ident domain.Identifier, code string) error {
	args := m.Called(ctx, ident, code)
	return args.Error(0)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Allow(ctx context.Context, identifier string) bool {
	args := m.Called(ctx, identifier)
	return args.Bool(0)
}

func (m *mockLimiter) Record(ctx context.Context, identifier, ip string, success bool) {
	m.Called(ctx, identifier, ip, success)
}

func (m *mockLimiter) Remaining(ctx context.Context, identifier string) int {
	args := m.Called(ctx, identifier)
	return args.Int(0)
}

func (m *mockLimiter) Window() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) FindByIdentifier(ctx context.Context, ident domain.Identifier) (*domain.User, error) {
	args := m.Called(ctx, ident)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserDirectory) Upsert(ctx context.Context, ident domain.Identifier, name string) (*domain.User, error) {
	args := m.Called(ctx, ident, name)
	if u := args.Get(0); u != nil {
		return u.(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockTokenIssuer struct {
	mock.Mock
}

func (m *mockTokenIssuer) CreateTokens(ctx context.Context, userID string) (*domain.TokenPair, error) {
	args := m.Called(ctx, userID)
	if tp := args.Get(0); tp != nil {
		return tp.(*domain.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionOpener struct {
	mock.Mock
}

func (m *mockSessionOpener) Create(ctx context.Context, userID, deviceInfo string) (*domain.Session, error) {
	args := m.Called(ctx, userID, deviceInfo)
	if s := args.Get(0); s != nil {
		return s.(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixture struct {
	verifications *mockVerificationStore
	codes         *mockCodeGenerator
	notify        *mockNotifier
	limiter       *mockLimiter
	users         *mockUserDirectory
	tokens        *mockTokenIssuer
	sessions      *mockSessionOpener
	svc           *Service
}

func newFixture() *fixture {
	f := &fixture{
		verifications: new(mockVerificationStore),
		codes:         new(mockCodeGenerator),
		notify:        new(mockNotifier),
		limiter:       new(mockLimiter),
		users:         new(mockUserDirectory),
		tokens:        new(mockTokenIssuer),
		sessions:      new(mockSessionOpener),
	}
	f.svc = NewService(
		f.verifications, f.codes, f.notify, f.limiter,
		f.users, f.tokens, f.sessions, 15*time.Minute,
	)
	return f
}

func TestRegister_EmailHappyPath(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "alice@example.com"}

	f.users.On("FindByIdentifier", mock.Anything, ident).Return(nil, domain.ErrNotFound).Once()
	f.limiter.On("Allow", mock.Anything, "email#alice@example.com").Return(true).Once()
	f.codes.On("Generate").Return("482913", nil).Once()
	f.verifications.On("Store", mock.Anything, mock.MatchedBy(func(v *domain.VerificationCode) bool {
		return v.Identifier == "alice@example.com" && v.Code == "482913" &&
			v.Channel == domain.ChannelEmail && v.PendingName == "Alice" &&
			!v.Consumed && v.ExpiresAt > time.Now().Unix()
	})).Return(nil).Once()
	f.notify.On("Send", mock.Anything, ident, "482913").Return(nil).Once()
	f.limiter.On("Record", mock.Anything, "email#alice@example.com", "203.0.113.9", true).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "Alice@Example.com",
		Name:       "Alice",
		IP:         "203.0.113.9",
	})

	require.NoError(t, err)
	f.verifications.AssertExpectations(t)
	f.limiter.AssertExpectations(t)
}

func TestRegister_InvalidEmail(t *testing.T) {
	f := newFixture()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "not-an-email",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	f.verifications.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "taken@example.com"}

	f.users.On("FindByIdentifier", mock.Anything, ident).
		Return(&domain.User{UserID: "u-1", Email: "taken@example.com", EmailVerified: true}, nil).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "taken@example.com",
	})

	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
	f.limiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
}

func TestRegister_UnverifiedUserMayRetry(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelPhone, Value: "+261321234567"}

	// A user row exists but the phone flag was never set; registration
	// proceeds so the user can finish verifying.
	f.users.On("FindByIdentifier", mock.Anything, ident).
		Return(&domain.User{UserID: "u-1", Phone: "+261321234567"}, nil).Once()
	f.limiter.On("Allow", mock.Anything, ident.Key()).Return(true).Once()
	f.codes.On("Generate").Return("123456", nil).Once()
	f.verifications.On("Store", mock.Anything, mock.Anything).Return(nil).Once()
	f.notify.On("Send", mock.Anything, ident, "123456").Return(nil).Once()
	f.limiter.On("Record", mock.Anything, ident.Key(), "", true).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelPhone,
		Identifier: "+261 32 123 4567",
	})
	require.NoError(t, err)
}

func TestRegister_RateLimited(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "busy@example.com"}

	f.users.On("FindByIdentifier", mock.Anything, ident).Return(nil, domain.ErrNotFound).Once()
	f.limiter.On("Allow", mock.Anything, ident.Key()).Return(false).Once()
	f.limiter.On("Record", mock.Anything, ident.Key(), "1.2.3.4", false).Once()
	f.limiter.On("Remaining", mock.Anything, ident.Key()).Return(0).Once()
	f.limiter.On("Window").Return(15 * time.Minute).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "busy@example.com",
		IP:         "1.2.3.4",
	})

	require.ErrorIs(t, err, domain.ErrRateLimited)
	var rle *domain.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, 15*time.Minute, rle.RetryAfter)
	f.verifications.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	f.limiter.AssertExpectations(t)
}

func TestRegister_SendFailureRollsBackCode(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelPhone, Value: "+8613812345678"}

	f.users.On("FindByIdentifier", mock.Anything, ident).Return(nil, domain.ErrNotFound).Once()
	f.limiter.On("Allow", mock.Anything, ident.Key()).Return(true).Once()
	f.codes.On("Generate").Return("654321", nil).Once()
	f.verifications.On("Store", mock.Anything, mock.Anything).Return(nil).Once()
	f.notify.On("Send", mock.Anything, ident, "654321").Return(domain.ErrNotificationFailed).Once()
	f.verifications.On("Rollback", mock.Anything, "+8613812345678", "654321").Return(nil).Once()
	f.limiter.On("Record", mock.Anything, ident.Key(), "", false).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelPhone,
		Identifier: "+8613812345678",
	})

	assert.ErrorIs(t, err, domain.ErrNotificationFailed)
	f.verifications.AssertExpectations(t)
	f.limiter.AssertExpectations(t)
}

func TestRegister_RollbackFailureStillReturnsSendError(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "a@b.com"}

	f.users.On("FindByIdentifier", mock.Anything, ident).Return(nil, domain.ErrNotFound).Once()
	f.limiter.On("Allow", mock.Anything, ident.Key()).Return(true).Once()
	f.codes.On("Generate").Return("111222", nil).Once()
	f.verifications.On("Store", mock.Anything, mock.Anything).Return(nil).Once()
	f.notify.On("Send", mock.Anything, ident, "111222").Return(domain.ErrNotificationFailed).Once()
	f.verifications.On("Rollback", mock.Anything, "a@b.com", "111222").
		Return(domain.ErrStorage).Once()
	f.limiter.On("Record", mock.Anything, ident.Key(), "", false).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "a@b.com",
	})

	assert.ErrorIs(t, err, domain.ErrNotificationFailed)
}

func TestRegister_DirectoryLookupErrorFailsClosed(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "a@b.com"}

	f.users.On("FindByIdentifier", mock.Anything, ident).
		Return(nil, domain.ErrStorage).Once()

	err := f.svc.Register(context.Background(), RegisterRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "a@b.com",
	})

	assert.ErrorIs(t, err, domain.ErrStorage)
	f.limiter.AssertNotCalled(t, "Allow", mock.Anything, mock.Anything)
}

func TestVerify_HappyPath(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "alice@example.com"}
	user := &domain.User{UserID: "u-1", Email: "alice@example.com", EmailVerified: true}
	pair := &domain.TokenPair{AccessToken: "acc", RefreshToken: "ref"}
	sess := &domain.Session{SessionID: "s-1", UserID: "u-1", IsActive: true}

	f.verifications.On("Consume", mock.Anything, "alice@example.com", "482913").
		Return(&domain.VerificationCode{
			Identifier:  "alice@example.com",
			Code:        "482913",
			Channel:     domain.ChannelEmail,
			PendingName: "Alice",
		}, nil).Once()
	f.users.On("Upsert", mock.Anything, ident, "Alice").Return(user, nil).Once()
	f.tokens.On("CreateTokens", mock.Anything, "u-1").Return(pair, nil).Once()
	f.sessions.On("Create", mock.Anything, "u-1", "Mozilla/5.0").Return(sess, nil).Once()
	f.limiter.On("Record", mock.Anything, ident.Key(), "1.2.3.4", true).Once()

	res, err := f.svc.Verify(context.Background(), VerifyRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "alice@example.com",
		Code:       "482913",
		IP:         "1.2.3.4",
		DeviceInfo: "Mozilla/5.0",
	})

	require.NoError(t, err)
	assert.Equal(t, "u-1", res.User.UserID)
	assert.Equal(t, "acc", res.Tokens.AccessToken)
	assert.Equal(t, "s-1", res.Session.SessionID)
	f.limiter.AssertExpectations(t)
}

func TestVerify_InvalidCodeRecordsFailure(t *testing.T) {
	f := newFixture()
	ident := domain.Identifier{Channel: domain.ChannelEmail, Value: "alice@example.com"}

	f.verifications.On("Consume", mock.Anything, "alice@example.com", "000000").
		Return(nil, domain.ErrInvalidCode).Once()
	f.limiter.On("Record", mock.Anything, ident.Key(), "", false).Once()

	_, err := f.svc.Verify(context.Background(), VerifyRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "alice@example.com",
		Code:       "000000",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidCode)
	f.limiter.AssertExpectations(t)
	f.users.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_ExpiredCode(t *testing.T) {
	f := newFixture()

	f.verifications.On("Consume", mock.Anything, "alice@example.com", "482913").
		Return(nil, domain.ErrCodeExpired).Once()
	f.limiter.On("Record", mock.Anything, mock.Anything, mock.Anything, false).Once()

	_, err := f.svc.Verify(context.Background(), VerifyRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "alice@example.com",
		Code:       "482913",
	})

	assert.ErrorIs(t, err, domain.ErrCodeExpired)
}

func TestVerify_StorageErrorNotRecorded(t *testing.T) {
	f := newFixture()

	f.verifications.On("Consume", mock.Anything, "alice@example.com", "482913").
		Return(nil, errors.New("dynamo down")).Once()

	_, err := f.svc.Verify(context.Background(), VerifyRequest{
		Channel:    domain.ChannelEmail,
		Identifier: "alice@example.com",
		Code:       "482913",
	})

	require.Error(t, err)
	f.limiter.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_InvalidPhone(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Verify(context.Background(), VerifyRequest{
		Channel:    domain.ChannelPhone,
		Identifier: "+4915112345678",
		Code:       "123456",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
}
