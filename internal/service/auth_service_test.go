package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"technofest/internal/auth"
	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/repository"
	"technofest/internal/store"
)

// MockCredentialRepository is a mock implementation of CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepository) FindByUID(ctx context.Context, uid string) (*model.Credential, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Credential), args.Error(1)
}

func (m *MockCredentialRepository) UpdatePassword(ctx context.Context, uid, hash string) error {
	args := m.Called(ctx, uid, hash)
	return args.Error(0)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID, userID, email string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, email, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (string, string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) StoreResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	args := m.Called(ctx, token, userID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

// MockGoogleProvider is a mock implementation of GoogleProvider.
type MockGoogleProvider struct {
	mock.Mock
}

func (m *MockGoogleProvider) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockGoogleProvider) Exchange(ctx context.Context, code string) (*auth.GoogleProfile, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.GoogleProfile), args.Error(1)
}

type capturedReset struct {
	email, token string
}

type captureNotifier struct {
	sent []capturedReset
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, email, token string) error {
	n.sent = append(n.sent, capturedReset{email, token})
	return nil
}

type authFixture struct {
	creds  *MockCredentialRepository
	tokens *MockTokenStore
	mem    *store.Memory
	jwt    *auth.JWTService
	svc    AuthService
}

func newAuthFixture(t *testing.T, opts ...AuthOption) *authFixture {
	t.Helper()
	f := &authFixture{
		creds:  new(MockCredentialRepository),
		tokens: new(MockTokenStore),
		mem:    store.NewMemory(),
		jwt:    auth.NewJWTService("test-secret"),
	}
	f.svc = NewAuthService(f.creds, repository.NewUserRepository(f.mem), repository.NewAdminRepository(f.mem), f.jwt, f.tokens, opts...)
	return f
}

func hashOf(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:            "Ana Lopez",
		Email:           "Ana@Fest.io ",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		AcceptTerms:     true,
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*RegisterInput)
		setupMocks func(*MockCredentialRepository)
		wantErr    error
		wantFields map[string]string
	}{
		{
			name: "success",
			setupMocks: func(creds *MockCredentialRepository) {
				creds.On("FindByEmail", mock.Anything, "ana@fest.io").Return(nil, gorm.ErrRecordNotFound)
				creds.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Credential) bool {
					return c.Email == "ana@fest.io" && c.Provider == model.ProviderPassword && !c.EmailVerified &&
						bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte("secret1")) == nil
				})).Return(nil)
			},
		},
		{
			name: "email already in use",
			setupMocks: func(creds *MockCredentialRepository) {
				creds.On("FindByEmail", mock.Anything, "ana@fest.io").Return(&model.Credential{UID: "u0"}, nil)
			},
			wantErr: apperrors.ErrEmailInUse,
		},
		{
			name:   "short name",
			mutate: func(in *RegisterInput) { in.Name = "Al" },
			wantFields: map[string]string{
				"fullName": "Must be at least 3 characters",
			},
		},
		{
			name: "several bad fields",
			mutate: func(in *RegisterInput) {
				in.Email = "not-an-email"
				in.ConfirmPassword = "other"
				in.AcceptTerms = false
			},
			wantFields: map[string]string{
				"email":           "Please enter a valid email address",
				"confirmPassword": "Passwords do not match",
				"acceptTerms":     "You must accept the terms and conditions",
			},
		},
		{
			name:   "blank fields",
			mutate: func(in *RegisterInput) { in.Name = "   "; in.Password = "" },
			wantFields: map[string]string{
				"fullName":        "This field is required",
				"password":        "This field is required",
				"confirmPassword": "Passwords do not match",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.setupMocks != nil {
				tt.setupMocks(f.creds)
			}
			in := validRegisterInput()
			if tt.mutate != nil {
				tt.mutate(&in)
			}

			user, err := f.svc.Register(context.Background(), in)

			switch {
			case tt.wantFields != nil:
				var verr *apperrors.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantFields, verr.Fields)
				f.creds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Ana Lopez", user.Name)
				assert.Equal(t, model.RoleUser, user.Role)

				stored, err := f.mem.Get(context.Background(), store.Users, user.ID)
				require.NoError(t, err)
				assert.Equal(t, "ana@fest.io", stored.String("email"))
				assert.Equal(t, "user", stored.String("role"))
				assert.True(t, stored.Has("createdAt"))
			}
			f.creds.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	active := &model.Credential{UID: "u1", Email: "ana@fest.io", PasswordHash: hashOf(t, "secret1"), EmailVerified: true}

	tests := []struct {
		name     string
		password string
		cred     *model.Credential
		findErr  error
		wantErr  error
	}{
		{name: "success", password: "secret1", cred: active},
		{name: "wrong password", password: "nope", cred: active, wantErr: apperrors.ErrWrongPassword},
		{name: "unknown email", password: "secret1", findErr: gorm.ErrRecordNotFound, wantErr: apperrors.ErrAccountNotFound},
		{name: "disabled", password: "secret1", cred: &model.Credential{UID: "u2", Email: "ana@fest.io", Disabled: true}, wantErr: apperrors.ErrUserDisabled},
		{name: "google account has no password", password: "secret1", cred: &model.Credential{UID: "u3", Email: "ana@fest.io", Provider: model.ProviderGoogle}, wantErr: apperrors.ErrWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			if tt.cred != nil {
				f.creds.On("FindByEmail", mock.Anything, "ana@fest.io").Return(tt.cred, nil)
			} else {
				f.creds.On("FindByEmail", mock.Anything, "ana@fest.io").Return(nil, tt.findErr)
			}
			f.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, "u1", "ana@fest.io", auth.RefreshTokenExpiry).Return(nil).Maybe()

			session, err := f.svc.Login(context.Background(), LoginInput{Email: "ana@fest.io", Password: tt.password})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
				f.tokens.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			claims, err := f.jwt.ValidateToken(session.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "u1", claims.UserID)
			assert.Equal(t, "u1", session.User.ID)
			assert.True(t, session.User.EmailVerified)
			assert.NotEmpty(t, session.RefreshToken)
			f.tokens.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginValidatesInput(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), LoginInput{Email: "bad", Password: ""})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please enter a valid email address", verr.Fields["email"])
	assert.Equal(t, "This field is required", verr.Fields["password"])
	f.creds.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_SessionCarriesAdminFlag(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, repository.NewAdminRepository(f.mem).Grant(ctx, "u1"))
	f.creds.On("FindByEmail", mock.Anything, "ana@fest.io").
		Return(&model.Credential{UID: "u1", Email: "ana@fest.io", PasswordHash: hashOf(t, "secret1")}, nil)
	f.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, "u1", "ana@fest.io", mock.Anything).Return(nil)

	session, err := f.svc.Login(ctx, LoginInput{Email: "ana@fest.io", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin)
	assert.Equal(t, model.RoleUser, session.User.Role)
}

func TestAuthService_RefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	tokenID, refresh, err := f.jwt.GenerateRefreshToken("u1", "ana@fest.io")
	require.NoError(t, err)

	f.tokens.On("GetRefreshToken", mock.Anything, tokenID).Return("u1", "ana@fest.io", nil).Once()
	access, err := f.svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	f.tokens.On("GetRefreshToken", mock.Anything, tokenID).Return("", "", errors.New("token not found")).Once()
	_, err = f.svc.RefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = f.svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestAuthService_LogoutBlacklistsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	tokenID, refresh, err := f.jwt.GenerateRefreshToken("u1", "ana@fest.io")
	require.NoError(t, err)
	access, err := f.jwt.GenerateAccessToken("u1", "ana@fest.io")
	require.NoError(t, err)
	claims, err := f.jwt.ValidateToken(access)
	require.NoError(t, err)

	f.tokens.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)
	f.tokens.On("BlacklistAccessToken", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 0 && ttl <= auth.AccessTokenExpiry
	})).Return(nil)

	require.NoError(t, f.svc.Logout(ctx, refresh, claims))
	f.tokens.AssertExpectations(t)

	assert.ErrorIs(t, f.svc.Logout(ctx, "garbage", nil), apperrors.ErrInvalidToken)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	notifier := &captureNotifier{}
	f := newAuthFixture(t, WithResetNotifier(notifier), WithResetTokenTTL(30*time.Minute))
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "not-an-email"), apperrors.ErrInvalidEmail)

	f.creds.On("FindByEmail", mock.Anything, "ghost@fest.io").Return(nil, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "ghost@fest.io"), apperrors.ErrAccountNotFound)

	f.creds.On("FindByEmail", mock.Anything, "ana@fest.io").Return(&model.Credential{UID: "u1", Email: "ana@fest.io"}, nil)
	f.tokens.On("StoreResetToken", mock.Anything, mock.AnythingOfType("string"), "u1", 30*time.Minute).Return(nil)
	require.NoError(t, f.svc.ForgotPassword(ctx, " ANA@fest.io"))

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "ana@fest.io", notifier.sent[0].email)
	assert.NotEmpty(t, notifier.sent[0].token)
	f.tokens.AssertExpectations(t)
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.tokens.On("ConsumeResetToken", mock.Anything, "good").Return("u1", nil)
	f.tokens.On("ConsumeResetToken", mock.Anything, "used").Return("", errors.New("token not found"))
	f.creds.On("UpdatePassword", mock.Anything, "u1", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpass1")) == nil
	})).Return(nil)

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "good", Password: "newpass1", ConfirmPassword: "newpass1"}))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "used", Password: "newpass1", ConfirmPassword: "newpass1"}), apperrors.ErrInvalidToken)

	err := f.svc.ResetPassword(ctx, ResetPasswordInput{Token: "good", Password: "abc", ConfirmPassword: "abc"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Must be at least 6 characters", verr.Fields["password"])
	f.creds.AssertExpectations(t)
}

func TestAuthService_GoogleLoginCreatesProfileOnce(t *testing.T) {
	google := new(MockGoogleProvider)
	f := newAuthFixture(t, WithGoogle(google))
	ctx := context.Background()

	google.On("Exchange", mock.Anything, "code-1").Return(&auth.GoogleProfile{
		Subject: "g-1", Email: "Gia@fest.io", EmailVerified: true, Name: "Gia", Picture: "https://img/gia.png",
	}, nil)

	var created *model.Credential
	f.creds.On("FindByEmail", mock.Anything, "gia@fest.io").Return(nil, gorm.ErrRecordNotFound).Once()
	f.creds.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*model.Credential)
	}).Return(nil).Once()
	f.tokens.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "gia@fest.io", mock.Anything).Return(nil)

	session, err := f.svc.GoogleLogin(ctx, "code-1")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, model.ProviderGoogle, created.Provider)
	assert.Equal(t, "Gia", session.User.Name)
	assert.Equal(t, "https://img/gia.png", session.User.PhotoURL)
	assert.True(t, session.User.EmailVerified)

	f.creds.On("FindByEmail", mock.Anything, "gia@fest.io").Return(created, nil)
	again, err := f.svc.GoogleLogin(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, again.User.ID)
	f.creds.AssertNumberOfCalls(t, "Create", 1)
}

func TestAuthService_GoogleErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newAuthFixture(t).svc.GoogleLogin(ctx, "code")
	assert.ErrorIs(t, err, apperrors.ErrGoogleNotAvailable)
	_, err = newAuthFixture(t).svc.GoogleAuthURL("state")
	assert.ErrorIs(t, err, apperrors.ErrGoogleNotAvailable)

	google := new(MockGoogleProvider)
	f := newAuthFixture(t, WithGoogle(google))
	_, err = f.svc.GoogleLogin(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrPopupClosed)

	google.On("Exchange", mock.Anything, "bad").Return(nil, errors.New("dial tcp: timeout"))
	_, err = f.svc.GoogleLogin(ctx, "bad")
	assert.ErrorIs(t, err, apperrors.ErrNetwork)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Me(ctx, "u1")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	require.NoError(t, repository.NewUserRepository(f.mem).Create(ctx, model.User{ID: "u1", Name: "Ana", Email: "ana@fest.io"}))
	require.NoError(t, repository.NewAdminRepository(f.mem).Grant(ctx, "u1"))

	me, err := f.svc.Me(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
	assert.True(t, me.IsAdmin)
}
