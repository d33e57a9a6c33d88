package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"technofest/internal/auth"
	apperrors "technofest/internal/errors"
	"technofest/internal/model"
	"technofest/internal/repository"
)

const (
	bcryptCost = 10

	defaultResetTokenTTL = time.Hour
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name            string `json:"fullName" validate:"required,min=3,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	AcceptTerms     bool   `json:"acceptTerms" validate:"required"`
}

// LoginInput is the email/password sign-in form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResetPasswordInput completes a forgot-password flow.
type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

var registerMessages = map[string]string{
	"acceptTerms.required": "You must accept the terms and conditions",
}

// Session is what a successful sign-in returns.
type Session struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

// ResetNotifier delivers password reset tokens.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogResetNotifier writes the reset token to the structured log.
type LogResetNotifier struct{}

func (LogResetNotifier) SendPasswordReset(ctx context.Context, email, token string) error {
	slog.InfoContext(ctx, "password reset requested", slog.String("email", email), slog.String("token", token))
	return nil
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	GoogleAuthURL(state string) (string, error)
	GoogleLogin(ctx context.Context, code string) (*Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string, access *auth.Claims) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in ResetPasswordInput) error
	Me(ctx context.Context, uid string) (*model.User, error)
}

// AuthOption configures optional collaborators of the auth service.
type AuthOption func(*authService)

// WithGoogle enables Google sign-in.
func WithGoogle(p auth.GoogleProvider) AuthOption {
	return func(s *authService) { s.google = p }
}

// WithResetNotifier replaces the log-only reset delivery.
func WithResetNotifier(n ResetNotifier) AuthOption {
	return func(s *authService) { s.notifier = n }
}

// WithResetTokenTTL sets how long a reset token stays valid.
func WithResetTokenTTL(ttl time.Duration) AuthOption {
	return func(s *authService) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

type authService struct {
	credentials repository.CredentialRepository
	users       repository.UserRepository
	admins      repository.AdminRepository
	jwtService  *auth.JWTService
	tokenStore  auth.TokenStoreInterface
	google      auth.GoogleProvider
	notifier    ResetNotifier
	resetTTL    time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	credentials repository.CredentialRepository,
	users repository.UserRepository,
	admins repository.AdminRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	opts ...AuthOption,
) AuthService {
	s := &authService{
		credentials: credentials,
		users:       users,
		admins:      admins,
		jwtService:  jwtService,
		tokenStore:  tokenStore,
		notifier:    LogResetNotifier{},
		resetTTL:    defaultResetTokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the credential and the users/<uid> profile. The account
// starts unverified.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in, registerMessages); err != nil {
		return nil, err
	}

	existing, err := s.credentials.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailInUse
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check credential existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	cred := &model.Credential{
		UID:          uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hashed),
		Provider:     model.ProviderPassword,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	user := model.User{ID: cred.UID, Name: in.Name, Email: in.Email, Role: model.RoleUser}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user record: %w", err)
	}
	slog.InfoContext(ctx, "email verification pending", slog.String("uid", cred.UID), slog.String("email", cred.Email))
	return &user, nil
}

// Login checks the password and issues a session.
func (s *authService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in, nil); err != nil {
		return nil, err
	}

	cred, err := s.findCredential(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if cred.PasswordHash == "" {
		return nil, apperrors.ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperrors.ErrWrongPassword
	}
	return s.issueSession(ctx, cred)
}

func (s *authService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", apperrors.ErrGoogleNotAvailable
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleLogin exchanges an authorization code and signs the user in,
// creating the credential and profile on first use.
func (s *authService) GoogleLogin(ctx context.Context, code string) (*Session, error) {
	if s.google == nil {
		return nil, apperrors.ErrGoogleNotAvailable
	}
	if code == "" {
		return nil, apperrors.ErrPopupClosed
	}
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "google exchange failed", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNetwork, err)
	}

	email := normalizeEmail(profile.Email)
	cred, err := s.credentials.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cred = &model.Credential{
			UID:           uuid.NewString(),
			Email:         email,
			Provider:      model.ProviderGoogle,
			EmailVerified: profile.EmailVerified,
		}
		if err := s.credentials.Create(ctx, cred); err != nil {
			return nil, fmt.Errorf("create credential: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if cred.Disabled {
		return nil, apperrors.ErrUserDisabled
	}

	exists, err := s.users.Exists(ctx, cred.UID)
	if err != nil {
		return nil, fmt.Errorf("check user record: %w", err)
	}
	if !exists {
		user := model.User{ID: cred.UID, Name: profile.Name, Email: email, PhotoURL: profile.Picture, Role: model.RoleUser}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user record: %w", err)
		}
	}
	return s.issueSession(ctx, cred)
}

// RefreshToken validates a refresh token and returns a new access token.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}

	storedUserID, storedEmail, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", apperrors.ErrInvalidToken
	}
	if storedUserID != claims.UserID || storedEmail != claims.Email {
		return "", apperrors.ErrInvalidToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout drops the refresh token and blacklists the access token until it
// would have expired anyway.
func (s *authService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	tokenID, err := s.jwtService.ExtractTokenID(refreshToken)
	if err != nil {
		return apperrors.ErrInvalidToken
	}
	if err := s.tokenStore.DeleteRefreshToken(ctx, tokenID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if access != nil && access.ID != "" {
		if ttl := s.jwtService.Remaining(access); ttl > 0 {
			if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
				return fmt.Errorf("blacklist access token: %w", err)
			}
		}
	}
	return nil
}

// ForgotPassword issues a single-use reset token for a known email.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if validate.Var(email, "required,email") != nil {
		return apperrors.ErrInvalidEmail
	}
	cred, err := s.findCredential(ctx, email)
	if err != nil {
		return err
	}

	token := uuid.NewString()
	if err := s.tokenStore.StoreResetToken(ctx, token, cred.UID, s.resetTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := s.notifier.SendPasswordReset(ctx, cred.Email, token); err != nil {
		return fmt.Errorf("send reset token: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := validateStruct(in, nil); err != nil {
		return err
	}
	uid, err := s.tokenStore.ConsumeResetToken(ctx, in.Token)
	if err != nil {
		return apperrors.ErrInvalidToken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.credentials.UpdatePassword(ctx, uid, string(hashed)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrAccountNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// Me returns the caller's profile with the admin flag resolved.
func (s *authService) Me(ctx context.Context, uid string) (*model.User, error) {
	user, err := s.users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	isAdmin, err := s.admins.IsAdmin(ctx, uid)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	return &user, nil
}

func (s *authService) findCredential(ctx context.Context, email string) (*model.Credential, error) {
	cred, err := s.credentials.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find credential: %w", err)
	}
	if cred.Disabled {
		return nil, apperrors.ErrUserDisabled
	}
	return cred, nil
}

func (s *authService) issueSession(ctx context.Context, cred *model.Credential) (*Session, error) {
	user, err := s.users.Get(ctx, cred.UID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		user = model.User{ID: cred.UID, Email: cred.Email, Role: model.RoleUser}
	case err != nil:
		return nil, err
	}
	user.EmailVerified = cred.EmailVerified
	if user.IsAdmin, err = s.admins.IsAdmin(ctx, cred.UID); err != nil {
		return nil, err
	}

	accessToken, err := s.jwtService.GenerateAccessToken(cred.UID, cred.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(cred.UID, cred.Email)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, cred.UID, cred.Email, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &Session{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
