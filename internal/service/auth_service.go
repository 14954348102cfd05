package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"dataridge/internal/auth"
	apperrors "dataridge/internal/errors"
	"dataridge/internal/metrics"
	"dataridge/internal/model"
	"dataridge/internal/repository"
)

const (
	msgCredentialsRequired = "Email and password are required."
	msgEmailExists         = "Email already exists."
	msgInvalidCredentials  = "Invalid credentials."
	msgRegistrationFailed  = "Registration failed."
	msgLoginFailed         = "Login failed."
	msgRefreshFailed       = "Token refresh failed."
)

// Tokens is the pair issued on a successful login.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.PublicUser, error)
	Login(ctx context.Context, email, password string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
}

type authService struct {
	users   repository.UserRepository
	hasher  auth.PasswordHasher
	tokens  *auth.TokenIssuer
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenIssuer,
	log *zap.Logger,
	m *metrics.Metrics,
) AuthService {
	return &authService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		log:     log.Named("auth"),
		metrics: m,
	}
}

// Register creates a new user with a hashed password.
func (s *authService) Register(ctx context.Context, email, password string) (user *model.PublicUser, err error) {
	defer func() { s.observe("register", err) }()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.Validation(msgCredentialsRequired)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Error("hash password", zap.Error(err))
		return nil, apperrors.Internal(msgRegistrationFailed, err)
	}

	record := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, record); err != nil {
		// The unique index on email arbitrates concurrent registrations.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(msgEmailExists)
		}
		s.log.Error("create user", zap.Error(err))
		return nil, apperrors.Internal(msgRegistrationFailed, err)
	}

	public := record.Public()
	return &public, nil
}

// Login authenticates a user and returns access and refresh tokens.
// Unknown email and wrong password produce the same error.
func (s *authService) Login(ctx context.Context, email, password string) (tokens *Tokens, err error) {
	defer func() { s.observe("login", err) }()

	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.Validation(msgCredentialsRequired)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Authentication(msgInvalidCredentials)
		}
		s.log.Error("find user by email", zap.Error(err))
		return nil, apperrors.Internal(msgLoginFailed, err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error("verify password", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, apperrors.Internal(msgLoginFailed, err)
	}
	if !ok {
		return nil, apperrors.Authentication(msgInvalidCredentials)
	}

	access, err := s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, apperrors.Internal(msgLoginFailed, err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal(msgLoginFailed, err)
	}

	return &Tokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (accessToken string, err error) {
	defer func() { s.observe("refresh", err) }()

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.InvalidToken(err)
		}
		s.log.Error("find user by id", zap.String("user_id", claims.UserID.String()), zap.Error(err))
		return "", apperrors.Internal(msgRefreshFailed, err)
	}

	accessToken, err = s.tokens.IssueAccessToken(user.ID, user.Email)
	if err != nil {
		return "", apperrors.Internal(msgRefreshFailed, err)
	}
	return accessToken, nil
}

func (s *authService) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	s.metrics.ObserveAuth(operation, outcome)
}
