package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	pkgauth "github.com/dharmateja03/GoodTurkey/pkg/auth"
	pkglogger "github.com/dharmateja03/GoodTurkey/pkg/logger"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, time.Time, error)
}

// ClientInfo identifies the caller for audit records.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *UserResponse `json:"user"`
}

// FailurePadder delays a failed login until a minimum time has passed.
type FailurePadder interface {
	WaitFrom(ctx context.Context, start time.Time)
}

// AuthService handles registration and login
type AuthService struct {
	repo        UserRepository
	tokens      TokenIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	padder      FailurePadder
}

func NewAuthService(repo UserRepository, tokens TokenIssuer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger, auditLogger: auditLogger}
}

// SetFailurePadder installs p for failed logins. Without one, failures return
// immediately.
func (s *AuthService) SetFailurePadder(p FailurePadder) {
	s.padder = p
}

func (s *AuthService) pad(ctx context.Context, start time.Time) {
	if s.padder != nil {
		s.padder.WaitFrom(ctx, start)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, email, password, name string, client ClientInfo) (*AuthResponse, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		s.auditRegister(email, client, "weak_password")
		return nil, err
	}

	hashed, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// The unique index on email decides races between concurrent registrations.
	user, err := s.repo.Create(ctx, &models.User{Email: email, PasswordHash: hashed, Name: name})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration failed: email already registered")
			s.auditRegister(email, client, "email_taken")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "register_success",
		UserID:    user.ID,
		Email:     email,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
	})
	return resp, nil
}

// Login checks credentials and returns a fresh access token. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResponse, error) {
	start := time.Now()

	if email = normalizeEmail(email); email == "" {
		s.logger.Warn("login attempt with empty email")
		s.pad(ctx, start)
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogin("", email, client, "invalid_credentials")
			s.pad(ctx, start)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed: invalid credentials")
		s.auditLogin(user.ID, email, client, "invalid_credentials")
		s.pad(ctx, start)
		return nil, models.ErrUnauthorized
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Email:     email,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
		Success:   true,
	})
	return resp, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      &UserResponse{ID: user.ID, Email: user.Email, Name: user.Name},
	}, nil
}

func (s *AuthService) auditRegister(email string, client ClientInfo, reason string) {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "register_failed",
		Email:         email,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		FailureReason: reason,
	})
}

func (s *AuthService) auditLogin(userID, email string, client ClientInfo, reason string) {
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		Email:         email,
		IPAddress:     client.IPAddress,
		UserAgent:     client.UserAgent,
		FailureReason: reason,
	})
}
