package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
	"github.com/freelanceflow/api/pkg/config"
	"github.com/freelanceflow/api/pkg/crypto"
	jwtpkg "github.com/freelanceflow/api/pkg/jwt"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated means no valid session could be resolved.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrEmailTaken signals a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

const defaultRole = "user"

// Service handles registration, login and session resolution.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Register creates a new user with a bcrypt-hashed password.
func (s Service) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(email),
		Name:         strings.TrimSpace(name),
		Role:         defaultRole,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and issues a session token with a fixed
// lifetime. Lookup misses and bad passwords are indistinguishable.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := jwtpkg.GenerateToken(user.ID, user.Email, user.Name, user.Role, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Resolve verifies a session token and returns the identity it proves.
// With authoritative set, the user projection is re-fetched from the store
// so role or name changes since issuance are reflected; without it the
// token claims are trusted as-is, which keeps page-navigation checks off
// the database. Any failure resolves to ErrUnauthenticated.
func (s Service) Resolve(ctx context.Context, token string, authoritative bool) (*domain.Session, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	session := &domain.Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if !authoritative {
		return session, nil
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("session user lookup failed", "error", err, "user_id", claims.UserID)
		}
		return nil, ErrUnauthenticated
	}
	session.Email = user.Email
	session.Name = user.Name
	session.Role = user.Role
	return session, nil
}
