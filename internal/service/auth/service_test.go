package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
	"github.com/freelanceflow/api/pkg/config"
	"github.com/freelanceflow/api/pkg/crypto"
	jwtpkg "github.com/freelanceflow/api/pkg/jwt"
)

type userRepoMock struct {
	createFunc     func(ctx context.Context, user *domain.User) error
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	getByIDFunc    func(ctx context.Context, id string) (*domain.User, error)
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, user)
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByEmailFunc(ctx, email)
}

func (m userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByIDFunc(ctx, id)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{JWTSecret: "test-secret", SessionTTL: time.Hour}
}

func TestRegisterHashesPassword(t *testing.T) {
	var stored *domain.User
	repo := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			stored = user
			return nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	user, err := svc.Register(context.Background(), "Ann", "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected user to be persisted")
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Role != "user" {
		t.Fatalf("unexpected default role: %q", user.Role)
	}
	if string(user.PasswordHash) == "longenough1" {
		t.Fatalf("password stored in plaintext")
	}
	if err := crypto.ComparePassword(user.PasswordHash, "longenough1"); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := userRepoMock{
		createFunc: func(_ context.Context, _ *domain.User) error {
			return repository.ErrConflict
		},
	}
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Ann", "a@x.com", "longenough1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginIssuesDecodableToken(t *testing.T) {
	hash, err := crypto.HashPassword("longenough1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "a@x.com" {
				t.Fatalf("unexpected email lookup: %q", email)
			}
			return &domain.User{ID: "user-1", Email: email, Name: "Ann", Role: "admin", PasswordHash: hash}, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	user, token, err := svc.Login(context.Background(), "a@x.com", "longenough1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	claims, err := jwtpkg.Parse(token, "test-secret")
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@x.com" || claims.Name != "Ann" || claims.Role != "admin" {
		t.Fatalf("claims do not match user: %+v", claims)
	}
	if got := claims.ExpiresAt.Unix() - claims.IssuedAt.Unix(); got != 3600 {
		t.Fatalf("expected 3600s token lifetime, got %d", got)
	}
}

func TestLoginUnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	hash, err := crypto.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	known := userRepoMock{
		getByEmailFunc: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Email: "a@x.com", PasswordHash: hash}, nil
		},
	}
	unknown := userRepoMock{}
	svc := New(known, newLogger(), testConfig())

	_, _, errWrongPassword := svc.Login(context.Background(), "a@x.com", "wrong-password")
	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", errWrongPassword)
	}

	svc = New(unknown, newLogger(), testConfig())
	_, _, errNoUser := svc.Login(context.Background(), "nobody@x.com", "whatever")
	if !errors.Is(errNoUser, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", errNoUser)
	}
	if errWrongPassword.Error() != errNoUser.Error() {
		t.Fatalf("error messages differ: %q vs %q", errWrongPassword, errNoUser)
	}
}

func TestResolveFastPathTrustsClaims(t *testing.T) {
	token, err := jwtpkg.GenerateToken("user-1", "a@x.com", "Ann", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	repo := userRepoMock{
		getByIDFunc: func(_ context.Context, _ string) (*domain.User, error) {
			t.Fatalf("fast path must not hit the store")
			return nil, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	session, err := svc.Resolve(context.Background(), token, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != "user-1" || session.Role != "admin" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestResolveAuthoritativeRefreshesProjection(t *testing.T) {
	token, err := jwtpkg.GenerateToken("user-1", "a@x.com", "Ann", "admin", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	repo := userRepoMock{
		getByIDFunc: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				t.Fatalf("unexpected id lookup: %q", id)
			}
			return &domain.User{ID: id, Email: "a@x.com", Name: "Ann Updated", Role: "user"}, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	session, err := svc.Resolve(context.Background(), token, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Name != "Ann Updated" {
		t.Fatalf("expected refreshed name, got %q", session.Name)
	}
	if session.Role != "user" {
		t.Fatalf("expected downgraded role to take effect, got %q", session.Role)
	}
}

func TestResolveExpiredToken(t *testing.T) {
	token, err := jwtpkg.GenerateToken("user-1", "a@x.com", "Ann", "user", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	svc := New(userRepoMock{}, newLogger(), testConfig())

	for _, authoritative := range []bool{false, true} {
		if _, err := svc.Resolve(context.Background(), token, authoritative); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("authoritative=%v: expected ErrUnauthenticated, got %v", authoritative, err)
		}
	}
}

func TestResolveDeletedUser(t *testing.T) {
	token, err := jwtpkg.GenerateToken("user-1", "a@x.com", "Ann", "user", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	svc := New(userRepoMock{}, newLogger(), testConfig())

	if _, err := svc.Resolve(context.Background(), token, true); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for deleted user, got %v", err)
	}
}

func TestResolveMissingToken(t *testing.T) {
	svc := New(userRepoMock{}, newLogger(), testConfig())
	if _, err := svc.Resolve(context.Background(), "  ", false); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
