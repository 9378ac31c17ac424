package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
	"github.com/freelanceflow/api/internal/service/activity"
	"github.com/freelanceflow/api/internal/service/auth"
	"github.com/freelanceflow/api/internal/service/client"
	"github.com/freelanceflow/api/internal/service/invoice"
	"github.com/freelanceflow/api/internal/service/project"
	"github.com/freelanceflow/api/internal/service/timeentry"
	"github.com/freelanceflow/api/pkg/config"
)

type userStore struct {
	mu      sync.Mutex
	byEmail map[string]*domain.User
	byID    map[string]*domain.User
}

func newUserStore() *userStore {
	return &userStore{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[string]*domain.User),
	}
}

func (s *userStore) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return repository.ErrConflict
	}
	copied := *user
	s.byEmail[user.Email] = &copied
	s.byID[user.ID] = &copied
	return nil
}

func (s *userStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func testConfig(t *testing.T) config.APIConfig {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatalf("write index.html: %v", err)
	}
	return config.APIConfig{
		Environment:       "test",
		JWTSecret:         "router-test-secret",
		SessionTTL:        time.Hour,
		SessionCookieName: "auth_token",
		StaticDir:         dir,
	}
}

func newTestRouter(t *testing.T) (*Router, *userStore, config.APIConfig) {
	t.Helper()
	cfg := testConfig(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := newUserStore()
	authSvc := auth.New(users, log, cfg)
	router := NewRouter(log, cfg, authSvc, client.Service{}, project.Service{}, invoice.Service{}, timeentry.Service{}, activity.Service{}, NewMemoryRateLimiter(), nil)
	t.Cleanup(router.Close)
	return router, users, cfg
}

func postJSON(t *testing.T, router *Router, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginMeFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("register response leaks password material: %s", rec.Body.String())
	}
	var registered struct {
		Message string `json:"message"`
		User    struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered.User.ID == "" {
		t.Fatal("register response missing user id")
	}
	if registered.Message != "User registered successfully" {
		t.Errorf("register message = %q, want User registered successfully", registered.Message)
	}

	rec = postJSON(t, router, "/api/auth/login", `{"email":"ada@example.com","password":"hunter22"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var loggedIn struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loggedIn); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loggedIn.Message != "Login successful" {
		t.Errorf("login message = %q, want Login successful", loggedIn.Message)
	}
	cookies := rec.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == "auth_token" {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatal("login did not set the session cookie")
	}
	if !session.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if session.MaxAge != 3600 {
		t.Errorf("session cookie MaxAge = %d, want 3600", session.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(session)
	meRec := httptest.NewRecorder()
	router.ServeHTTP(meRec, req)
	if meRec.Code != http.StatusOK {
		t.Fatalf("me status = %d, want 200; body %s", meRec.Code, meRec.Body.String())
	}
	var me struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(meRec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if me.ID != registered.User.ID {
		t.Errorf("me id = %q, want %q", me.ID, registered.User.ID)
	}
	if me.Email != "ada@example.com" {
		t.Errorf("me email = %q, want ada@example.com", me.Email)
	}
}

func TestMeWithoutCookieReturnsNull(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "null" {
		t.Fatalf("body = %q, want null", got)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	wrongPassword := postJSON(t, router, "/api/auth/login", `{"email":"ada@example.com","password":"nope1234"}`, nil)
	unknownEmail := postJSON(t, router, "/api/auth/login", `{"email":"ghost@example.com","password":"nope1234"}`, nil)

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d and %d, want 401 for both", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("bodies differ: %q vs %q", wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	router, _, _ := newTestRouter(t)

	first := postJSON(t, router, "/api/auth/register", `{"name":"Ada","email":"ada@example.com","password":"hunter22"}`, nil)
	if first.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", first.Code)
	}
	second := postJSON(t, router, "/api/auth/register", `{"name":"Ada Again","email":"ada@example.com","password":"hunter22"}`, nil)
	if second.Code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409; body %s", second.Code, second.Body.String())
	}
}

func TestLogoutClearsSessionCookie(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/logout", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", rec.Code)
	}
	var cleared *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("logout did not set the session cookie")
	}
	if cleared.Value != "" || cleared.MaxAge >= 0 {
		t.Errorf("cookie not cleared: value=%q maxAge=%d", cleared.Value, cleared.MaxAge)
	}
}

func TestProtectedRouteRejectsMissingSession(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/time-entries", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
