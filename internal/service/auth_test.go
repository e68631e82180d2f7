package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/auth"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/session"
)

// mockUserRepo is an in-memory repository.UserRepository. Tests exercise
// the service's rules against it without any database.
type mockUserRepo struct {
	byUsername map[string]*model.User
	nextID     int64
	failWith   error // when set, every call fails with this error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byUsername: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.byUsername[user.Username]; ok {
		return apperror.Conflict("user", user.Username)
	}
	m.nextID++
	user.ID = m.nextID
	stored := *user
	m.byUsername[user.Username] = &stored
	return nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	user, ok := m.byUsername[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	result := *user
	return &result, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, user := range m.byUsername {
		if user.ID == id {
			result := *user
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", "unknown")
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewAuthService(repo, auth.NewPasswordServiceWithCost(4), session.NewManager(tokens), logger)
	return svc, repo
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc, repo := newTestAuthService(t)

	err := svc.Register(context.Background(), "alice", "Alice A.", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored := repo.byUsername["alice"]
	if stored == nil {
		t.Fatal("Register() did not store the user")
	}
	if stored.DisplayName != "Alice A." {
		t.Errorf("DisplayName = %q, want %q", stored.DisplayName, "Alice A.")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "s3cret" {
		t.Errorf("password must be stored as a hash, got %q", stored.PasswordHash)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if err := svc.Register(context.Background(), "alice", "Alice", "pw1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	err := svc.Register(context.Background(), "alice", "Other Alice", "pw2")
	if err == nil {
		t.Fatal("second Register() with the same username should fail")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty username", "", "pw"},
		{"whitespace username", "   ", "pw"},
		{"username too long", strings.Repeat("a", MaxUsernameLength+1), "pw"},
		{"empty password", "alice", ""},
		{"password over bcrypt limit", "alice", strings.Repeat("a", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Register(context.Background(), tt.username, "", tt.password)
			if err == nil {
				t.Fatal("Register() should fail")
			}
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_SucceedsOnlyWithExactPair(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if err := svc.Register(context.Background(), "alice", "Alice", "right-password"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, err := svc.Login(context.Background(), "alice", "right-password")
	if err != nil {
		t.Fatalf("Login() with correct credentials error = %v", err)
	}
	if token == "" {
		t.Fatal("Login() returned an empty token")
	}

	for _, wrong := range []string{"wrong-password", "Right-password", ""} {
		_, err := svc.Login(context.Background(), "alice", wrong)
		if !errors.Is(err, apperror.ErrInvalidCredentials) {
			t.Errorf("Login(alice, %q) error = %v, want ErrInvalidCredentials", wrong, err)
		}
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("error = %v, want ErrInvalidCredentials (not NotFound — don't leak usernames)", err)
	}
}

func TestLogin_StorageError(t *testing.T) {
	svc, repo := newTestAuthService(t)
	repo.failWith = errors.New("disk on fire")

	_, err := svc.Login(context.Background(), "alice", "pw")
	if err == nil {
		t.Fatal("Login() should surface storage errors")
	}
	if errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("storage error must not be disguised as bad credentials: %v", err)
	}
}

// =========================================================================
// SESSION LIFECYCLE TESTS
// =========================================================================

func TestCurrentUser_Lifecycle(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "Alice", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Before login: anonymous.
	user, err := svc.CurrentUser(ctx, "")
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user != nil {
		t.Errorf("CurrentUser() before login = %v, want nil", user)
	}

	token, err := svc.Login(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// After login: alice, until logout.
	user, err = svc.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("CurrentUser() after login = %v, want alice", user)
	}

	svc.Logout(token)

	// After logout: anonymous again — and no error.
	user, err = svc.CurrentUser(ctx, token)
	if err != nil {
		t.Fatalf("CurrentUser() after logout error = %v", err)
	}
	if user != nil {
		t.Errorf("CurrentUser() after logout = %v, want nil", user)
	}
}

func TestCurrentUser_GarbageTokenIsAnonymous(t *testing.T) {
	svc, _ := newTestAuthService(t)

	user, err := svc.CurrentUser(context.Background(), "garbage-token")
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user != nil {
		t.Errorf("CurrentUser() with garbage token = %v, want nil", user)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	svc, _ := newTestAuthService(t)

	// No session at all — must be a no-op, not a panic or error.
	svc.Logout("")
	svc.Logout("garbage")
}

// =========================================================================
// GITHUB SIGN-IN TESTS
// =========================================================================

func TestLoginGitHub_CreatesAccountOnFirstSignIn(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	token, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 123, Login: "octocat", Name: "The Octocat"})
	if err != nil {
		t.Fatalf("LoginGitHub() error = %v", err)
	}

	stored := repo.byUsername["octocat"]
	if stored == nil {
		t.Fatal("LoginGitHub() did not create the account")
	}
	if stored.DisplayName != "The Octocat" {
		t.Errorf("DisplayName = %q, want %q", stored.DisplayName, "The Octocat")
	}
	if stored.PasswordHash != "" {
		t.Errorf("GitHub accounts must be passwordless, got hash %q", stored.PasswordHash)
	}

	user, err := svc.CurrentUser(ctx, token)
	if err != nil || user == nil || user.Username != "octocat" {
		t.Fatalf("CurrentUser() = %v, %v; want octocat", user, err)
	}

	// Password login must stay closed for the passwordless account.
	if _, err := svc.Login(ctx, "octocat", ""); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Errorf("password login for GitHub account: error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginGitHub_ReusesExistingAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 123, Login: "octocat"}); err != nil {
		t.Fatalf("first LoginGitHub() error = %v", err)
	}
	firstID := repo.byUsername["octocat"].ID

	if _, err := svc.LoginGitHub(ctx, &auth.GitHubUser{ID: 123, Login: "octocat"}); err != nil {
		t.Fatalf("second LoginGitHub() error = %v", err)
	}
	if repo.byUsername["octocat"].ID != firstID {
		t.Error("second sign-in should reuse the account, not create a new one")
	}
}
