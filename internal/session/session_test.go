package session

import (
	"testing"
	"time"

	"github.com/sakif/miniblog/internal/auth"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return NewManager(tokens)
}

func TestCreateResolve(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Create("alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	username, err := m.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if username != "alice" {
		t.Errorf("Resolve() = %q, want %q", username, "alice")
	}
}

func TestResolve_GarbageToken(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Resolve("not-a-token"); err == nil {
		t.Fatal("Resolve() should fail for a garbage token")
	}
	if _, err := m.Resolve(""); err == nil {
		t.Fatal("Resolve() should fail for an empty token")
	}
}

func TestDestroy_EndsSession(t *testing.T) {
	m := newTestManager(t)

	token, _ := m.Create("alice")
	m.Destroy(token)

	// The signature is still valid, but the session id is gone from the
	// registry — logout must revoke server-side, not just client-side.
	if _, err := m.Resolve(token); err == nil {
		t.Fatal("Resolve() should fail after Destroy()")
	}
}

func TestDestroy_Idempotent(t *testing.T) {
	m := newTestManager(t)

	token, _ := m.Create("alice")

	// None of these may panic or affect other sessions.
	m.Destroy(token)
	m.Destroy(token)
	m.Destroy("garbage")
	m.Destroy("")
}

func TestDestroy_LeavesOtherSessionsAlive(t *testing.T) {
	m := newTestManager(t)

	tokenA, _ := m.Create("alice")
	tokenB, _ := m.Create("bob")

	m.Destroy(tokenA)

	if _, err := m.Resolve(tokenB); err != nil {
		t.Errorf("bob's session should survive alice's logout: %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestSessions_AreIndependentPerLogin(t *testing.T) {
	m := newTestManager(t)

	token1, _ := m.Create("alice")
	token2, _ := m.Create("alice")

	if token1 == token2 {
		t.Fatal("two logins produced the same token")
	}

	// Destroying one of alice's sessions must not touch the other.
	m.Destroy(token1)
	if _, err := m.Resolve(token2); err != nil {
		t.Errorf("second session should still be alive: %v", err)
	}
}
