// Package session tracks which callers are logged in.
//
// A session binds exactly one username to an opaque token for the lifetime
// of one browser session. The token itself is a signed JWT (see auth
// .TokenService), but signatures alone cannot implement logout — a stolen
// or stale token would stay valid until it expires. The Manager therefore
// keeps an in-memory registry of live session ids: Resolve accepts a token
// only if its id is still registered, and Destroy removes the id, killing
// the session server-side immediately.
//
// Sessions are deliberately not persisted. They are ephemeral per-process
// state; a restart logs everyone out, which is the intended lifecycle.
package session

import (
	"fmt"
	"sync"

	"github.com/sakif/miniblog/internal/auth"
)

// Manager issues, resolves, and destroys sessions.
// Safe for concurrent use by multiple request goroutines.
type Manager struct {
	tokens *auth.TokenService

	mu     sync.RWMutex
	active map[string]string // session id → username
}

// NewManager creates a Manager that signs tokens with the given service.
func NewManager(tokens *auth.TokenService) *Manager {
	return &Manager{
		tokens: tokens,
		active: make(map[string]string),
	}
}

// Create starts a new session for username and returns its token.
func (m *Manager) Create(username string) (string, error) {
	token, sessionID, err := m.tokens.Mint(username)
	if err != nil {
		return "", fmt.Errorf("session: creating session: %w", err)
	}

	m.mu.Lock()
	m.active[sessionID] = username
	m.mu.Unlock()

	return token, nil
}

// Resolve returns the username behind a token.
//
// It fails if the token is malformed, tampered with, expired, or was
// destroyed by Logout. Callers that want "anonymous" rather than an error
// (e.g. currentUser) treat any Resolve failure as "no session".
func (m *Manager) Resolve(token string) (string, error) {
	username, sessionID, err := m.tokens.Validate(token)
	if err != nil {
		return "", fmt.Errorf("session: %w", err)
	}

	m.mu.RLock()
	registered, ok := m.active[sessionID]
	m.mu.RUnlock()

	if !ok || registered != username {
		return "", fmt.Errorf("session: session is no longer active")
	}
	return username, nil
}

// Destroy ends the session behind a token. It is idempotent: destroying a
// missing, invalid, or already-destroyed session is a no-op.
func (m *Manager) Destroy(token string) {
	_, sessionID, err := m.tokens.Validate(token)
	if err != nil {
		return
	}

	m.mu.Lock()
	delete(m.active, sessionID)
	m.mu.Unlock()
}

// Len reports the number of live sessions. Exposed for tests and metrics.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}
