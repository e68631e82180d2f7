package session

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package.
// Using a package-private type (instead of a bare string) means no other
// package can read or shadow the username we store in the context.
type contextKey string

const usernameKey contextKey = "username"

// CookieName is the cookie the session token travels in. Handlers that
// set or clear the session cookie use this name; the middleware reads it.
const CookieName = "session"

// RequireAuth enforces a live session on protected routes.
//
// It reads the session token from the HttpOnly cookie (or an
// "Authorization: Bearer" header for non-browser clients), resolves it,
// and stores the username in the request context. Missing or dead
// sessions get 401 and the chain stops.
func RequireAuth(sessions *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, err := resolveRequest(r, sessions)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the session if one is present but never blocks the
// request. Anonymous callers simply get no username in the context. Used
// on public routes where logged-in users see the same data.
func OptionalAuth(sessions *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, err := resolveRequest(r, sessions); err == nil && username != "" {
				ctx := context.WithValue(r.Context(), usernameKey, username)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UsernameFromContext retrieves the authenticated username set by the
// middleware. Returns ("", false) for anonymous requests.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// TokenFromRequest extracts the raw session token from a request, cookie
// first, then the Authorization header. Returns "" when neither is set.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

func resolveRequest(r *http.Request, sessions *Manager) (string, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return "", http.ErrNoCookie
	}
	return sessions.Resolve(token)
}
