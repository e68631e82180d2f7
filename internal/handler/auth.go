package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/miniblog/internal/auth"
	"github.com/sakif/miniblog/internal/metrics"
	"github.com/sakif/miniblog/internal/service"
	"github.com/sakif/miniblog/internal/session"
)

// AuthHandler exposes registration, password login/logout, the
// current-user probe, and the optional GitHub sign-in flow.
type AuthHandler struct {
	authService *service.AuthService
	github      *auth.GitHubProvider // nil when GitHub sign-in is not configured
	sessionTTL  int                  // cookie MaxAge, seconds
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. Pass github as nil to disable
// the OAuth routes.
func NewAuthHandler(authService *service.AuthService, github *auth.GitHubProvider, sessionTTLSeconds int, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		github:      github,
		sessionTTL:  sessionTTLSeconds,
		logger:      logger,
	}
}

type registerRequest struct {
	Username    string `json:"username"    validate:"required,max=32"`
	DisplayName string `json:"displayName" validate:"max=64"`
	Password    string `json:"password"    validate:"required,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/auth/register
// A duplicate username answers 409 with a message — silently succeeding
// (or silently failing) here would leave the user guessing.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.Register(r.Context(), req.Username, req.DisplayName, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /api/auth/login
// The cookie is HttpOnly (JavaScript cannot read the token) and
// SameSite=Lax. Wrong credentials — either half — answer 401.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		writeError(w, err)
		return
	}

	token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

// HandleLogout destroys the session server-side and clears the cookie.
//
// HTTP: POST /api/auth/logout
// POST, not GET: logout changes state, and GET would be open to CSRF and
// browser prefetching. Idempotent — logging out while logged out is fine.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := session.TokenFromRequest(r); token != "" {
		h.authService.Logout(token)
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe reports who is logged in.
//
// HTTP: GET /api/me
// Anonymous callers get 200 with a null user, not an error — "nobody" is
// a normal answer here, and the frontend uses it on every page load.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), session.TokenFromRequest(r))
	if err != nil {
		h.logger.Error("current-user lookup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
// The random state lands in a short-lived cookie; the callback checks it
// so a cross-site attacker can't complete the flow for someone else.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verifies the state,
// exchanges the code for a GitHub profile, signs the user in (creating
// the local account on first sign-in), and sets the session cookie.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	token, err := h.authService.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("github callback: sign-in failed",
			slog.String("login", ghUser.Login),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	metrics.LoginsTotal.WithLabelValues("success").Inc()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.sessionTTL,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable when serving over HTTPS
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
