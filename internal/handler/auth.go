package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/abenhamida/minemods/internal/auth"
	"github.com/abenhamida/minemods/internal/service"
)

// AuthHandler manages the Google OAuth login flow, the admin capability
// login, and session management.
//
// Responsibilities:
//
//	HandleAuthURL    → hand the frontend the Google authorization URL
//	HandleCallback   → receive the code, exchange it, set session cookies
//	HandleAdminLogin → verify the admin password, set the capability cookie
//	HandleLogout     → clear every identity cookie
//	HandleMe         → report the current identity derived from cookies
type AuthHandler struct {
	google  *auth.GoogleProvider
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected; the
// handler has no knowledge of how they're constructed.
func NewAuthHandler(google *auth.GoogleProvider, authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		google:  google,
		authSvc: authSvc,
		logger:  logger,
	}
}

const stateCookieName = "oauth_state"

// callbackPage is served to the OAuth popup once cookies are set. It signals
// the opener window and closes itself; a direct (non-popup) visit falls back
// to a redirect home.
const callbackPage = `<html>
  <body>
    <script>
      if (window.opener) {
        window.opener.postMessage({ type: 'OAUTH_AUTH_SUCCESS' }, '*');
        window.close();
      } else {
        window.location.href = '/';
      }
    </script>
    <p>Authentication successful. This window should close automatically.</p>
  </body>
</html>`

// HandleAuthURL returns the Google authorization URL for the frontend to
// open in a popup.
//
// HTTP: GET /api/auth/url → {"url": "https://accounts.google.com/..."}
//
// A random state nonce goes both into the URL and into a short-lived
// HttpOnly cookie; the callback verifies they match (CSRF protection).
func (h *AuthHandler) HandleAuthURL(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve the consent screen
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"url": h.google.AuthURL(state)})
}

// HandleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
//
// Flow:
//  1. Verify the state parameter against the state cookie (CSRF check)
//  2. Exchange the code for a Google user profile
//  3. Upsert the user and obtain a signed session token (AuthService)
//  4. Set the session cookies
//  5. Serve the popup page that notifies the opener and closes
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user may have denied the consent screen.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Google exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.authSvc.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("auth callback: login failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// The session cookie is HttpOnly (no script access); user_name is
	// deliberately readable so the frontend header can greet without a
	// round trip.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.UserNameCookie,
		Value:    result.User.Name,
		Path:     "/",
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(callbackPage)); err != nil {
		h.logger.Error("auth callback: writing response", slog.String("error", err.Error()))
	}
}

// HandleAdminLogin verifies the shared admin password and grants the admin
// capability cookie.
//
// HTTP: POST /api/admin/login {"password":"..."} → {"success":true} or 401
func (h *AuthHandler) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	token, err := h.authSvc.AdminLogin(req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.AdminLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleLogout clears every identity cookie. Idempotent — logging out twice
// is fine.
//
// HTTP: POST /api/auth/logout → {"success":true}
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{auth.SessionCookie, auth.UserNameCookie, auth.AdminCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1, // delete immediately
			SameSite: http.SameSiteLaxMode,
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// meResponse is the identity report for the frontend.
type meResponse struct {
	User    any  `json:"user"` // *model.User or null
	IsAdmin bool `json:"isAdmin"`
}

// HandleMe returns the current identity, derived purely from cookies.
//
// HTTP: GET /api/me (OptionalAuth) → {"user": {...}|null, "isAdmin": bool}
//
// An anonymous request is not an error here — the frontend calls this on
// every page load to decide what to render.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	resp := meResponse{IsAdmin: auth.AdminFromContext(r.Context())}

	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		user, err := h.authSvc.GetUserByID(r.Context(), userID)
		if err != nil {
			// A valid session for a vanished user: treat as anonymous
			// rather than failing the whole identity check.
			h.logger.Warn("me: session user not found", slog.String("userID", userID))
		} else {
			resp.User = user
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
