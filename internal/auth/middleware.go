package auth

import (
	"context"
	"net/http"
)

// Cookie names. SessionCookie and AdminCookie are HttpOnly signed tokens;
// UserNameCookie is a plain readable cookie the frontend uses for the header
// greeting, set alongside the session at login.
const (
	SessionCookie  = "session"
	AdminCookie    = "admin_session"
	UserNameCookie = "user_name"
)

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the identity values we store.
type contextKey string

const (
	userIDKey contextKey = "userID"
	adminKey  contextKey = "admin"
)

// RequireAuth enforces a valid session cookie on login-gated routes
// (rating). It validates the JWT and stores the userID in the request
// context; a missing or invalid token stops the chain with 401.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := sessionUserID(r, tokens)
			if err != nil {
				http.Error(w, `{"error":"unauthorized","message":"login required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin enforces the admin capability cookie on the catalog write
// routes. An invalid or missing admin token stops the chain with 403 — the
// request is understood, the caller just lacks the capability.
func RequireAdmin(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !adminFromCookie(r, tokens) {
				http.Error(w, `{"error":"forbidden","message":"admin capability required"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), adminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth extracts identity (user session and admin capability) if
// present but never blocks the request. Used on /api/me (identity is the
// response) and on admin create (the session, when present, becomes the
// mod's author).
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID, err := sessionUserID(r, tokens); err == nil && userID != "" {
				ctx = context.WithValue(ctx, userIDKey, userID)
			}
			if adminFromCookie(r, tokens) {
				ctx = context.WithValue(ctx, adminKey, true)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) when the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// AdminFromContext reports whether the request carries the admin capability.
func AdminFromContext(ctx context.Context) bool {
	admin, ok := ctx.Value(adminKey).(bool)
	return ok && admin
}

// sessionUserID reads and validates the session cookie and returns the user
// ID from its subject claim.
func sessionUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie: not an error, just anonymous.
		return "", err
	}

	claims, err := tokens.Validate(cookie.Value)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", http.ErrNoCookie
	}
	return claims.Subject, nil
}

// adminFromCookie reads and validates the admin capability cookie.
func adminFromCookie(r *http.Request, tokens *TokenService) bool {
	cookie, err := r.Cookie(AdminCookie)
	if err != nil {
		return false
	}
	claims, err := tokens.Validate(cookie.Value)
	return err == nil && claims.Admin()
}
