package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/abenhamida/minemods/internal/apperror"
	"github.com/abenhamida/minemods/internal/auth"
	"github.com/abenhamida/minemods/internal/handler"
	"github.com/abenhamida/minemods/internal/model"
	"github.com/abenhamida/minemods/internal/repository"
	"github.com/abenhamida/minemods/internal/service"
)

// MockUserRepo is an in-memory UserRepository keyed the same way the SQLite
// implementation is (lookup by Google subject, stable internal ID).
type MockUserRepo struct {
	byGoogleID map[string]*model.User
	byID       map[string]*model.User
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{
		byGoogleID: make(map[string]*model.User),
		byID:       make(map[string]*model.User),
	}
}

func (m *MockUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if existing, ok := m.byGoogleID[user.GoogleID]; ok {
		user.ID = existing.ID
	} else if user.ID == "" {
		user.ID = xid.New().String()
	}
	copied := *user
	m.byGoogleID[user.GoogleID] = &copied
	m.byID[user.ID] = &copied
	return nil
}

func (m *MockUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *user
	return &copied, nil
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

const adminPassword = "correct-horse-battery"

type authFixture struct {
	handler *handler.AuthHandler
	tokens  *auth.TokenService
	users   *MockUserRepo
}

func newAuthFixture(t *testing.T, adminHash string) *authFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars")
	assert.NoError(t, err)

	users := NewMockUserRepo()
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	authSvc := service.NewAuthService(users, tokens, passwords, adminHash, logger)
	google := auth.NewGoogleProvider("client-id", "client-secret", "http://localhost:8080/auth/callback")

	return &authFixture{
		handler: handler.NewAuthHandler(google, authSvc, logger),
		tokens:  tokens,
		users:   users,
	}
}

func adminHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_HandleAuthURL(t *testing.T) {
	f := newAuthFixture(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/auth/url", nil)
	rr := httptest.NewRecorder()

	f.handler.HandleAuthURL(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var res map[string]string
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))

	authURL, err := url.Parse(res["url"])
	assert.NoError(t, err)
	assert.Equal(t, "accounts.google.com", authURL.Host)
	assert.Equal(t, "client-id", authURL.Query().Get("client_id"))

	// The state in the URL must match the one stored in the cookie,
	// otherwise the callback could never succeed.
	state := cookieByName(rr.Result(), "oauth_state")
	assert.NotNil(t, state)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, state.Value, authURL.Query().Get("state"))
}

func TestAuthHandler_HandleCallback_StateChecks(t *testing.T) {
	f := newAuthFixture(t, "")

	t.Run("missing state cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=xyz", nil)
		rr := httptest.NewRecorder()

		f.handler.HandleCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("state mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=evil", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "expected"})
		rr := httptest.NewRecorder()

		f.handler.HandleCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("user denied consent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied&state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		rr := httptest.NewRecorder()

		f.handler.HandleCallback(rr, req)

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
	})

	t.Run("missing code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=s1", nil)
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "s1"})
		rr := httptest.NewRecorder()

		f.handler.HandleCallback(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_HandleAdminLogin(t *testing.T) {
	t.Run("correct password grants capability", func(t *testing.T) {
		f := newAuthFixture(t, adminHash(t))

		body := `{"password":"` + adminPassword + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		f.handler.HandleAdminLogin(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		cookie := cookieByName(rr.Result(), auth.AdminCookie)
		assert.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		claims, err := f.tokens.Validate(cookie.Value)
		assert.NoError(t, err)
		assert.True(t, claims.Admin())
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t, adminHash(t))

		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(`{"password":"nope"}`))
		rr := httptest.NewRecorder()

		f.handler.HandleAdminLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Nil(t, cookieByName(rr.Result(), auth.AdminCookie))
	})

	t.Run("admin login not configured", func(t *testing.T) {
		f := newAuthFixture(t, "")

		body := `{"password":"` + adminPassword + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()

		f.handler.HandleAdminLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		f := newAuthFixture(t, adminHash(t))

		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewBufferString(`{`))
		rr := httptest.NewRecorder()

		f.handler.HandleAdminLogin(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_HandleLogout(t *testing.T) {
	f := newAuthFixture(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rr := httptest.NewRecorder()

	f.handler.HandleLogout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	for _, name := range []string{auth.SessionCookie, auth.UserNameCookie, auth.AdminCookie} {
		cookie := cookieByName(rr.Result(), name)
		assert.NotNil(t, cookie, "cookie %s should be cleared", name)
		assert.Equal(t, -1, cookie.MaxAge)
		assert.Empty(t, cookie.Value)
	}
}

// TestAuthHandler_HandleMe drives /api/me through OptionalAuth, the way the
// router wires it, so cookie parsing and context plumbing are both covered.
func TestAuthHandler_HandleMe(t *testing.T) {
	f := newAuthFixture(t, "")
	meHandler := auth.OptionalAuth(f.tokens)(http.HandlerFunc(f.handler.HandleMe))

	// Seed a logged-in user the way the callback would.
	user := &model.User{GoogleID: "goog-1", Email: "alice@example.com", Name: "Alice"}
	assert.NoError(t, f.users.Upsert(context.Background(), user))

	type meRes struct {
		User    *model.User `json:"user"`
		IsAdmin bool        `json:"isAdmin"`
	}

	callMe := func(t *testing.T, cookies ...*http.Cookie) meRes {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rr := httptest.NewRecorder()
		meHandler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var res meRes
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		return res
	}

	t.Run("anonymous", func(t *testing.T) {
		res := callMe(t)
		assert.Nil(t, res.User)
		assert.False(t, res.IsAdmin)
	})

	t.Run("logged-in user", func(t *testing.T) {
		token, err := f.tokens.GenerateSession(user.ID)
		assert.NoError(t, err)

		res := callMe(t, &http.Cookie{Name: auth.SessionCookie, Value: token})
		assert.NotNil(t, res.User)
		assert.Equal(t, "alice@example.com", res.User.Email)
		assert.False(t, res.IsAdmin)
	})

	t.Run("admin capability only", func(t *testing.T) {
		token, err := f.tokens.GenerateAdmin()
		assert.NoError(t, err)

		res := callMe(t, &http.Cookie{Name: auth.AdminCookie, Value: token})
		assert.Nil(t, res.User)
		assert.True(t, res.IsAdmin)
	})

	t.Run("tampered session is anonymous", func(t *testing.T) {
		res := callMe(t, &http.Cookie{Name: auth.SessionCookie, Value: "not-a-token"})
		assert.Nil(t, res.User)
	})

	t.Run("session for vanished user", func(t *testing.T) {
		token, err := f.tokens.GenerateSession("gone")
		assert.NoError(t, err)

		res := callMe(t, &http.Cookie{Name: auth.SessionCookie, Value: token})
		assert.Nil(t, res.User)
	})
}
