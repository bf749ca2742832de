// Package auth provides the identity building blocks for the catalog API:
// the Google OAuth provider, JWT session tokens, the admin password check,
// and the HTTP middlewares that turn cookies into request-context identity.
//
// SESSION DESIGN:
// A logged-in user gets an HS256-signed JWT in an HttpOnly "session" cookie
// whose Subject claim is their internal user ID. The server keeps no session
// state — the signature is the proof nobody minted or altered the cookie.
//
// The admin capability is a SEPARATE signed token (the "admin_session"
// cookie) carrying a role claim. It is a possession-based capability flag —
// whoever can present the admin password holds it — and deliberately not a
// per-user attribute: it exists independently of any user account, and users
// carry no role data at all.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "minemods"

// RoleAdmin is the role claim value carried by admin capability tokens.
const RoleAdmin = "admin"

// SessionLifetime is how long a user session cookie stays valid.
// Re-login is a one-click popup, so a week is plenty.
const SessionLifetime = 7 * 24 * time.Hour

// AdminLifetime is how long an admin capability token stays valid.
// Shorter than user sessions: the capability gates destructive operations.
const AdminLifetime = 12 * time.Hour

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used to sign and verify tokens. The same secret
// must be used for both operations — keep it out of the repo, rotate it
// periodically in production.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production:
// SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// Claims is the token payload. Subject (from RegisteredClaims) holds the
// internal user ID for session tokens; Role is set to RoleAdmin on admin
// capability tokens and empty otherwise.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Admin reports whether this token carries the admin capability.
func (c *Claims) Admin() bool {
	return c.Role == RoleAdmin
}

// GenerateSession creates and signs a session token for the given userID.
func (s *TokenService) GenerateSession(userID string) (string, error) {
	return s.generate(Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
	}, SessionLifetime)
}

// GenerateAdmin creates and signs an admin capability token.
// No subject: the capability is not tied to a user account.
func (s *TokenService) GenerateAdmin() (string, error) {
	return s.generate(Claims{Role: RoleAdmin}, AdminLifetime)
}

func (s *TokenService) generate(c Claims, lifetime time.Duration) (string, error) {
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(lifetime))
	c.Issuer = issuer

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns its claims.
//
// Checks performed by the jwt library:
//   - signature is valid (token wasn't tampered with)
//   - token is not expired
//   - issuer matches (prevents tokens minted by other apps with the same lib)
//   - algorithm is HS256 (jwt.WithValidMethods blocks algorithm-confusion
//     attacks where an attacker submits an unsigned "none" token)
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	return c, nil
}
