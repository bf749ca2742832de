// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// We use Google OAuth as the identity provider, so the primary external
// identifier is the Google subject ("sub") claim — an opaque string that is
// stable for the lifetime of the Google account. We still generate our own
// internal string ID (xid) so our primary keys aren't tied to a third party's
// numbering scheme.
//
// The UNIQUE constraints on google_id and email in the DB ensure one Google
// account maps to exactly one app account. Users are created on first login
// and never deleted by the application.
//
// Admin capability is deliberately NOT a field here. Elevated privilege is a
// possession-based capability carried in a signed cookie claim, not per-user
// role data — see internal/auth.
type User struct {
	ID        string    `json:"id"         db:"id"`
	GoogleID  string    `json:"google_id"  db:"google_id"` // Google's "sub" claim
	Email     string    `json:"email"      db:"email"`
	Name      string    `json:"name"       db:"name"`    // Display name from the Google profile
	Picture   string    `json:"picture"    db:"picture"` // Avatar URL
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
