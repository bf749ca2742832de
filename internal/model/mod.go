// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Mod represents a catalog entry: a downloadable community add-on.
//
// Rating is a denormalized cache of the arithmetic mean of all Rating.Score
// values for this mod (0 when no ratings exist). It is recomputed and
// persisted inside the same transaction as every rating write, so it is never
// observably stale relative to the rating rows that produced it.
//
// AuthorID references the user who created the entry and may be empty — the
// admin capability is not tied to a user account, so an entry created from an
// admin session without a logged-in user has no author. AuthorName is filled
// by the repository's LEFT JOIN when reading; it is never stored.
type Mod struct {
	ID          string    `json:"id"          db:"id"`
	Title       string    `json:"title"       db:"title"`
	Description string    `json:"description" db:"description"` // Markdown text
	IconURL     string    `json:"icon_url"    db:"icon_url"`
	Size        string    `json:"size"        db:"size"` // Free-text label, e.g. "10MB"
	Rating      float64   `json:"rating"      db:"rating"`
	AuthorID    string    `json:"author_id,omitempty" db:"author_id"`
	AuthorName  string    `json:"author_name"`
	Screenshots []string  `json:"screenshots"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// Rating is a single user's 1–5 score for a mod.
// At most one row exists per (mod, user) pair — a later submission replaces
// the earlier one rather than accumulating.
type Rating struct {
	ID     string `json:"id"      db:"id"`
	ModID  string `json:"mod_id"  db:"mod_id"`
	UserID string `json:"user_id" db:"user_id"`
	Score  int    `json:"score"   db:"score"`
}
