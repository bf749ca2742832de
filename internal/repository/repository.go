package repository

import (
	"context"

	"github.com/abenhamida/minemods/internal/model"
)

// ModRepository is the persistence contract for catalog entries.
//
// Create and Update take the full screenshot URL list alongside the mod and
// must apply both inside a single transaction. For Update, a nil screenshot
// slice means "leave the existing set alone" while an empty non-nil slice
// replaces the set with nothing.
type ModRepository interface {
	Create(ctx context.Context, mod *model.Mod, screenshots []string) error
	GetByID(ctx context.Context, id string) (*model.Mod, error)
	List(ctx context.Context) ([]model.Mod, error)
	Update(ctx context.Context, mod *model.Mod, screenshots []string) error
	Delete(ctx context.Context, id string) error
}

// RatingRepository records user scores and maintains the denormalized mean.
type RatingRepository interface {
	// Rate upserts the (modID, userID) rating, recomputes the mean of all
	// scores for the mod, persists it on the mod row, and returns the new
	// average — all in one transaction.
	Rate(ctx context.Context, modID, userID string, score int) (float64, error)
}

// UserRepository stores identity records keyed by the external Google subject.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
