// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept repository interfaces (not *sqlite.DB), so tests inject
// in-memory mocks and the handlers never see SQL. Services return domain
// errors from internal/apperror; the handler layer owns the mapping to HTTP
// status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abenhamida/minemods/internal/apperror"
	"github.com/abenhamida/minemods/internal/model"
	"github.com/abenhamida/minemods/internal/repository"
)

// Validation constants.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 50000 // markdown text, ~50KB
	MaxURLLength         = 2048
	MaxSizeLabelLength   = 50
	MaxScreenshots       = 20

	MinScore = 1
	MaxScore = 5
)

// CatalogService handles business logic for mods, screenshots, and ratings.
type CatalogService struct {
	mods    repository.ModRepository
	ratings repository.RatingRepository
	logger  *slog.Logger
}

// NewCatalogService creates a CatalogService. The caller decides which
// repository implementation to use (SQLite in production, mocks in tests).
func NewCatalogService(
	mods repository.ModRepository,
	ratings repository.RatingRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		mods:    mods,
		ratings: ratings,
		logger:  logger,
	}
}

// ModInput carries the client-supplied fields for create and update.
// Screenshots distinguishes "not supplied" (nil — keep the current set on
// update) from "supplied empty" (remove every screenshot).
type ModInput struct {
	Title       string
	Description string
	IconURL     string
	Size        string
	Screenshots []string
}

// validate enforces the field rules shared by create and update. The
// original storefront let missing fields fall through to constraint failures
// or silent nulls; here a bad request is a 400 with the offending field.
func (in *ModInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if len(in.IconURL) > MaxURLLength {
		return apperror.ValidationFailed("icon_url",
			fmt.Sprintf("icon_url must be %d characters or less", MaxURLLength))
	}
	if len(in.Size) > MaxSizeLabelLength {
		return apperror.ValidationFailed("size",
			fmt.Sprintf("size must be %d characters or less", MaxSizeLabelLength))
	}
	if len(in.Screenshots) > MaxScreenshots {
		return apperror.ValidationFailed("screenshots",
			fmt.Sprintf("at most %d screenshots allowed", MaxScreenshots))
	}
	for i, url := range in.Screenshots {
		in.Screenshots[i] = strings.TrimSpace(url)
		if in.Screenshots[i] == "" {
			return apperror.ValidationFailed("screenshots", "screenshot URLs must not be empty")
		}
		if len(in.Screenshots[i]) > MaxURLLength {
			return apperror.ValidationFailed("screenshots",
				fmt.Sprintf("screenshot URLs must be %d characters or less", MaxURLLength))
		}
	}
	return nil
}

// List returns all mods, newest first, with author names and screenshots.
func (s *CatalogService) List(ctx context.Context) ([]model.Mod, error) {
	mods, err := s.mods.List(ctx)
	if err != nil {
		s.logger.Error("failed to list mods", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing mods: %w", err)
	}
	return mods, nil
}

// GetByID retrieves a mod by its ID.
// Returns apperror.ErrNotFound if the mod doesn't exist.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*model.Mod, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "mod ID is required")
	}
	return s.mods.GetByID(ctx, id)
}

// Create validates and saves a new catalog entry. authorID is the identity
// attached to the request, if any — it may be empty (the admin capability is
// not a user account).
func (s *CatalogService) Create(ctx context.Context, in ModInput, authorID string) (*model.Mod, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	mod := &model.Mod{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		IconURL:     strings.TrimSpace(in.IconURL),
		Size:        strings.TrimSpace(in.Size),
		AuthorID:    authorID,
	}

	if err := s.mods.Create(ctx, mod, in.Screenshots); err != nil {
		s.logger.Error("failed to create mod",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating mod: %w", err)
	}

	s.logger.Info("mod created",
		slog.String("id", mod.ID),
		slog.String("title", mod.Title),
		slog.Int("screenshots", len(in.Screenshots)),
	)

	return mod, nil
}

// Update modifies an existing mod. When in.Screenshots is non-nil the entire
// screenshot set is replaced with the supplied list; nil keeps the set.
func (s *CatalogService) Update(ctx context.Context, id string, in ModInput) (*model.Mod, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "mod ID is required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	mod := &model.Mod{
		ID:          id,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		IconURL:     strings.TrimSpace(in.IconURL),
		Size:        strings.TrimSpace(in.Size),
	}

	if err := s.mods.Update(ctx, mod, in.Screenshots); err != nil {
		// NotFound is a normal outcome, not a server fault — let it
		// propagate without an error-level log line.
		return nil, err
	}

	s.logger.Info("mod updated", slog.String("id", id), slog.String("title", in.Title))

	// Re-read so the response carries the joined author name and the final
	// screenshot set.
	return s.mods.GetByID(ctx, id)
}

// Delete removes a mod; its screenshots and ratings cascade away with it.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "mod ID is required")
	}

	if err := s.mods.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("mod deleted", slog.String("id", id))
	return nil
}

// Rate records userID's score for a mod and returns the new average.
// A repeat submission from the same user replaces their earlier score.
func (s *CatalogService) Rate(ctx context.Context, modID, userID string, score int) (float64, error) {
	modID = strings.TrimSpace(modID)
	if modID == "" {
		return 0, apperror.ValidationFailed("id", "mod ID is required")
	}
	if userID == "" {
		return 0, apperror.Unauthorized("login required to rate")
	}
	if score < MinScore || score > MaxScore {
		return 0, apperror.ValidationFailed("score",
			fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore))
	}

	avg, err := s.ratings.Rate(ctx, modID, userID, score)
	if err != nil {
		return 0, err
	}

	s.logger.Info("mod rated",
		slog.String("modID", modID),
		slog.String("userID", userID),
		slog.Int("score", score),
		slog.Float64("newAverage", avg),
	)

	return avg, nil
}
