package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/abenhamida/minemods/internal/apperror"
	"github.com/abenhamida/minemods/internal/model"
	"github.com/abenhamida/minemods/internal/repository"
)

// Compile-time check that *DB implements repository.ModRepository.
var _ repository.ModRepository = (*DB)(nil)

// Create inserts a mod and its screenshot rows in one transaction.
//
// TRANSACTIONS:
// The mod insert and the N screenshot inserts must be all-or-nothing. If the
// third screenshot insert failed without a transaction, a half-written mod
// would be visible to readers. BeginTx + defer Rollback + Commit is the
// standard database/sql shape: Rollback after a successful Commit is a no-op,
// so the defer is safe on every path.
//
// AuthorID is stored as NULL when empty — an admin session without a
// logged-in user produces authorless entries.
func (db *DB) Create(ctx context.Context, mod *model.Mod, screenshots []string) error {
	mod.ID = xid.New().String()
	mod.CreatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning mod create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO mods (id, title, description, icon_url, size, rating, author_id, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		mod.ID,
		mod.Title,
		mod.Description,
		mod.IconURL,
		mod.Size,
		nullableString(mod.AuthorID),
		mod.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting mod: %w", err)
	}

	if err := insertScreenshots(ctx, tx, mod.ID, screenshots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing mod create: %w", err)
	}

	mod.Screenshots = append([]string(nil), screenshots...)
	return nil
}

// GetByID retrieves a single mod with its author name and screenshots.
// Returns apperror.ErrNotFound if no mod exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Mod, error) {
	var (
		m        model.Mod
		authorID sql.NullString
		author   sql.NullString
	)

	// LEFT JOIN so an authorless (or author-deleted) mod still comes back.
	err := db.conn.QueryRowContext(ctx,
		`SELECT m.id, m.title, m.description, m.icon_url, m.size, m.rating,
		        m.author_id, m.created_at, u.name
		 FROM mods m
		 LEFT JOIN users u ON m.author_id = u.id
		 WHERE m.id = ?`,
		id,
	).Scan(
		&m.ID, &m.Title, &m.Description, &m.IconURL, &m.Size, &m.Rating,
		&authorID, &m.CreatedAt, &author,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("mod", id)
		}
		return nil, fmt.Errorf("sqlite: getting mod %s: %w", id, err)
	}
	m.AuthorID = authorID.String
	m.AuthorName = author.String

	shots, err := db.screenshotsFor(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	m.Screenshots = shots

	return &m, nil
}

// List returns all mods, newest first, each with author name and screenshots.
//
// The screenshot lists are fetched in a second query and grouped in memory —
// two round trips total instead of one per mod. At catalog scale there is no
// need for pagination; the frontend renders the whole grid.
func (db *DB) List(ctx context.Context) ([]model.Mod, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, m.title, m.description, m.icon_url, m.size, m.rating,
		        m.author_id, m.created_at, u.name
		 FROM mods m
		 LEFT JOIN users u ON m.author_id = u.id
		 ORDER BY m.created_at DESC, m.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing mods: %w", err)
	}
	defer rows.Close()

	mods := []model.Mod{}
	index := map[string]int{}
	for rows.Next() {
		var (
			m        model.Mod
			authorID sql.NullString
			author   sql.NullString
		)
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Description, &m.IconURL, &m.Size, &m.Rating,
			&authorID, &m.CreatedAt, &author,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning mod row: %w", err)
		}
		m.AuthorID = authorID.String
		m.AuthorName = author.String
		m.Screenshots = []string{}
		index[m.ID] = len(mods)
		mods = append(mods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating mods: %w", err)
	}

	shotRows, err := db.conn.QueryContext(ctx,
		`SELECT mod_id, url FROM screenshots ORDER BY mod_id, position`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing screenshots: %w", err)
	}
	defer shotRows.Close()

	for shotRows.Next() {
		var modID, url string
		if err := shotRows.Scan(&modID, &url); err != nil {
			return nil, fmt.Errorf("sqlite: scanning screenshot row: %w", err)
		}
		if i, ok := index[modID]; ok {
			mods[i].Screenshots = append(mods[i].Screenshots, url)
		}
	}
	if err := shotRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating screenshots: %w", err)
	}

	return mods, nil
}

// Update modifies a mod's fields and, when screenshots is non-nil, replaces
// the entire screenshot set (delete-all, then insert in list order) in the
// same transaction. A nil slice leaves the existing set untouched.
func (db *DB) Update(ctx context.Context, mod *model.Mod, screenshots []string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning mod update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE mods
		 SET title = ?, description = ?, icon_url = ?, size = ?
		 WHERE id = ?`,
		mod.Title,
		mod.Description,
		mod.IconURL,
		mod.Size,
		mod.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating mod %s: %w", mod.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("mod", mod.ID)
	}

	if screenshots != nil {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM screenshots WHERE mod_id = ?`, mod.ID,
		); err != nil {
			return fmt.Errorf("sqlite: clearing screenshots for mod %s: %w", mod.ID, err)
		}
		if err := insertScreenshots(ctx, tx, mod.ID, screenshots); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing mod update: %w", err)
	}

	return nil
}

// Delete removes a mod. The foreign keys cascade: all of its screenshot and
// rating rows go with it in the same statement.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM mods WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting mod %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("mod", id)
	}

	return nil
}

// screenshotsFor returns the screenshot URLs for one mod in stored order.
func (db *DB) screenshotsFor(ctx context.Context, modID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT url FROM screenshots WHERE mod_id = ? ORDER BY position`,
		modID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting screenshots for mod %s: %w", modID, err)
	}
	defer rows.Close()

	urls := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("sqlite: scanning screenshot url: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating screenshots: %w", err)
	}
	return urls, nil
}

// insertScreenshots inserts the URL list for a mod inside the given
// transaction. Position records list order; it carries no other meaning.
func insertScreenshots(ctx context.Context, tx *sql.Tx, modID string, urls []string) error {
	for i, url := range urls {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO screenshots (id, mod_id, position, url) VALUES (?, ?, ?, ?)`,
			xid.New().String(), modID, i, url,
		); err != nil {
			return fmt.Errorf("sqlite: inserting screenshot %d for mod %s: %w", i, modID, err)
		}
	}
	return nil
}

// nullableString maps "" to NULL for nullable TEXT columns.
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
