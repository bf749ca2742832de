package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"

	"github.com/abenhamida/minemods/internal/apperror"
	"github.com/abenhamida/minemods/internal/repository"
)

// Compile-time check that *DB implements repository.RatingRepository.
var _ repository.RatingRepository = (*DB)(nil)

// Rate upserts the caller's score for a mod and refreshes the denormalized
// mean, all in one transaction.
//
// Steps, inside the transaction:
//  1. Confirm the mod exists (so a stale ID is a clean NotFound, not a
//     foreign-key failure surfaced as a 500)
//  2. INSERT ... ON CONFLICT(mod_id, user_id) DO UPDATE — a second submission
//     from the same user replaces their previous score, it never accumulates
//  3. Recompute AVG(score) and persist it on the mod row
//
// Because all three statements commit together, a reader can never observe a
// mods.rating value that disagrees with the rating rows that produced it.
func (db *DB) Rate(ctx context.Context, modID, userID string, score int) (float64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning rating write: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM mods WHERE id = ?`, modID,
	).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, apperror.NotFound("mod", modID)
		}
		return 0, fmt.Errorf("sqlite: checking mod %s: %w", modID, err)
	}

	// ON CONFLICT keeps the original row (and its id) and just replaces the
	// score — the UNIQUE(mod_id, user_id) constraint drives the upsert.
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ratings (id, mod_id, user_id, score)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (mod_id, user_id) DO UPDATE SET score = excluded.score`,
		xid.New().String(), modID, userID, score,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: upserting rating for mod %s: %w", modID, err)
	}

	// COALESCE guards the no-rows case; it can't happen right after an
	// insert, but keeping the query total makes it reusable and obvious.
	var avg float64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(score), 0) FROM ratings WHERE mod_id = ?`, modID,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("sqlite: averaging ratings for mod %s: %w", modID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE mods SET rating = ? WHERE id = ?`, avg, modID,
	); err != nil {
		return 0, fmt.Errorf("sqlite: storing average for mod %s: %w", modID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing rating write: %w", err)
	}

	return avg, nil
}
