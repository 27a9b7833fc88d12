package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/ivkor/sprintbot/models"
)

// InsertFlaw records one outcome of the daily spot-the-flaw quiz.
func (db *DB) InsertFlaw(ctx context.Context, errorCategory string, caught bool, loggedAt time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO flaw_log (error_category, caught, logged_at) VALUES (?, ?, ?)",
		errorCategory, caught, loggedAt.Unix(),
	)
	return err
}

// UncaughtFlaws returns every flaw entry the learner missed, oldest first
// so encounter order is preserved for tie-breaking.
func (db *DB) UncaughtFlaws(ctx context.Context) ([]models.FlawEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, error_category, caught, logged_at FROM flaw_log
		WHERE caught = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flaws []models.FlawEntry
	for rows.Next() {
		var f models.FlawEntry
		if err := rows.Scan(&f.ID, &f.ErrorCategory, &f.Caught, &f.LoggedAt); err != nil {
			return nil, err
		}
		flaws = append(flaws, f)
	}
	return flaws, rows.Err()
}

// LatestFlaw returns the most recent flaw entry logged at or after since,
// or (nil, nil) if there is none. Used to decide the mandatory category
// for today's sprint from yesterday's quiz outcome.
func (db *DB) LatestFlaw(ctx context.Context, since time.Time) (*models.FlawEntry, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, error_category, caught, logged_at FROM flaw_log
		WHERE logged_at >= ? ORDER BY logged_at DESC, id DESC LIMIT 1`, since.Unix())

	var f models.FlawEntry
	err := row.Scan(&f.ID, &f.ErrorCategory, &f.Caught, &f.LoggedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}
