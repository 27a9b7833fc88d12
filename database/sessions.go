package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ivkor/sprintbot/models"
)

// CreateSession persists a new session.
func (db *DB) CreateSession(ctx context.Context, s *models.Session) error {
	queue, err := json.Marshal(s.Queue)
	if err != nil {
		return err
	}
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO sprint_sessions (id, chat_id, message_id, question_queue, current_index, original_count, debt_count, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ChatID, s.MessageID, string(queue), s.Cursor, s.OriginalCount, s.DebtCount, s.Completed, s.CreatedAt,
	)
	return err
}

// Session retrieves a session by ID. Returns (nil, nil) if absent.
func (db *DB) Session(ctx context.Context, id string) (*models.Session, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, chat_id, message_id, question_queue, current_index, original_count, debt_count, completed, created_at
		FROM sprint_sessions WHERE id = ?`, id)

	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// SetSessionMessage records the Telegram message a session is rendered
// into, once the delivery send has returned a message ID.
func (db *DB) SetSessionMessage(ctx context.Context, id string, messageID int) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE sprint_sessions SET message_id = ? WHERE id = ?", messageID, id)
	return err
}

// AdvanceSession applies one answer transition as a single transaction:
// re-read the session, verify the expected cursor still matches, advance,
// append debt on a wrong answer, write the attempt log entry and bump the
// question counters. The UPDATE carries the expected cursor in its WHERE
// clause, so of two racing submissions at most one can apply; the other
// sees applied=false and is discarded as stale.
//
// Returns the post-transition session when applied. A stale or unknown
// session yields (nil, false, nil); rejection is a defined no-op, not an
// error.
func (db *DB) AdvanceSession(ctx context.Context, sessionID string, expectedCursor int, rec models.AttemptRecord) (*models.Session, bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT id, chat_id, message_id, question_queue, current_index, original_count, debt_count, completed, created_at
		FROM sprint_sessions WHERE id = ?`, sessionID)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if s.Completed || s.Cursor != expectedCursor {
		return nil, false, nil
	}

	s.Cursor++
	if !rec.Correct {
		s.Queue = append(s.Queue, rec.QuestionID)
		s.DebtCount++
	}
	s.Completed = s.Cursor == len(s.Queue)

	queue, err := json.Marshal(s.Queue)
	if err != nil {
		return nil, false, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE sprint_sessions
		SET question_queue = ?, current_index = ?, debt_count = ?, completed = ?
		WHERE id = ? AND current_index = ? AND completed = 0`,
		string(queue), s.Cursor, s.DebtCount, s.Completed, s.ID, expectedCursor,
	)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		return nil, false, nil
	}

	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sprint_logs (session_id, question_id, category, is_correct, is_debt_attempt, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.QuestionID, rec.Category, rec.Correct, rec.IsDebt, ts,
	); err != nil {
		return nil, false, err
	}

	correct := 0
	if rec.Correct {
		correct = 1
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE questions SET times_attempted = times_attempted + 1, times_correct = times_correct + ? WHERE id = ?",
		correct, rec.QuestionID,
	); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// SessionStats aggregates the attempt log for one session.
func (db *DB) SessionStats(ctx context.Context, sessionID string) (models.AttemptStats, error) {
	var stats models.AttemptStats
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(is_correct), 0),
		       COALESCE(SUM(CASE WHEN is_correct AND NOT is_debt_attempt THEN 1 ELSE 0 END), 0)
		FROM sprint_logs WHERE session_id = ?`, sessionID,
	).Scan(&stats.Answered, &stats.Correct, &stats.FirstTryCorrect)
	if err != nil {
		return models.AttemptStats{}, fmt.Errorf("session stats for %s: %w", sessionID, err)
	}
	return stats, nil
}

// CategoryMisses returns the number of incorrect attempts per category
// across all sessions, most-missed first.
func (db *DB) CategoryMisses(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM sprint_logs
		WHERE is_correct = 0 GROUP BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	misses := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		misses[category] = count
	}
	return misses, rows.Err()
}

func scanSession(row scanner) (*models.Session, error) {
	var s models.Session
	var queue string
	err := row.Scan(&s.ID, &s.ChatID, &s.MessageID, &queue, &s.Cursor, &s.OriginalCount, &s.DebtCount, &s.Completed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(queue), &s.Queue); err != nil {
		return nil, fmt.Errorf("session %s: corrupt queue: %w", s.ID, err)
	}
	return &s, nil
}
