package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ivkor/sprintbot/models"
)

const (
	minOptions = 2
	maxOptions = 4
)

// InsertQuestion adds a question to the bank after validating its shape.
func (db *DB) InsertQuestion(ctx context.Context, q *models.Question) error {
	if len(q.Options) < minOptions || len(q.Options) > maxOptions {
		return fmt.Errorf("question %s: want %d-%d options, got %d", q.ID, minOptions, maxOptions, len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("question %s: correct index %d out of range", q.ID, q.CorrectIndex)
	}

	options, err := json.Marshal(q.Options)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO questions (id, category, difficulty_level, question_text, options, correct_answer_index, times_attempted, times_correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Category, q.Difficulty, q.Text, string(options), q.CorrectIndex, q.Attempts, q.Correct,
	)
	return err
}

// Question retrieves a single question by ID. Returns (nil, nil) if absent.
func (db *DB) Question(ctx context.Context, id string) (*models.Question, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, category, difficulty_level, question_text, options, correct_answer_index, times_attempted, times_correct
		FROM questions WHERE id = ?`, id)

	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return q, err
}

// Sample returns up to limit questions ordered ascending by attempt count,
// so under-exercised questions surface first. An empty category means all
// categories.
func (db *DB) Sample(ctx context.Context, category string, limit int) ([]models.Question, error) {
	query := `
		SELECT id, category, difficulty_level, question_text, options, correct_answer_index, times_attempted, times_correct
		FROM questions`
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY times_attempted ASC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// RecordAttempt bumps a question's counters. Increments are relative so
// concurrent sessions never lose each other's updates. Safe to call once
// per attempt log entry; the counters are analytics, not correctness-
// critical values.
func (db *DB) RecordAttempt(ctx context.Context, id string, wasCorrect bool) error {
	correct := 0
	if wasCorrect {
		correct = 1
	}
	_, err := db.conn.ExecContext(ctx,
		"UPDATE questions SET times_attempted = times_attempted + 1, times_correct = times_correct + ? WHERE id = ?",
		correct, id,
	)
	return err
}

// BankStats reports per-category question counts and accuracy.
type BankStats struct {
	Category  string
	Questions int
	Attempts  int
	Correct   int
}

// Stats returns bank statistics grouped by category.
func (db *DB) Stats(ctx context.Context) ([]BankStats, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT category, COUNT(*), COALESCE(SUM(times_attempted), 0), COALESCE(SUM(times_correct), 0)
		FROM questions GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []BankStats
	for rows.Next() {
		var s BankStats
		if err := rows.Scan(&s.Category, &s.Questions, &s.Attempts, &s.Correct); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row scanner) (*models.Question, error) {
	var q models.Question
	var options string
	err := row.Scan(&q.ID, &q.Category, &q.Difficulty, &q.Text, &options, &q.CorrectIndex, &q.Attempts, &q.Correct)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("question %s: corrupt options: %w", q.ID, err)
	}
	return &q, nil
}
