package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB handles all database operations
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes tables.
// _txlock=immediate makes every transaction take the write lock up front,
// so two handlers racing on the same session serialize instead of failing
// mid-transaction; _busy_timeout keeps the loser waiting rather than
// erroring out.
func New(dbPath string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err = createTables(db); err != nil {
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	// Question bank
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			difficulty_level INTEGER NOT NULL DEFAULT 1,
			question_text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer_index INTEGER NOT NULL,
			times_attempted INTEGER NOT NULL DEFAULT 0,
			times_correct INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return err
	}

	// Sprint sessions; question_queue is a JSON array of question IDs
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sprint_sessions (
			id TEXT PRIMARY KEY,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL DEFAULT 0,
			question_queue TEXT NOT NULL,
			current_index INTEGER NOT NULL DEFAULT 0,
			original_count INTEGER NOT NULL,
			debt_count INTEGER NOT NULL DEFAULT 0,
			completed BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Append-only attempt log
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sprint_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			question_id TEXT NOT NULL,
			category TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			is_debt_attempt BOOLEAN NOT NULL,
			timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Daily "spot the flaw" outcomes, the weak-category signal source
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS flaw_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			error_category TEXT NOT NULL,
			caught BOOLEAN NOT NULL,
			logged_at INTEGER NOT NULL
		)
	`)
	return err
}
