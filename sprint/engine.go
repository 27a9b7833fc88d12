// Package sprint implements the sprint session engine: weighted question
// selection, the answer state machine with its debt queue, and the pure
// rendering of session state into message content. It knows nothing about
// Telegram; the bot package adapts taps and message edits to it.
package sprint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivkor/sprintbot/models"
)

var (
	// ErrUnknownSession means the referenced session does not exist.
	ErrUnknownSession = errors.New("unknown session")
	// ErrInvalidOption means the chosen option index is out of range for
	// the current question.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrEmptyQueue means a session was requested with no questions.
	ErrEmptyQueue = errors.New("cannot create session with empty queue")
)

// QuestionStore is the slice of the question bank the engine needs.
type QuestionStore interface {
	Question(ctx context.Context, id string) (*models.Question, error)
	Sample(ctx context.Context, category string, limit int) ([]models.Question, error)
}

// SessionStore persists sessions and applies transitions atomically.
// AdvanceSession must evaluate the expected-cursor check and the mutation
// as one unit against persisted state: of two concurrent calls with the
// same expected cursor, at most one may return applied=true.
type SessionStore interface {
	CreateSession(ctx context.Context, s *models.Session) error
	Session(ctx context.Context, id string) (*models.Session, error)
	AdvanceSession(ctx context.Context, sessionID string, expectedCursor int, rec models.AttemptRecord) (*models.Session, bool, error)
	SessionStats(ctx context.Context, id string) (models.AttemptStats, error)
}

// Engine drives sprint sessions.
type Engine struct {
	questions QuestionStore
	sessions  SessionStore
}

// NewEngine creates an engine over the given stores.
func NewEngine(questions QuestionStore, sessions SessionStore) *Engine {
	return &Engine{questions: questions, sessions: sessions}
}

// CreateSession initializes and persists a session from an ordered batch
// of question IDs.
func (e *Engine) CreateSession(ctx context.Context, chatID int64, questionIDs []string) (*models.Session, error) {
	if len(questionIDs) == 0 {
		return nil, ErrEmptyQueue
	}
	s := &models.Session{
		ID:            uuid.NewString(),
		ChatID:        chatID,
		Queue:         append([]string(nil), questionIDs...),
		Cursor:        0,
		OriginalCount: len(questionIDs),
		CreatedAt:     time.Now().Unix(),
	}
	if err := e.sessions.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// CurrentQuestion returns the question awaiting an answer, or (nil, nil)
// when the session is complete.
func (e *Engine) CurrentQuestion(ctx context.Context, s *models.Session) (*models.Question, error) {
	id := s.CurrentQuestionID()
	if id == "" {
		return nil, nil
	}
	return e.questions.Question(ctx, id)
}

// Outcome is the result of one submitted answer.
type Outcome struct {
	// Accepted is false when the tap was stale (duplicate, late, or for a
	// completed session) and nothing changed.
	Accepted bool
	Correct  bool
	Session  *models.Session
	// Next is the question at the new cursor; nil when the session just
	// completed.
	Next *models.Question
	// Stats is populated when the session completed.
	Stats models.AttemptStats
}

// Completed reports whether this outcome finished the session.
func (o *Outcome) Completed() bool {
	return o.Accepted && o.Session != nil && o.Session.Completed
}

// Submit applies one answer to a session. The expected cursor is the
// position the tapper's view was rendered at; a mismatch (or an already
// completed session) makes the tap stale, which is a silent no-op, not an
// error. A wrong answer re-queues the same question at the end of the
// queue and increments the session's debt.
//
// Errors from the stores propagate as retryable: callers must retry with
// the same expected cursor, so a partially applied transition is detected
// as stale on redelivery instead of being applied twice.
func (e *Engine) Submit(ctx context.Context, sessionID string, expectedCursor, choice int) (*Outcome, error) {
	s, err := e.sessions.Session(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if s == nil {
		return nil, ErrUnknownSession
	}

	// Cheap pre-check; AdvanceSession re-validates atomically.
	if s.Completed || expectedCursor != s.Cursor {
		return &Outcome{Accepted: false, Session: s}, nil
	}

	questionID := s.Queue[expectedCursor]
	q, err := e.questions.Question(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load question %s: %w", questionID, err)
	}
	if q == nil {
		return nil, fmt.Errorf("question %s referenced by session %s is missing from the bank", questionID, sessionID)
	}
	if choice < 0 || choice >= len(q.Options) {
		return nil, fmt.Errorf("%w: %d for question %s (%d options)", ErrInvalidOption, choice, questionID, len(q.Options))
	}

	rec := models.AttemptRecord{
		SessionID:  sessionID,
		QuestionID: questionID,
		Category:   q.Category,
		Correct:    choice == q.CorrectIndex,
		// Queue positions past the original batch are debt re-insertions.
		IsDebt:    expectedCursor >= s.OriginalCount,
		Timestamp: time.Now().Unix(),
	}

	updated, applied, err := e.sessions.AdvanceSession(ctx, sessionID, expectedCursor, rec)
	if err != nil {
		return nil, fmt.Errorf("advance session %s: %w", sessionID, err)
	}
	if !applied {
		return &Outcome{Accepted: false, Session: s}, nil
	}

	out := &Outcome{Accepted: true, Correct: rec.Correct, Session: updated}
	if updated.Completed {
		stats, err := e.sessions.SessionStats(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		out.Stats = stats
		return out, nil
	}

	next, err := e.questions.Question(ctx, updated.CurrentQuestionID())
	if err != nil {
		return nil, fmt.Errorf("load next question: %w", err)
	}
	if next == nil {
		return nil, fmt.Errorf("question %s referenced by session %s is missing from the bank", updated.CurrentQuestionID(), sessionID)
	}
	out.Next = next
	return out, nil
}
