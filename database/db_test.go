package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivkor/sprintbot/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testQuestion(id, category string, attempts int) *models.Question {
	return &models.Question{
		ID:           id,
		Category:     category,
		Difficulty:   1,
		Text:         "What is 6 × 7?",
		Options:      []string{"42", "36", "48"},
		CorrectIndex: 0,
		Attempts:     attempts,
	}
}

func TestInsertQuestion_ValidatesShape(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	q := testQuestion("q1", "table", 0)
	q.Options = []string{"only one"}
	assert.Error(t, db.InsertQuestion(ctx, q), "fewer than 2 options rejected")

	q = testQuestion("q2", "table", 0)
	q.Options = []string{"a", "b", "c", "d", "e"}
	assert.Error(t, db.InsertQuestion(ctx, q), "more than 4 options rejected")

	q = testQuestion("q3", "table", 0)
	q.CorrectIndex = 3
	assert.Error(t, db.InsertQuestion(ctx, q), "correct index out of range rejected")

	require.NoError(t, db.InsertQuestion(ctx, testQuestion("q4", "table", 0)))
}

func TestQuestion_AbsentIsNil(t *testing.T) {
	db := testDB(t)
	q, err := db.Question(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestSample_LeastAttemptedFirst(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertQuestion(ctx, testQuestion("worn", "table", 9)))
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("fresh", "table", 0)))
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("used", "table", 3)))
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("other", "prime", 0)))

	got, err := db.Sample(ctx, "table", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "fresh", got[0].ID)
	assert.Equal(t, "used", got[1].ID)
	assert.Equal(t, "worn", got[2].ID)

	all, err := db.Sample(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4, "empty category samples the whole bank")

	limited, err := db.Sample(ctx, "table", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecordAttempt_BumpsCounters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("q1", "table", 0)))

	require.NoError(t, db.RecordAttempt(ctx, "q1", true))
	require.NoError(t, db.RecordAttempt(ctx, "q1", false))

	q, err := db.Question(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, 2, q.Attempts)
	assert.Equal(t, 1, q.Correct)
}

func newTestSession(id string, queue []string) *models.Session {
	return &models.Session{
		ID:            id,
		ChatID:        100,
		Queue:         queue,
		OriginalCount: len(queue),
		CreatedAt:     time.Now().Unix(),
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s := newTestSession("s1", []string{"a", "b"})
	require.NoError(t, db.CreateSession(ctx, s))

	got, err := db.Session(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.Queue, got.Queue)
	assert.Equal(t, 2, got.OriginalCount)
	assert.False(t, got.Completed)

	require.NoError(t, db.SetSessionMessage(ctx, "s1", 777))
	got, err = db.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 777, got.MessageID)

	absent, err := db.Session(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestAdvanceSession_WrongAnswerAppendsDebt(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("a", "table", 0)))
	require.NoError(t, db.CreateSession(ctx, newTestSession("s1", []string{"a", "b"})))

	rec := models.AttemptRecord{SessionID: "s1", QuestionID: "a", Category: "table", Correct: false}
	updated, applied, err := db.AdvanceSession(ctx, "s1", 0, rec)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, 1, updated.Cursor)
	assert.Equal(t, []string{"a", "b", "a"}, updated.Queue)
	assert.Equal(t, 1, updated.DebtCount)
	assert.False(t, updated.Completed)

	q, err := db.Question(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, q.Attempts, "counter bump rides the same transaction")
	assert.Equal(t, 0, q.Correct)

	stats, err := db.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptStats{Answered: 1, Correct: 0, FirstTryCorrect: 0}, stats)
}

func TestAdvanceSession_StaleCursorRejected(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateSession(ctx, newTestSession("s1", []string{"a", "b"})))

	rec := models.AttemptRecord{SessionID: "s1", QuestionID: "a", Category: "table", Correct: true}
	_, applied, err := db.AdvanceSession(ctx, "s1", 0, rec)
	require.NoError(t, err)
	require.True(t, applied)

	// Redelivery of the same event.
	_, applied, err = db.AdvanceSession(ctx, "s1", 0, rec)
	require.NoError(t, err)
	assert.False(t, applied)

	stats, err := db.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Answered, "stale transitions leave no log entry")
}

func TestAdvanceSession_UnknownSession(t *testing.T) {
	db := testDB(t)
	_, applied, err := db.AdvanceSession(context.Background(), "nope", 0, models.AttemptRecord{})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestAdvanceSession_CompletesOnLastQuestion(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateSession(ctx, newTestSession("s1", []string{"a"})))

	rec := models.AttemptRecord{SessionID: "s1", QuestionID: "a", Category: "table", Correct: true, IsDebt: false}
	updated, applied, err := db.AdvanceSession(ctx, "s1", 0, rec)
	require.NoError(t, err)
	require.True(t, applied)
	assert.True(t, updated.Completed)

	// Completed is terminal.
	_, applied, err = db.AdvanceSession(ctx, "s1", 1, rec)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestAdvanceSession_ConcurrentSameCursor(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.CreateSession(ctx, newTestSession("s1", []string{"a", "b"})))

	const racers = 6
	var wg sync.WaitGroup
	results := make([]bool, racers)
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := models.AttemptRecord{SessionID: "s1", QuestionID: "a", Category: "table", Correct: true}
			_, applied, err := db.AdvanceSession(ctx, "s1", 0, rec)
			results[i], errs[i] = applied, err
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < racers; i++ {
		require.NoError(t, errs[i])
		if results[i] {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one concurrent transition applies")

	stats, err := db.SessionStats(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Answered)
}

func TestFlawLogQueries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.InsertFlaw(ctx, "Algebraic Sign Error", false, now.Add(-30*time.Hour)))
	require.NoError(t, db.InsertFlaw(ctx, "Ratio Misapplied", true, now.Add(-20*time.Hour)))
	require.NoError(t, db.InsertFlaw(ctx, "Misread Constraint", false, now.Add(-10*time.Hour)))

	uncaught, err := db.UncaughtFlaws(ctx)
	require.NoError(t, err)
	require.Len(t, uncaught, 2)
	assert.Equal(t, "Algebraic Sign Error", uncaught[0].ErrorCategory, "oldest first")

	latest, err := db.LatestFlaw(ctx, now.Add(-48*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "Misread Constraint", latest.ErrorCategory)
	assert.False(t, latest.Caught)

	none, err := db.LatestFlaw(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCategoryMisses(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("a", "table", 0)))
	require.NoError(t, db.CreateSession(ctx, newTestSession("s1", []string{"a", "a"})))

	rec := models.AttemptRecord{SessionID: "s1", QuestionID: "a", Category: "table", Correct: false}
	_, applied, err := db.AdvanceSession(ctx, "s1", 0, rec)
	require.NoError(t, err)
	require.True(t, applied)

	misses, err := db.CategoryMisses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"table": 1}, misses)
}

func TestBankStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("a", "table", 0)))
	require.NoError(t, db.InsertQuestion(ctx, testQuestion("b", "prime", 0)))
	require.NoError(t, db.RecordAttempt(ctx, "a", true))

	stats, err := db.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "prime", stats[0].Category)
	assert.Equal(t, "table", stats[1].Category)
	assert.Equal(t, 1, stats[1].Attempts)
	assert.Equal(t, 1, stats[1].Correct)
}
