package models

// Question is a single sprint question. Options are fixed at creation
// (between 2 and 4 of them); the counters only ever grow.
type Question struct {
	ID           string   `json:"id"`
	Category     string   `json:"category"`
	Difficulty   int      `json:"difficulty_level"`
	Text         string   `json:"question_text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_answer_index"`
	Attempts     int      `json:"times_attempted"`
	Correct      int      `json:"times_correct"`
}

// AttemptRecord is one accepted answer. Append-only; the category is
// denormalized at write time so deleting a question later cannot break
// historical stats.
type AttemptRecord struct {
	SessionID  string
	QuestionID string
	Category   string
	Correct    bool
	IsDebt     bool
	Timestamp  int64
}

// AttemptStats aggregates the attempt log for one session.
type AttemptStats struct {
	Answered        int
	Correct         int
	FirstTryCorrect int
}

// FlawEntry is one outcome of the daily "spot the flaw" quiz. The sprint
// selection reads these to decide which categories need extra attention.
type FlawEntry struct {
	ID            int64
	ErrorCategory string
	Caught        bool
	LoggedAt      int64
}
