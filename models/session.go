package models

// Session is one interactive sprint run. The queue holds question IDs and
// only grows: a wrong answer appends the same question to the end (debt).
// Cursor counts accepted answers, so cursor == len(Queue) means the run is
// over. ChatID/MessageID identify the single Telegram message the whole
// session is rendered into.
type Session struct {
	ID            string
	ChatID        int64
	MessageID     int
	Queue         []string
	Cursor        int
	OriginalCount int
	DebtCount     int
	Completed     bool
	CreatedAt     int64
}

// CurrentQuestionID returns the ID of the question awaiting an answer,
// or "" when the session is complete.
func (s *Session) CurrentQuestionID() string {
	if s.Cursor >= len(s.Queue) {
		return ""
	}
	return s.Queue[s.Cursor]
}
