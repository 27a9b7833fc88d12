package sprint

import (
	"fmt"
	"strings"

	"github.com/ivkor/sprintbot/models"
)

// QuestionView is the renderable form of an active session: message text
// plus the answer options to lay out as buttons. It carries no transport
// types; the delivery adapter decides how buttons become buttons.
type QuestionView struct {
	Text    string
	Options []string
	// Cursor is the queue position this view was rendered at. It must be
	// encoded into each button's payload so a late tap on an outdated
	// view is detectable as stale.
	Cursor int
}

// RenderOpening renders the first question of a fresh session, with a
// note about which weak categories the batch is targeting.
func RenderOpening(s *models.Session, q *models.Question, weakCategories []string) QuestionView {
	var b strings.Builder
	fmt.Fprintf(&b, "⚡ *MATH SPRINT* [1/%d]\n\n", len(s.Queue))
	if len(weakCategories) > 0 {
		fmt.Fprintf(&b, "_Targeting your weak spots: %s_\n\n", strings.Join(weakCategories, ", "))
	}
	b.WriteString(q.Text)
	return QuestionView{Text: b.String(), Options: q.Options, Cursor: s.Cursor}
}

// RenderQuestion renders the question at the session's cursor. The
// denominator is the current queue length, which grows as debt accrues.
// wrongBefore marks that the previous answer was wrong, so the view warns
// that the missed question will return.
func RenderQuestion(s *models.Session, q *models.Question, wrongBefore bool) QuestionView {
	var b strings.Builder
	fmt.Fprintf(&b, "⚡ *MATH SPRINT* [%d/%d]\n\n", s.Cursor+1, len(s.Queue))
	if s.DebtCount > 0 {
		fmt.Fprintf(&b, "_Debt queue: +%d_ ⚠️\n\n", s.DebtCount)
	}
	if wrongBefore {
		b.WriteString("_❌ That one will return. Keep going._\n\n")
	}
	b.WriteString(q.Text)
	return QuestionView{Text: b.String(), Options: q.Options, Cursor: s.Cursor}
}

// RenderSummary renders the completion message for a finished session.
func RenderSummary(s *models.Session, stats models.AttemptStats) string {
	var b strings.Builder
	b.WriteString("🏁 *Sprint Complete!*\n\n")
	fmt.Fprintf(&b, "Original questions: %d\n", s.OriginalCount)
	if s.DebtCount > 0 {
		fmt.Fprintf(&b, "Debt repaid: %d wrong answer(s) → %d extra question(s)\n", s.DebtCount, s.DebtCount)
		fmt.Fprintf(&b, "Total answered: %d\n", stats.Answered)
		fmt.Fprintf(&b, "Right on first try: %d/%d (%d overall)\n\n", stats.FirstTryCorrect, s.OriginalCount, stats.Correct)
		b.WriteString("_Each wrong answer cost you an extra question. Tomorrow, go clean._")
	} else {
		b.WriteString("✨ *Perfect run. Zero debt. Go get some sleep.*")
	}
	return b.String()
}
