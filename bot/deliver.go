package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivkor/sprintbot/retry"
	"github.com/ivkor/sprintbot/sprint"
)

// mandatoryWindow is how far back the flaw log is consulted when deciding
// whether yesterday's quiz forces a category into today's sprint.
const mandatoryWindow = 48 * time.Hour

// Deliver selects a batch, creates a session and sends the opening
// question to chatID. An empty bank is "nothing to deliver": a warning
// message, no session row.
func (b *Bot) Deliver(ctx context.Context, chatID int64) error {
	flaws, err := b.db.UncaughtFlaws(ctx)
	if err != nil {
		return fmt.Errorf("read flaw log: %w", err)
	}
	weak := sprint.WeakCategories(flaws, 2)

	latest, err := b.db.LatestFlaw(ctx, time.Now().Add(-mandatoryWindow))
	if err != nil {
		return fmt.Errorf("read latest flaw: %w", err)
	}
	mandatory := sprint.MandatoryCategory(latest)

	batch, err := sprint.SelectBatch(ctx, b.db, sprint.SelectionInput{
		BatchSize:         sprint.DefaultBatchSize,
		MandatoryCategory: mandatory,
		WeakCategories:    weak,
	})
	if err != nil {
		return fmt.Errorf("select batch: %w", err)
	}
	if len(batch) == 0 {
		log.Println("Question bank is empty, nothing to deliver")
		b.sendMessage(chatID, "⚠️ Math sprint: question bank is empty. Import questions first.")
		return nil
	}

	sess, err := b.engine.CreateSession(ctx, chatID, sprint.IDs(batch))
	if err != nil {
		return err
	}

	view := sprint.RenderOpening(sess, &batch[0], weak)
	keyboard := buildKeyboard(sess.ID, view)

	msg := tgbotapi.NewMessage(chatID, view.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard

	var sent tgbotapi.Message
	err = retry.Do(ctx, sendRetries, func() error {
		m, err := b.api.Send(msg)
		if err != nil {
			return err
		}
		sent = m
		return nil
	})
	if err != nil {
		return fmt.Errorf("send sprint opening: %w", err)
	}

	if err := b.db.SetSessionMessage(ctx, sess.ID, sent.MessageID); err != nil {
		return fmt.Errorf("record session message: %w", err)
	}

	categories := make([]string, len(batch))
	for i, q := range batch {
		categories[i] = q.Category
	}
	log.Printf("Sprint delivered. Session: %s", sess.ID)
	log.Printf("Questions: %d (%s)", len(batch), strings.Join(categories, ", "))
	if len(weak) > 0 {
		log.Printf("Weak categories targeted: %s", strings.Join(weak, ", "))
	}
	if mandatory != "" {
		log.Printf("Mandatory category: %s", mandatory)
	}
	return nil
}
