// Package bot is the interaction gateway: it turns Telegram updates into
// engine calls and engine outcomes into edits of the one message each
// sprint session lives in.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ivkor/sprintbot/config"
	"github.com/ivkor/sprintbot/database"
	"github.com/ivkor/sprintbot/models"
	"github.com/ivkor/sprintbot/retry"
	"github.com/ivkor/sprintbot/sprint"
)

const (
	cmdStart  = "start"
	cmdSprint = "sprint"
	cmdHelp   = "help"
	cmdStat   = "stat"

	// handlerTimeout bounds one update's processing, retries included.
	handlerTimeout = 30 * time.Second

	// sendRetries caps backoff attempts for Telegram send/edit calls.
	sendRetries = 3
	// submitRetries caps re-attempts of a transition after a storage
	// failure; every re-attempt carries the same expected cursor.
	submitRetries = 3
)

// Bot wires the Telegram API, the database and the sprint engine together.
type Bot struct {
	api    *tgbotapi.BotAPI
	db     *database.DB
	engine *sprint.Engine
}

// New creates a new bot instance
func New(cfg *config.Config) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Bot{
		api:    botAPI,
		db:     db,
		engine: sprint.NewEngine(db, db),
	}, nil
}

// Close releases the bot's database handle.
func (b *Bot) Close() error {
	return b.db.Close()
}

// StartPolling runs the long-polling update loop until the channel closes.
func (b *Bot) StartPolling() {
	log.Println("Starting bot polling...")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
		} else if update.Message != nil {
			b.handleMessage(update.Message)
		}
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	log.Printf("Received message from %s (ID: %d): %s", message.From.UserName, message.From.ID, message.Text)

	switch {
	case strings.HasPrefix(message.Text, "/"+cmdStart):
		b.handleStartCommand(message)
	case strings.HasPrefix(message.Text, "/"+cmdSprint):
		b.handleSprintCommand(message)
	case strings.HasPrefix(message.Text, "/"+cmdStat):
		b.handleStatCommand(message)
	case strings.HasPrefix(message.Text, "/"+cmdHelp):
		b.handleHelpCommand(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /sprint to start a sprint or /help for assistance.")
	}
}

// handleStartCommand handles the /start command
func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	welcomeText := `Welcome to SprintBot!

A sprint is a short burst of math questions picked to hit your weak spots. Answer with the buttons; every wrong answer puts the same question back at the end of the queue, so you leave no debt behind.

Commands:
/sprint - Start a sprint now
/stat - View your statistics
/help - How sprints work

Ready when you are — /sprint to begin.`

	b.sendMessage(message.Chat.ID, welcomeText)
}

// handleHelpCommand handles the /help command
func (b *Bot) handleHelpCommand(message *tgbotapi.Message) {
	helpText := `How a sprint works:

1. You get a batch of questions, biased toward categories you miss most.
2. Tap a button to answer. The message updates in place.
3. A wrong answer re-queues that exact question — the debt queue.
4. The sprint ends when the queue is empty, debt included.

Progress like [3/7] counts the growing queue, so debt shows up in the denominator.`

	b.sendMessage(message.Chat.ID, helpText)
}

// handleSprintCommand handles the /sprint command
func (b *Bot) handleSprintCommand(message *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if err := b.Deliver(ctx, message.Chat.ID); err != nil {
		log.Printf("Error delivering sprint: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't start a sprint. Please try again later.")
	}
}

// handleStatCommand handles the /stat command
func (b *Bot) handleStatCommand(message *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	stats, err := b.db.Stats(ctx)
	if err != nil {
		log.Printf("Error getting bank stats: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve statistics. Please try again later.")
		return
	}
	misses, err := b.db.CategoryMisses(ctx)
	if err != nil {
		log.Printf("Error getting category misses: %v", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve statistics. Please try again later.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Your Statistics:\n")
	var attempts, correct int
	for _, s := range stats {
		attempts += s.Attempts
		correct += s.Correct
	}
	fmt.Fprintf(&sb, "\nTotal Answers: %d\nCorrect: %d ✅\nIncorrect: %d ❌\n", attempts, correct, attempts-correct)
	if attempts > 0 {
		fmt.Fprintf(&sb, "Accuracy: %.1f%%\n", float64(correct)/float64(attempts)*100)
	}

	if len(misses) > 0 {
		sb.WriteString("\nMost Missed Categories:\n")
		for _, s := range stats {
			if n := misses[s.Category]; n > 0 {
				fmt.Fprintf(&sb, "- %s: %d wrong\n", s.Category, n)
			}
		}
	}

	b.sendMessage(message.Chat.ID, sb.String())
}

// handleCallback processes one answer tap. Every tap resolves to exactly
// one of: accepted (render next question or summary), or rejected as
// stale (neutral ack so the UI does not hang). Delivery is at-least-once,
// so duplicates and late taps are normal traffic here, not errors.
func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	log.Printf("Handling callback from user %s (ID: %d) with data: %s",
		callback.From.UserName, callback.From.ID, callback.Data)

	sessionID, cursor, option, err := parseCallback(callback.Data)
	if err != nil {
		log.Printf("Rejecting malformed callback %q: %v", callback.Data, err)
		b.sendCallbackResponse(callback.ID, "")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var out *sprint.Outcome
	err = retry.Do(ctx, submitRetries, func() error {
		o, err := b.engine.Submit(ctx, sessionID, cursor, option)
		if err != nil {
			if errors.Is(err, sprint.ErrUnknownSession) || errors.Is(err, sprint.ErrInvalidOption) {
				return retry.Permanent(err)
			}
			// Storage hiccup: retry with the same expected cursor so a
			// half-applied transition shows up as stale, not as a double
			// answer.
			return err
		}
		out = o
		return nil
	})

	switch {
	case errors.Is(err, sprint.ErrUnknownSession):
		log.Printf("Callback for unknown session %s, ignoring", sessionID)
		b.sendCallbackResponse(callback.ID, "Session expired.")
		return
	case errors.Is(err, sprint.ErrInvalidOption):
		log.Printf("Callback with invalid option for session %s: %v", sessionID, err)
		b.sendCallbackResponse(callback.ID, "")
		return
	case err != nil:
		log.Printf("Error submitting answer for session %s: %v", sessionID, err)
		b.sendCallbackResponse(callback.ID, "Temporary hiccup — tap again.")
		return
	}

	if !out.Accepted {
		// Stale or duplicate tap: the question has already advanced.
		log.Printf("Stale tap for session %s at cursor %d (now %d)", sessionID, cursor, out.Session.Cursor)
		b.sendCallbackResponse(callback.ID, "")
		return
	}

	if out.Correct {
		b.sendCallbackResponse(callback.ID, "✅ Correct!")
	} else {
		b.sendCallbackResponse(callback.ID, "❌ Wrong — added to debt queue!")
	}

	s := out.Session
	if out.Completed() {
		b.editSessionMessage(ctx, s, sprint.RenderSummary(s, out.Stats), nil)
		log.Printf("Session %s completed: %d original, %d debt, %d/%d first-try",
			s.ID, s.OriginalCount, s.DebtCount, out.Stats.FirstTryCorrect, s.OriginalCount)
		return
	}

	view := sprint.RenderQuestion(s, out.Next, !out.Correct)
	keyboard := buildKeyboard(s.ID, view)
	b.editSessionMessage(ctx, s, view.Text, &keyboard)
}

// buildKeyboard lays out a view's options as a 2-wide button grid, each
// button carrying the session, the cursor the view was rendered at, and
// its option index.
func buildKeyboard(sessionID string, view sprint.QuestionView) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for i, opt := range view.Options {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(opt, formatCallback(sessionID, view.Cursor, i)))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += 2 {
		end := i + 2
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// sendMessage sends a text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Error sending message: %v", err)
	}
}

// sendCallbackResponse acknowledges a callback query. Always called once
// per tap, whatever the outcome, so Telegram stops the button spinner.
func (b *Bot) sendCallbackResponse(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		log.Printf("Error sending callback response: %v", err)
	}
}

// editSessionMessage edits the session's single message in place. A
// session is always one evolving message, never a stream of new ones.
func (b *Bot) editSessionMessage(ctx context.Context, s *models.Session, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(s.ChatID, s.MessageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = keyboard

	err := retry.Do(ctx, sendRetries, func() error {
		_, err := b.api.Send(edit)
		return err
	})
	if err != nil {
		log.Printf("Error editing message %d for session %s: %v", s.MessageID, s.ID, err)

		// Markdown can fail on question content; fall back to plain text
		plain := tgbotapi.NewEditMessageText(s.ChatID, s.MessageID, text)
		plain.ReplyMarkup = keyboard
		if _, err := b.api.Send(plain); err != nil {
			log.Printf("Plain text edit fallback also failed: %v", err)
		}
	}
}
