package bot

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ServeWebhook runs an HTTP server receiving Telegram updates at path,
// for deployments where a webhook replaces long polling. Updates go
// through the same handlers as the polling loop.
func (b *Bot) ServeWebhook(addr, path string) error {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post(path, func(w http.ResponseWriter, req *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			log.Printf("Rejecting undecodable webhook body: %v", err)
			// Telegram retries non-2xx deliveries; a malformed body will
			// never get better, so acknowledge it
			w.WriteHeader(http.StatusOK)
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallback(update.CallbackQuery)
		} else if update.Message != nil {
			b.handleMessage(update.Message)
		}
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("Listening for Telegram updates on %s%s", addr, path)
	return http.ListenAndServe(addr, r)
}
