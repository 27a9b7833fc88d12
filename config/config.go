package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application
type Config struct {
	BotToken     string
	ChatID       int64
	DatabasePath string
	WebhookAddr  string
	WebhookPath  string
}

// DatabasePath resolves just the database location, for commands that
// work on the local database without talking to Telegram.
func DatabasePath() string {
	_ = godotenv.Load()
	if p := os.Getenv("DB_PATH"); p != "" {
		return p
	}
	return "./data/sprintbot.db"
}

// Load loads the configuration from a .env file (if present) and
// environment variables
func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set env vars directly
	_ = godotenv.Load()

	botToken := os.Getenv("TELEGRAM_TOKEN")
	if botToken == "" {
		return nil, errors.New("TELEGRAM_TOKEN environment variable is required")
	}

	var chatID int64
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		chatID = parsed
	}

	// Set database path with default
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/sprintbot.db"
	}

	webhookAddr := os.Getenv("WEBHOOK_ADDR")
	if webhookAddr == "" {
		webhookAddr = ":8080"
	}

	webhookPath := os.Getenv("WEBHOOK_PATH")
	if webhookPath == "" {
		webhookPath = "/sprint-webhook"
	}

	return &Config{
		BotToken:     botToken,
		ChatID:       chatID,
		DatabasePath: dbPath,
		WebhookAddr:  webhookAddr,
		WebhookPath:  webhookPath,
	}, nil
}
