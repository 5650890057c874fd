package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM backends. At least one key must be present; Gemini is preferred
	// when both are set.
	GeminiAPIKey string
	GroqAPIKey   string

	// Path to the SQLite database file.
	DatabasePath string

	// Telegram Config (optional for the CLI, required for the bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if geminiAPIKey == "" && groqAPIKey == "" {
		return nil, fmt.Errorf("neither GEMINI_API_KEY nor GROQ_API_KEY environment variable is set")
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/meal-plan.db"
	}

	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")

	var allowedIDs []int64
	if raw := os.Getenv("TELEGRAM_ALLOWED_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS entry %q: %w", part, err)
			}
			allowedIDs = append(allowedIDs, id)
		}
	}

	return &Config{
		GeminiAPIKey:           geminiAPIKey,
		GroqAPIKey:             groqAPIKey,
		DatabasePath:           databasePath,
		TelegramBotToken:       telegramBotToken,
		TelegramWebhookURL:     telegramWebhookURL,
		TelegramAllowedUserIDs: allowedIDs,
	}, nil
}
