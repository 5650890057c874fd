package config

import "testing"

func TestNewFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot-token")
	t.Setenv("TELEGRAM_WEBHOOK_URL", "https://example.com/webhook")
	t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123, 456")

	cfg, err := NewFromEnv()
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}
	if cfg.GeminiAPIKey != "gem-key" {
		t.Errorf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if cfg.DatabasePath != "data/meal-plan.db" {
		t.Errorf("default DatabasePath = %q", cfg.DatabasePath)
	}
	if len(cfg.TelegramAllowedUserIDs) != 2 ||
		cfg.TelegramAllowedUserIDs[0] != 123 || cfg.TelegramAllowedUserIDs[1] != 456 {
		t.Errorf("TelegramAllowedUserIDs = %v", cfg.TelegramAllowedUserIDs)
	}
}

func TestNewFromEnvRequiresLLMKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GROQ_API_KEY", "")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected an error when no LLM key is configured")
	}
}

func TestNewFromEnvRejectsBadUserID(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "123,abc")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("expected an error for a non-numeric user id")
	}
}
