package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string

	DatabaseURL      string
	TelegramBotToken string
	WebhookURL       string

	AITimeout time.Duration
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the environment. Credentials are optional at startup: a missing
// GEMINI_API_KEY surfaces later as a config error on the generative paths, a
// missing DATABASE_URL just disables history.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		WebhookURL:       os.Getenv("WEBHOOK_URL"),

		AITimeout: aiTimeout(),
	}
}

func aiTimeout() time.Duration {
	v := getEnv("AI_TIMEOUT_SECONDS", "10")
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		n = 10
	}
	return time.Duration(n) * time.Second
}
