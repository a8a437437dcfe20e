package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the to-do manager.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	// OwnerID restricts the bot to one Telegram account. Zero lets the first account that writes claim it.
	OwnerID          int64
	ReminderInterval time.Duration
	DigestTime       string
	LogLevel         string
	LogJSON          bool
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken:    env("TELEGRAM_TOKEN", ""),
		DatabaseURL:      env("DATABASE_URL", "todo.db"),
		ReminderInterval: parseSeconds(env("REMINDER_CHECK_SECONDS", "")),
		DigestTime:       env("DIGEST_TIME", "08:00"),
		LogLevel:         env("LOG_LEVEL", "info"),
		LogJSON:          strings.EqualFold(env("LOG_FORMAT", "text"), "json"),
	}

	if cfg.ReminderInterval == 0 {
		cfg.ReminderInterval = time.Minute
	}

	if raw := env("OWNER_ID", ""); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("OWNER_ID must be a number: %w", err)
		}
		cfg.OwnerID = id
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// env returns the trimmed variable, or def when it is unset. A variable set to
// the empty string stays empty so DIGEST_TIME= can switch the digest off.
func env(key, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return def
}

func parseSeconds(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
