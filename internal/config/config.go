package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL   string
	HTTPAddr      string
	LogLevel      string
	Env           string // dev|prod
	SentryDSN     string
	Release       string
	DBTimeout     time.Duration
	AutoMigrate   bool
	SeedDemo      bool
	StatsInterval time.Duration
	CORSOrigins   []string

	TelegramToken  string
	TelegramChatID int64
}

// Load reads the configuration from the environment, after .env when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	dbTimeout, err := durationEnv("DB_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	statsEvery, err := durationEnv("STATS_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	if statsEvery <= 0 {
		return nil, fmt.Errorf("STATS_INTERVAL must be positive, got %s", statsEvery)
	}
	autoMigrate, err := boolEnv("AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}
	seed, err := boolEnv("SEED_DEMO", false)
	if err != nil {
		return nil, err
	}

	var chatID int64
	if s := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); s != "" {
		chatID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
	}

	return &Config{
		DatabaseURL:    dsn,
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		Env:            getenv("ENV", "dev"),
		SentryDSN:      os.Getenv("SENTRY_DSN"),
		Release:        getenv("RELEASE", "dev"),
		DBTimeout:      dbTimeout,
		AutoMigrate:    autoMigrate,
		SeedDemo:       seed,
		StatsInterval:  statsEvery,
		CORSOrigins:    splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: chatID,
	}, nil
}

// NotifyEnabled is true when both the bot token and the target chat are configured.
func (c *Config) NotifyEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func durationEnv(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func boolEnv(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
}
