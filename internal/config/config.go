package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	APIKey     string
	APIBaseURL string

	TelegramToken  string
	TelegramChatID int64

	RedisURL   string
	ArchiveDir string
	ReportDir  string

	CheckInterval   time.Duration
	DailyReportTime string
	Timezone        string

	HTTPPort string

	PerPage  int
	MaxPages int
}

// Load reads configuration from the environment, with a best-effort .env
// autoload first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:          os.Getenv("API_KEY"),
		APIBaseURL:      os.Getenv("API_BASE_URL"),
		TelegramToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		RedisURL:        getEnv("REDIS_URL", ""),
		ArchiveDir:      getEnv("ARCHIVE_DIR", "data/events"),
		ReportDir:       getEnv("REPORT_DIR", "data/reports"),
		CheckInterval:   time.Duration(getEnvInt("CHECK_INTERVAL", 300)) * time.Second,
		DailyReportTime: getEnv("DAILY_REPORT_TIME", "23:59"),
		Timezone:        getEnv("TIMEZONE", ""),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		PerPage:         getEnvInt("PER_PAGE", 25),
		MaxPages:        getEnvInt("MAX_PAGES", 4),
	}

	for _, req := range []struct{ key, val string }{
		{"API_KEY", cfg.APIKey},
		{"API_BASE_URL", cfg.APIBaseURL},
		{"TELEGRAM_BOT_TOKEN", cfg.TelegramToken},
		{"TELEGRAM_CHAT_ID", os.Getenv("TELEGRAM_CHAT_ID")},
		{"REDIS_URL", cfg.RedisURL},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("%s is required", req.key)
		}
	}

	chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be numeric: %w", err)
	}
	cfg.TelegramChatID = chatID

	if _, err := time.Parse("15:04", cfg.DailyReportTime); err != nil {
		return nil, fmt.Errorf("DAILY_REPORT_TIME must be HH:MM: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
