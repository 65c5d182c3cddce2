package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_KEY", "test-key")
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.TelegramChatID != -100123 {
		t.Errorf("expected chat id -100123, got %d", cfg.TelegramChatID)
	}
	if cfg.CheckInterval != 300*time.Second {
		t.Errorf("expected default interval 300s, got %v", cfg.CheckInterval)
	}
	if cfg.DailyReportTime != "23:59" {
		t.Errorf("expected default report time 23:59, got %q", cfg.DailyReportTime)
	}
	if cfg.ArchiveDir != "data/events" || cfg.ReportDir != "data/reports" {
		t.Errorf("unexpected default dirs: %q, %q", cfg.ArchiveDir, cfg.ReportDir)
	}
	if cfg.PerPage != 25 || cfg.MaxPages != 4 {
		t.Errorf("unexpected pagination defaults: %d, %d", cfg.PerPage, cfg.MaxPages)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CHECK_INTERVAL", "60")
	t.Setenv("DAILY_REPORT_TIME", "08:30")
	t.Setenv("TIMEZONE", "America/Chicago")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.CheckInterval != time.Minute {
		t.Errorf("expected 60s interval, got %v", cfg.CheckInterval)
	}
	if cfg.DailyReportTime != "08:30" {
		t.Errorf("expected 08:30, got %q", cfg.DailyReportTime)
	}
	if cfg.Timezone != "America/Chicago" {
		t.Errorf("expected America/Chicago, got %q", cfg.Timezone)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEY", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "API_KEY") {
		t.Fatalf("expected API_KEY error, got %v", err)
	}
}

func TestLoad_NonNumericChatID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_CHAT_ID", "not-a-number")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "TELEGRAM_CHAT_ID") {
		t.Fatalf("expected chat id error, got %v", err)
	}
}

func TestLoad_InvalidReportTime(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DAILY_REPORT_TIME", "25:99")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DAILY_REPORT_TIME") {
		t.Fatalf("expected report time error, got %v", err)
	}
}
