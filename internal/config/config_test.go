package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
telegram:
  bot_token: "test_token"
database:
  path: "test.db"
booking:
  hold_ttl_minutes: 15
admins:
  - 111
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "test_token" {
		t.Errorf("expected bot_token test_token, got %s", cfg.Telegram.BotToken)
	}
	if cfg.Booking.HoldTTLMinutes != 15 {
		t.Errorf("expected hold ttl 15, got %d", cfg.Booking.HoldTTLMinutes)
	}
	if len(cfg.Admins) != 1 || cfg.Admins[0] != 111 {
		t.Errorf("expected one admin with id 111")
	}
}

func TestLoadConfigEnvExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_BOT_TOKEN", "token_from_env")

	yamlContent := `
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
database:
  path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Telegram.BotToken != "token_from_env" {
		t.Errorf("expected env-substituted token, got %s", cfg.Telegram.BotToken)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{HoldTTLMinutes: 10},
			},
			wantErr: false,
		},
		{
			name: "missing token",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: ""},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{HoldTTLMinutes: 10},
			},
			wantErr: true,
		},
		{
			name: "zero hold ttl",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "webhooks without keys",
			cfg: Config{
				Telegram: TelegramConfig{BotToken: "token"},
				Database: DatabaseConfig{Path: "path"},
				Booking:  BookingConfig{HoldTTLMinutes: 10},
				Webhooks: WebhooksConfig{Enabled: true},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Booking.HoldTTLMinutes != models.DefaultHoldTTLMinutes {
		t.Errorf("expected default hold ttl %d, got %d", models.DefaultHoldTTLMinutes, cfg.Booking.HoldTTLMinutes)
	}
	if cfg.Bot.ReminderTime != "09:00" {
		t.Errorf("expected default reminder time 09:00, got %s", cfg.Bot.ReminderTime)
	}
	if cfg.Bot.PaginationSize != models.DefaultPaginationSize {
		t.Errorf("expected default pagination size %d, got %d", models.DefaultPaginationSize, cfg.Bot.PaginationSize)
	}
	if cfg.Webhooks.Port != 8080 {
		t.Errorf("expected default webhook port 8080, got %d", cfg.Webhooks.Port)
	}
	if cfg.Payments.Currency != "USD" {
		t.Errorf("expected default currency USD, got %s", cfg.Payments.Currency)
	}
}
