package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payments   PaymentsConfig   `yaml:"payments"`
	Daily      DailyConfig      `yaml:"daily"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Webhooks   WebhooksConfig   `yaml:"webhooks"`
	Booking    BookingConfig    `yaml:"booking"`
	Bot        BotConfig        `yaml:"bot"`
	Backup     BackupConfig     `yaml:"backup"`
	Admins     []int64          `yaml:"admins"`
	Blacklist  []int64          `yaml:"blacklist"`
	Exports    ExportConfig     `yaml:"exports"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type PaymentsConfig struct {
	Currency string       `yaml:"currency"`
	Epayco   EpaycoConfig `yaml:"epayco"`
	Daimo    DaimoConfig  `yaml:"daimo"`
}

type EpaycoConfig struct {
	PublicKey  string `yaml:"public_key"`
	PrivateKey string `yaml:"private_key"`
	BaseURL    string `yaml:"base_url"`
	TestMode   bool   `yaml:"test_mode"`
}

type DaimoConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// DailyConfig configures the Daily.co video room API.
type DailyConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Domain  string `yaml:"domain"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// WebhooksConfig configures the inbound HTTP surface for payment
// provider callbacks.
type WebhooksConfig struct {
	Enabled      bool               `yaml:"enabled"`
	Port         int                `yaml:"port"`
	HeaderAPIKey string             `yaml:"header_api_key"`
	APIKeys      []WebhookClientKey `yaml:"api_keys"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
}

type WebhookClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	HoldTTLMinutes    int `yaml:"hold_ttl_minutes"`
	MaxDaysAhead      int `yaml:"max_days_ahead"`
	SlotSweepSeconds  int `yaml:"slot_sweep_seconds"`
	GenerateDaysAhead int `yaml:"generate_days_ahead"`
	NearbyRadiusKM    int `yaml:"nearby_radius_km"`
	NearbyLimit       int `yaml:"nearby_limit"`
}

type BotConfig struct {
	ReminderTime      string `yaml:"reminder_time"`
	PaginationSize    int    `yaml:"pagination_size"`
	RateLimitMessages int    `yaml:"rate_limit_messages"`
	RateLimitWindow   int    `yaml:"rate_limit_window"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; env vars may come from the environment directly.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Substitute ${VAR} references before parsing.
	expanded := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expanded, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}

	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.HoldTTLMinutes < 1 {
		return errors.New("booking hold ttl must be at least one minute")
	}

	if c.Webhooks.Enabled && len(c.Webhooks.APIKeys) == 0 {
		return errors.New("webhooks enabled but no api keys configured")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Payments.Currency == "" {
		c.Payments.Currency = "USD"
	}
	if c.Payments.Epayco.BaseURL == "" {
		c.Payments.Epayco.BaseURL = "https://api.secure.payco.co"
	}
	if c.Payments.Daimo.BaseURL == "" {
		c.Payments.Daimo.BaseURL = "https://pay.daimo.com/api"
	}
	if c.Daily.BaseURL == "" {
		c.Daily.BaseURL = "https://api.daily.co/v1"
	}

	if c.Webhooks.Port == 0 {
		c.Webhooks.Port = 8080
	}
	if c.Webhooks.HeaderAPIKey == "" {
		c.Webhooks.HeaderAPIKey = "x-api-key"
	}
	if c.Webhooks.RateLimit.RPS == 0 {
		c.Webhooks.RateLimit.RPS = 10
	}
	if c.Webhooks.RateLimit.Burst == 0 {
		c.Webhooks.RateLimit.Burst = 5
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Booking.HoldTTLMinutes == 0 {
		c.Booking.HoldTTLMinutes = models.DefaultHoldTTLMinutes
	}
	if c.Booking.MaxDaysAhead == 0 {
		c.Booking.MaxDaysAhead = models.MaxBookingDaysAhead
	}
	if c.Booking.SlotSweepSeconds == 0 {
		c.Booking.SlotSweepSeconds = 60
	}
	if c.Booking.GenerateDaysAhead == 0 {
		c.Booking.GenerateDaysAhead = 14
	}
	if c.Booking.NearbyRadiusKM == 0 {
		c.Booking.NearbyRadiusKM = 25
	}
	if c.Booking.NearbyLimit == 0 {
		c.Booking.NearbyLimit = 5
	}

	if c.Bot.ReminderTime == "" {
		c.Bot.ReminderTime = fmt.Sprintf("%02d:00", models.ReminderHour)
	}
	if c.Bot.PaginationSize == 0 {
		c.Bot.PaginationSize = models.DefaultPaginationSize
	}
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = models.RateLimitMessages
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = models.RateLimitWindow
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
