package Config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	NumberFormatStandard = "standard"
	NumberFormatLegacy   = "legacy"
)

type Config struct {
	Port     string
	Database DatabaseConfig
	Auth     AuthConfig
	JobCards JobCardConfig
	Slack    SlackConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Driver   string // sqlite, mysql or postgres
	DSN      string
	LogLevel string
}

type AuthConfig struct {
	Enabled       bool
	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string
}

type JobCardConfig struct {
	NumberFormat string
	// SundryRate is the sundry + workshop surcharge applied on read, never stored.
	SundryRate float64
	// AutoGenerateSchedule is a six-field cron spec; empty disables the job.
	AutoGenerateSchedule string
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
}

type LogConfig struct {
	Level string
	File  string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3001")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "workshop.db")
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("JOB_CARD_NUMBER_FORMAT", NumberFormatStandard)
	v.SetDefault("SUNDRY_RATE", 0.10)
	v.SetDefault("AUTO_GENERATE_SCHEDULE", "")
	v.SetDefault("SLACK_BOT_TOKEN", "")
	v.SetDefault("SLACK_CHANNEL_ID", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "logs/requests.log")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port: v.GetString("PORT"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:      v.GetString("DB_DSN"),
			LogLevel: strings.ToLower(v.GetString("DB_LOG_LEVEL")),
		},
		Auth: AuthConfig{
			Enabled:       v.GetBool("AUTH_ENABLED"),
			JWTSecret:     v.GetString("JWT_SECRET"),
			TokenTTL:      v.GetDuration("TOKEN_TTL"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
		},
		JobCards: JobCardConfig{
			NumberFormat:         strings.ToLower(v.GetString("JOB_CARD_NUMBER_FORMAT")),
			SundryRate:           v.GetFloat64("SUNDRY_RATE"),
			AutoGenerateSchedule: v.GetString("AUTO_GENERATE_SCHEDULE"),
		},
		Slack: SlackConfig{
			BotToken:  v.GetString("SLACK_BOT_TOKEN"),
			ChannelID: v.GetString("SLACK_CHANNEL_ID"),
		},
		Log: LogConfig{
			Level: strings.ToLower(v.GetString("LOG_LEVEL")),
			File:  v.GetString("LOG_FILE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.JobCards.NumberFormat {
	case NumberFormatStandard, NumberFormatLegacy:
	default:
		return fmt.Errorf("unsupported JOB_CARD_NUMBER_FORMAT %q", c.JobCards.NumberFormat)
	}
	if c.JobCards.SundryRate < 0 {
		return fmt.Errorf("SUNDRY_RATE must not be negative")
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	return nil
}

// SlackEnabled reports whether batch summaries should be posted.
func (c *Config) SlackEnabled() bool {
	return c.Slack.BotToken != "" && c.Slack.ChannelID != ""
}
