package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/matkukla/DonorCRM/internal/domain"
)

type Config struct {
	DBSource      string
	Port          string
	Env           string
	LogLevel      string
	LateGraceDays int
	SweepSchedule string
	SweepEnabled  bool
}

// Load reads configuration from the environment. When CONFIG_FILE is set, or
// path is non-empty, that file supplies values the environment leaves unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LATE_GRACE_DAYS", domain.DefaultGraceDays)
	v.SetDefault("SWEEP_SCHEDULE", "@daily")
	v.SetDefault("SWEEP_ENABLED", true)
	v.AutomaticEnv()

	if path == "" {
		path = v.GetString("CONFIG_FILE")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		DBSource:      v.GetString("DB_SOURCE"),
		Port:          v.GetString("SERVER_PORT"),
		Env:           v.GetString("ENVIRONMENT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		LateGraceDays: v.GetInt("LATE_GRACE_DAYS"),
		SweepSchedule: v.GetString("SWEEP_SCHEDULE"),
		SweepEnabled:  v.GetBool("SWEEP_ENABLED"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBSource == "" {
		return fmt.Errorf("DB_SOURCE environment variable is required")
	}
	if c.LateGraceDays < 0 {
		return fmt.Errorf("LATE_GRACE_DAYS must not be negative, got %d", c.LateGraceDays)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.SweepEnabled {
		if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
			return fmt.Errorf("SWEEP_SCHEDULE %q: %w", c.SweepSchedule, err)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// ConfigureLogging applies the level and picks JSON output in production.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: time.RFC3339,
		FullTimestamp:   true,
	})
}
