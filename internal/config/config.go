package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Digest   DigestConfig   `mapstructure:"digest"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // sqlite3 or postgres
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig holds the review engine tunables
type EngineConfig struct {
	RiskThreshold   float64       `mapstructure:"risk_threshold"` // 0 leaves at-risk entries out of reminders
	ReminderLimit   int           `mapstructure:"reminder_limit"`
	DueSoonWindow   time.Duration `mapstructure:"due_soon_window"`
	PartialDamping  float64       `mapstructure:"partial_damping"`
	MaxIntervalDays int           `mapstructure:"max_interval_days"`
	MaxScheduleDays int           `mapstructure:"max_schedule_days"`
	ReadConcurrency int           `mapstructure:"read_concurrency"`
	Timezone        string        `mapstructure:"timezone"`
}

// DigestConfig controls the periodic reminder digest
type DigestConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Every     time.Duration `mapstructure:"every"`
	StartHour int           `mapstructure:"start_hour"` // inclusive; a start after the end spans midnight
	EndHour   int           `mapstructure:"end_hour"`   // inclusive
}

// LoadOptions points Load at optional files.
type LoadOptions struct {
	// ConfigFile is an explicit config file (yaml, toml, json or env). Empty means
	// look for config.{yaml,...} in . and ./config.
	ConfigFile string
	// EnvFile is loaded into the process environment before reading variables.
	// A missing file is not an error.
	EnvFile string
}

// Load reads configuration from file and environment variables
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/studytrack.db")
	v.SetDefault("database.max_open_conns", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("engine.risk_threshold", 60.0)
	v.SetDefault("engine.reminder_limit", 20)
	v.SetDefault("engine.due_soon_window", "48h")
	v.SetDefault("engine.partial_damping", 0.75)
	v.SetDefault("engine.max_interval_days", 365)
	v.SetDefault("engine.max_schedule_days", 90)
	v.SetDefault("engine.read_concurrency", 4)
	v.SetDefault("engine.timezone", "UTC")

	v.SetDefault("digest.enabled", false)
	v.SetDefault("digest.every", "1h")
	v.SetDefault("digest.start_hour", 8)
	v.SetDefault("digest.end_hour", 22)
}

// Validate rejects settings the rest of the application cannot work with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database dsn is required")
	}
	if c.Engine.RiskThreshold < 0 || c.Engine.RiskThreshold > 100 {
		return fmt.Errorf("engine risk threshold %.1f out of range [0, 100]", c.Engine.RiskThreshold)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Digest.StartHour < 0 || c.Digest.StartHour > 23 || c.Digest.EndHour < 0 || c.Digest.EndHour > 23 {
		return fmt.Errorf("digest hours must be within 0-23, got %d-%d", c.Digest.StartHour, c.Digest.EndHour)
	}
	if c.Digest.Enabled && c.Digest.Every <= 0 {
		return errors.New("digest interval must be positive")
	}
	return nil
}

// Location returns the time zone used to draw calendar days.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Engine.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid engine timezone %q: %w", c.Engine.Timezone, err)
	}
	return loc, nil
}
