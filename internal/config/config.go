// Package config loads runtime configuration from defaults, an optional TOML
// file named by TRACKER_CONFIG, and environment variables, in that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigFileEnv names the environment variable pointing at the TOML overlay.
const ConfigFileEnv = "TRACKER_CONFIG"

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	MetricsEnabled     bool

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables publishing.
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPEventsQueue string

	// Reminders and notifications
	ReminderInterval      time.Duration
	ReminderLookaheadDays int
	NotificationMaxDays   int

	CategoryCacheTTL time.Duration
	DefaultCurrency  string

	LogLevel  string
	LogFormat string
}

// fileConfig mirrors the TOML layout. Pointer fields distinguish "unset"
// from zero values so a file can turn a boolean off.
type fileConfig struct {
	Server struct {
		Port               string `toml:"port"`
		RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
		MetricsEnabled     *bool  `toml:"metrics_enabled"`
	} `toml:"server"`
	Database struct {
		Path string `toml:"path"`
	} `toml:"database"`
	AMQP struct {
		URL         string `toml:"url"`
		Exchange    string `toml:"exchange"`
		Queue       string `toml:"queue"`
		EventsQueue string `toml:"events_queue"`
	} `toml:"amqp"`
	Reminders struct {
		Interval      string `toml:"interval"`
		LookaheadDays *int   `toml:"lookahead_days"`
	} `toml:"reminders"`
	Notifications struct {
		MaxDays int `toml:"max_days"`
	} `toml:"notifications"`
	Cache struct {
		CategoryTTL string `toml:"category_ttl"`
	} `toml:"cache"`
	General struct {
		DefaultCurrency string `toml:"default_currency"`
	} `toml:"general"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Port:                  "8081",
		RateLimitPerMinute:    60,
		MetricsEnabled:        true,
		SQLiteDBPath:          "./data/tracker.db",
		AMQPExchange:          "tracker",
		AMQPQueue:             "notifications",
		AMQPEventsQueue:       "transaction_events",
		ReminderInterval:      time.Hour,
		ReminderLookaheadDays: 3,
		NotificationMaxDays:   60,
		CategoryCacheTTL:      5 * time.Minute,
		DefaultCurrency:       "€",
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load builds the configuration. A missing TRACKER_CONFIG file is an error;
// an unset TRACKER_CONFIG is not. Malformed environment values fall back to
// the current value.
func Load() (*Config, error) {
	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	setString(&c.Port, fc.Server.Port)
	if fc.Server.RateLimitPerMinute > 0 {
		c.RateLimitPerMinute = fc.Server.RateLimitPerMinute
	}
	if fc.Server.MetricsEnabled != nil {
		c.MetricsEnabled = *fc.Server.MetricsEnabled
	}
	setString(&c.SQLiteDBPath, fc.Database.Path)
	setString(&c.AMQPURL, fc.AMQP.URL)
	setString(&c.AMQPExchange, fc.AMQP.Exchange)
	setString(&c.AMQPQueue, fc.AMQP.Queue)
	setString(&c.AMQPEventsQueue, fc.AMQP.EventsQueue)
	if fc.Reminders.Interval != "" {
		d, err := time.ParseDuration(fc.Reminders.Interval)
		if err != nil {
			return fmt.Errorf("parsing config: reminders.interval: %w", err)
		}
		c.ReminderInterval = d
	}
	if fc.Reminders.LookaheadDays != nil {
		c.ReminderLookaheadDays = *fc.Reminders.LookaheadDays
	}
	if fc.Notifications.MaxDays > 0 {
		c.NotificationMaxDays = fc.Notifications.MaxDays
	}
	if fc.Cache.CategoryTTL != "" {
		d, err := time.ParseDuration(fc.Cache.CategoryTTL)
		if err != nil {
			return fmt.Errorf("parsing config: cache.category_ttl: %w", err)
		}
		c.CategoryCacheTTL = d
	}
	setString(&c.DefaultCurrency, fc.General.DefaultCurrency)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)
	c.AMQPEventsQueue = getEnv("AMQP_EVENTS_QUEUE", c.AMQPEventsQueue)
	c.ReminderInterval = getEnvDuration("REMINDER_INTERVAL", c.ReminderInterval)
	c.ReminderLookaheadDays = getEnvInt("REMINDER_LOOKAHEAD_DAYS", c.ReminderLookaheadDays)
	c.NotificationMaxDays = getEnvInt("NOTIFICATION_MAX_DAYS", c.NotificationMaxDays)
	c.CategoryCacheTTL = getEnvDuration("CATEGORY_CACHE_TTL", c.CategoryCacheTTL)
	c.DefaultCurrency = getEnv("DEFAULT_CURRENCY", c.DefaultCurrency)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" || c.AMQPEventsQueue == "" {
			errors = append(errors, "AMQP queue names cannot be empty when AMQP URL is provided")
		} else if c.AMQPQueue == c.AMQPEventsQueue {
			errors = append(errors, "AMQP notification and event queues must differ")
		}
	}

	if c.NotificationMaxDays < 1 || c.NotificationMaxDays > 60 {
		errors = append(errors, fmt.Sprintf("invalid notification max days %d: must be between 1 and 60", c.NotificationMaxDays))
	}
	if c.ReminderLookaheadDays < 0 || c.ReminderLookaheadDays > c.NotificationMaxDays {
		errors = append(errors, fmt.Sprintf("invalid reminder lookahead %d: must be between 0 and %d", c.ReminderLookaheadDays, c.NotificationMaxDays))
	}
	if c.ReminderInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 minute", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}
	if c.CategoryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid category cache TTL %v: must not be negative", c.CategoryCacheTTL))
	}

	if strings.TrimSpace(c.DefaultCurrency) == "" {
		errors = append(errors, "default currency cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
