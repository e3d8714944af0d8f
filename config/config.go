// Package config loads inveniam settings from an optional TOML file overlaid with
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "inveniam.toml"
	DefaultDBName         = "inveniam.db"
	DefaultTimezone       = "America/New_York"
)

// Duration is a time.Duration that reads from TOML strings such as "15m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type App struct {
	DefaultTimezone string   `toml:"default_timezone"`
	BaseURL         string   `toml:"base_url"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type HTTP struct {
	Addr         string `toml:"addr"`
	AllowOrigins string `toml:"allow_origins"`
}

type Database struct {
	Path string `toml:"path"`
}

type JWT struct {
	SecretKey            string   `toml:"secret_key"`
	Issuer               string   `toml:"issuer"`
	AccessTokenDuration  Duration `toml:"access_token_duration"`
	RefreshTokenDuration Duration `toml:"refresh_token_duration"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type RateLimit struct {
	UserRequestsPerMinute int `toml:"user_requests_per_minute"`
	IPRequestsPerMinute   int `toml:"ip_requests_per_minute"`
}

type Storage struct {
	Dir          string   `toml:"dir"`
	Bucket       string   `toml:"bucket"`
	MaxBytes     int64    `toml:"max_bytes"`
	UploadExpiry Duration `toml:"upload_expiry"`
}

type Mail struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	Timeout  Duration `toml:"timeout"`
}

type Report struct {
	Enabled      bool     `toml:"enabled"`
	Interval     Duration `toml:"interval"`
	TriggerURL   string   `toml:"trigger_url"`
	TriggerToken string   `toml:"trigger_token"`
	Concurrency  int      `toml:"concurrency"`
}

type Drag struct {
	ActivationDistance float64 `toml:"activation_distance"`
}

// Config is the complete application configuration.
type Config struct {
	App       App       `toml:"app"`
	HTTP      HTTP      `toml:"http"`
	Database  Database  `toml:"database"`
	JWT       JWT       `toml:"jwt"`
	Redis     Redis     `toml:"redis"`
	RateLimit RateLimit `toml:"ratelimit"`
	Storage   Storage   `toml:"storage"`
	Mail      Mail      `toml:"mail"`
	Report    Report    `toml:"report"`
	Drag      Drag      `toml:"drag"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	return Config{
		App: App{
			DefaultTimezone: DefaultTimezone,
			BaseURL:         "http://localhost:3000",
			ShutdownTimeout: Duration{30 * time.Second},
		},
		HTTP: HTTP{
			Addr:         ":3000",
			AllowOrigins: "*",
		},
		Database: Database{Path: DefaultDBName},
		JWT: JWT{
			SecretKey:            "change-me-in-production",
			Issuer:               "inveniam",
			AccessTokenDuration:  Duration{15 * time.Minute},
			RefreshTokenDuration: Duration{7 * 24 * time.Hour},
		},
		RateLimit: RateLimit{
			UserRequestsPerMinute: 600,
			IPRequestsPerMinute:   30,
		},
		Storage: Storage{
			Dir:          "/tmp/inveniam",
			Bucket:       "attachments",
			MaxBytes:     1024 * 1024 * 1024,
			UploadExpiry: Duration{15 * time.Minute},
		},
		Mail: Mail{
			Port:    587,
			From:    "inveniam@localhost",
			Timeout: Duration{30 * time.Second},
		},
		Report: Report{
			Enabled:     false,
			Interval:    Duration{24 * time.Hour},
			TriggerURL:  "http://localhost:3000/api/rpc/tasks.sendReportEmail",
			Concurrency: 4,
		},
		Drag: Drag{ActivationDistance: 10},
	}
}

// Load reads path (when it exists) on top of the defaults and then applies
// environment overrides. An empty path falls back to INVENIAM_CONFIG and then
// to DefaultConfigFileName.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = getEnv("INVENIAM_CONFIG", DefaultConfigFileName)
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.App.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid app.default_timezone %q: %w", c.App.DefaultTimezone, err)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key is required")
	}
	if c.Report.Enabled && c.Report.Interval.Duration <= 0 {
		return errors.New("report.interval must be positive when the scheduler is enabled")
	}
	return nil
}

// Location returns the parsed default timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func applyEnv(cfg *Config) {
	cfg.App.DefaultTimezone = getEnv("INVENIAM_DEFAULT_TIMEZONE", cfg.App.DefaultTimezone)
	cfg.App.BaseURL = getEnv("INVENIAM_BASE_URL", cfg.App.BaseURL)
	cfg.App.ShutdownTimeout.Duration = getEnvDuration("INVENIAM_SHUTDOWN_TIMEOUT", cfg.App.ShutdownTimeout.Duration)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	cfg.HTTP.AllowOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.HTTP.AllowOrigins)

	cfg.Database.Path = getEnv("INVENIAM_DB_PATH", cfg.Database.Path)

	cfg.JWT.SecretKey = getEnv("JWT_SECRET_KEY", cfg.JWT.SecretKey)
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", cfg.JWT.Issuer)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	cfg.Storage.Dir = getEnv("STORAGE_PATH", cfg.Storage.Dir)
	cfg.Storage.Bucket = getEnv("STORAGE_BUCKET", cfg.Storage.Bucket)

	cfg.Mail.Host = getEnv("SMTP_HOST", cfg.Mail.Host)
	cfg.Mail.Port = getEnvInt("SMTP_PORT", cfg.Mail.Port)
	cfg.Mail.Username = getEnv("SMTP_USERNAME", cfg.Mail.Username)
	cfg.Mail.Password = getEnv("SMTP_PASSWORD", cfg.Mail.Password)
	cfg.Mail.From = getEnv("MAIL_FROM", cfg.Mail.From)
	cfg.Mail.Timeout.Duration = getEnvDuration("SMTP_TIMEOUT", cfg.Mail.Timeout.Duration)

	cfg.Report.Enabled = getEnvBool("REPORT_SCHEDULER_ENABLED", cfg.Report.Enabled)
	cfg.Report.Interval.Duration = getEnvDuration("REPORT_INTERVAL", cfg.Report.Interval.Duration)
	cfg.Report.TriggerURL = getEnv("REPORT_TRIGGER_URL", cfg.Report.TriggerURL)
	cfg.Report.TriggerToken = getEnv("REPORT_TRIGGER_TOKEN", cfg.Report.TriggerToken)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
