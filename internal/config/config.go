package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"meeting-attendance/internal/email"
)

const QR_IMAGE_SIZE = 512

type RBACConfig struct {
	PolicyFile string `mapstructure:"policy_file"` // Path to the role policy file. Empty uses the built-in policy.
}

type SessionConfig struct {
	// Session token TTL in hours.
	TTL   uint   `mapstructure:"ttl"`
	Store string `mapstructure:"store"` // memory or sql
}

type AttendanceConfig struct {
	// How long a participant has to confirm after the meeting closes.
	ConfirmationWindow time.Duration `mapstructure:"confirmation_window"`
	// Lifetime of join tokens. Zero means join tokens do not expire.
	InviteTTL time.Duration `mapstructure:"invite_ttl"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

type NotifyConfig struct {
	// Per-recipient send timeout
	Timeout     time.Duration `mapstructure:"timeout"`
	Parallelism int           `mapstructure:"parallelism"`
	// Sends per second, shared by all fan-outs
	Rate    float64       `mapstructure:"rate"`
	Burst   int           `mapstructure:"burst"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	// Log messages instead of sending them
	DryRun bool `mapstructure:"dry_run"`
}

type Config struct {
	// Secret key for signing session tokens. Must be set in production.
	Secret   string `mapstructure:"secret"`
	LogLevel string `mapstructure:"log_level"`
	Listen   string `mapstructure:"listen"`

	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`

	// Absolute URL the join and confirmation links in emails point to, e.g. https://attendance.example.com
	BaseURL string `mapstructure:"base_url"`
	// Frontend that renders confirmation outcomes. Empty renders them server side.
	FrontendURL string `mapstructure:"frontend_url"`

	Session    SessionConfig    `mapstructure:"session"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	RBAC       RBACConfig       `mapstructure:"rbac"`

	Storage Storage `mapstructure:"storage"`

	Email email.SMTPConfig `mapstructure:"email"`
}

var (
	ErrInvalidConfirmationWindow = errors.New("attendance.confirmation_window must be positive")
	ErrInvalidParallelism        = errors.New("notify.parallelism must be at least 1")
)

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads configuration from the config file and environment variables.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, path := range configFile {
		if path != "" {
			v.SetConfigFile(path)
		}
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment")
	}

	// Load configuration from environment variables
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Convert relative sqlite path to absolute instance folder
	if cfg.Storage.SQLite != nil {
		path := cfg.Storage.SQLite.Path
		if path != "" && path != ":memory:" && !os.IsPathSeparator(path[0]) {
			cfg.Storage.SQLite.Path = fmt.Sprintf("%s/%s", getConfigPath(), strings.TrimPrefix(path, "./"))
		}
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	// Warn if secret is missing - this is a critical security setting for production
	if cfg.Secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			return nil, errors.New("SECRET configuration variable is required in production")
		}
		slog.Warn("Secret is not set. Do not use in production.")
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Attendance.ConfirmationWindow <= 0 {
		return ErrInvalidConfirmationWindow
	}
	if c.Notify.Parallelism < 1 {
		return ErrInvalidParallelism
	}
	if c.Attendance.InviteTTL < 0 {
		slog.Warn("attendance.invite_ttl is negative, join tokens will not expire")
		c.Attendance.InviteTTL = 0
	}
	return nil
}

// SessionTTL returns the session token lifetime.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTL) * time.Hour
}
