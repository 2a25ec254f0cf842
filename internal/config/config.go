// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pricescout/pricescout/pkg/money"
	"github.com/pricescout/pricescout/pkg/ruleset"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Database      DatabaseConfig      `yaml:"database"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Recheck       RecheckConfig       `yaml:"recheck"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Tracing       TracingConfig       `yaml:"tracing"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects the datastore backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory, postgres
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// ExtractionConfig tunes the scoring ruleset. Coefficients are data, not
// code: they can be retrained offline and swapped here without touching
// rule logic. Empty sections fall back to the shipped values.
type ExtractionConfig struct {
	Coefficients []float64          `yaml:"coefficients"`
	Biases       map[string]float64 `yaml:"biases"`
	Thresholds   ThresholdsConfig   `yaml:"thresholds"`
}

// ThresholdsConfig defines per-feature minimum winning scores.
type ThresholdsConfig struct {
	Image float64 `yaml:"image"`
	Title float64 `yaml:"title"`
	Price float64 `yaml:"price"`
}

// RulesetConfig assembles the scoring-engine configuration, starting from
// the shipped defaults and overlaying any tuned values.
func (e *ExtractionConfig) RulesetConfig() (ruleset.Config, error) {
	cfg := ruleset.DefaultConfig()

	if len(e.Coefficients) > 0 {
		cfg.Coefficients = ruleset.Coefficients(e.Coefficients)
	}
	for name, bias := range e.Biases {
		feature := ruleset.Feature(name)
		if _, ok := cfg.Biases[feature]; !ok {
			return ruleset.Config{}, fmt.Errorf("unknown bias feature %q", name)
		}
		cfg.Biases[feature] = bias
	}
	if e.Thresholds.Image != 0 {
		cfg.Thresholds[ruleset.FeatureImage] = e.Thresholds.Image
	}
	if e.Thresholds.Title != 0 {
		cfg.Thresholds[ruleset.FeatureTitle] = e.Thresholds.Title
	}
	if e.Thresholds.Price != 0 {
		cfg.Thresholds[ruleset.FeaturePrice] = e.Thresholds.Price
	}

	if err := cfg.Validate(); err != nil {
		return ruleset.Config{}, err
	}
	return cfg, nil
}

// AlertsConfig defines the price-drop gating thresholds. A drop must clear
// both to raise an alert.
type AlertsConfig struct {
	PercentThreshold  float64     `yaml:"percent_threshold"`  // default: 0.05
	AbsoluteThreshold money.Cents `yaml:"absolute_threshold"` // subunits, default: 200
}

// RecheckConfig defines the background price-recheck loop.
type RecheckConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	PageTimeout time.Duration `yaml:"page_timeout"`
	RateLimit   RateLimit     `yaml:"rate_limit"`
}

// RateLimit bounds how fast rechecks hit remote sites.
type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// TracingConfig defines OpenTelemetry export settings.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // OTLP gRPC, host:port
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given: in-memory
// store, shipped extraction coefficients, no notifications.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applyDatabaseDefaults(&cfg.Database)
	applyAlertsDefaults(&cfg.Alerts)
	applyRecheckDefaults(&cfg.Recheck)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = "memory"
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyAlertsDefaults(a *AlertsConfig) {
	if a.PercentThreshold == 0 {
		a.PercentThreshold = 0.05
	}
	if a.AbsoluteThreshold == 0 {
		a.AbsoluteThreshold = 200
	}
}

func applyRecheckDefaults(r *RecheckConfig) {
	if r.Interval == 0 {
		r.Interval = 6 * time.Hour
	}
	if r.PageTimeout == 0 {
		r.PageTimeout = 30 * time.Second
	}
	if r.RateLimit.PerSecond == 0 {
		r.RateLimit.PerSecond = 0.5
	}
	if r.RateLimit.Burst == 0 {
		r.RateLimit.Burst = 1
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Backend {
	case "memory":
	case "postgres":
		if cfg.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required with the postgres store"))
		}
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required with the postgres store"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required with the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"store.backend must be one of: memory, postgres (got %q)",
			cfg.Store.Backend,
		))
	}

	if _, err := cfg.Extraction.RulesetConfig(); err != nil {
		errs = append(errs, fmt.Errorf("extraction: %w", err))
	}

	if cfg.Alerts.PercentThreshold < 0 || cfg.Alerts.PercentThreshold > 1 {
		errs = append(errs, fmt.Errorf(
			"alerts.percent_threshold must be within [0, 1] (got %v)",
			cfg.Alerts.PercentThreshold,
		))
	}
	if cfg.Alerts.AbsoluteThreshold < 0 {
		errs = append(errs, fmt.Errorf("alerts.absolute_threshold must not be negative"))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when enabled"))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, fmt.Errorf("tracing.endpoint is required when tracing is enabled"))
	}

	return errors.Join(errs...)
}
