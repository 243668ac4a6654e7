package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the dashboard service.
// Environment variables are parsed from the PULSEDECK_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Postgres (Supabase) Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Timezone governs "today" for the daily horoscope cache key and
	// the curator assignment dates. Local midnight, not UTC.
	Timezone string `envconfig:"TIMEZONE" default:"America/Los_Angeles"`

	// Generation service
	GenerationURL     string        `envconfig:"GENERATION_URL" default:""`
	GenerationAPIKey  string        `envconfig:"GENERATION_API_KEY" default:""`
	GenerationRetries int           `envconfig:"GENERATION_RETRIES" default:"3"`
	GenerationBackoff time.Duration `envconfig:"GENERATION_BACKOFF" default:"500ms"`
	AttemptTimeout    time.Duration `envconfig:"ATTEMPT_TIMEOUT" default:"60s"`

	// Rule engine
	MergePolicy  string        `envconfig:"MERGE_POLICY" default:"sum"`
	RuleCacheTTL time.Duration `envconfig:"RULE_CACHE_TTL" default:"5m"`

	// Artifact staleness: refresh signed image URLs that expire within
	// this buffer so consumers never hit a dead link.
	StaleBuffer time.Duration `envconfig:"STALE_BUFFER" default:"1h"`

	// Notifications
	SlackWebhookURL string `envconfig:"SLACK_WEBHOOK_URL" default:""`

	// Scheduler (cron specs; empty disables the job)
	HoroscopeSweepSpec string `envconfig:"HOROSCOPE_SWEEP_SPEC" default:"0 6 * * *"`
	CuratorRotateSpec  string `envconfig:"CURATOR_ROTATE_SPEC" default:"0 9 * * MON"`

	// Health checking
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates derived settings.
func (c *Config) ResolveDefaults() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("unsupported TIMEZONE: %s", c.Timezone)
	}
	switch c.MergePolicy {
	case "sum", "max", "override":
	default:
		return fmt.Errorf("unsupported MERGE_POLICY: %s (want sum, max or override)", c.MergePolicy)
	}
	if c.GenerationRetries < 0 {
		return fmt.Errorf("GENERATION_RETRIES must be >= 0")
	}
	return nil
}

// Location returns the configured time.Location. ResolveDefaults has
// already validated it, so failures here indicate a programming error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		panic(fmt.Sprintf("config: timezone %q not validated: %v", c.Timezone, err))
	}
	return loc
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with PULSEDECK_
// Example: PULSEDECK_HTTP_PORT, PULSEDECK_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PULSEDECK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("timezone", cfg.Timezone).
		Str("merge_policy", cfg.MergePolicy).
		Int("generation_retries", cfg.GenerationRetries).
		Str("postgres_dsn_present", func() string {
			if cfg.PostgresDSN != "" {
				return "true"
			}
			return "false"
		}()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		Timezone:                  "UTC",
		GenerationRetries:         3,
		GenerationBackoff:         time.Millisecond,
		AttemptTimeout:            time.Second,
		MergePolicy:               "sum",
		RuleCacheTTL:              time.Minute,
		StaleBuffer:               time.Hour,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
