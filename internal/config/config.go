// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/codr1/quickcourt/internal/timeslot"
)

type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	Filename    string `yaml:"filename"`
	BusyTimeout int    `yaml:"busy_timeout_ms"`
	// For future Turso support
	URL       string `yaml:"url,omitempty"`
	AuthToken string `yaml:"-"` // Loaded from environment
}

// BookingConfig holds the rules applied by the booking lifecycle.
type BookingConfig struct {
	Currency              string `yaml:"currency"`
	MaxDurationHours      int    `yaml:"max_duration_hours"`
	CancellationCutoff    string `yaml:"cancellation_cutoff"`
	PeakStart             string `yaml:"peak_start"`
	PeakEnd               string `yaml:"peak_end"`
	MaxBulkRangeDays      int    `yaml:"max_bulk_range_days"`
	CreateLimitPerMinute  int    `yaml:"create_limit_per_minute"`
	AvailabilityCacheTTL  string `yaml:"availability_cache_ttl"`
	ReminderLeadTime      string `yaml:"reminder_lead_time"`
	RefundMaxBackoff      string `yaml:"refund_max_backoff"`
	RefundBatchSize       int    `yaml:"refund_batch_size"`
	CompletionBatchSize   int    `yaml:"completion_batch_size"`
	DefaultVenueTimezone  string `yaml:"default_venue_timezone"`
	PaymentGateway        string `yaml:"payment_gateway"`
	NotificationsExchange string `yaml:"notifications_exchange"`
}

type SchedulerConfig struct {
	CompletionCron string `yaml:"completion_cron"`
	RefundCron     string `yaml:"refund_cron"`
	ReminderCron   string `yaml:"reminder_cron"`
}

// Secrets are read from the environment only, never from the YAML file.
type Secrets struct {
	JWTSecret          string `envconfig:"JWT_SECRET"`
	OmisePublicKey     string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey     string `envconfig:"OMISE_SECRET_KEY"`
	AWSAccessKeyID     string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	AMQPURL            string `envconfig:"AMQP_URL"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	DatabaseAuthToken  string `envconfig:"DATABASE_AUTH_TOKEN"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		// TrustProxy honours X-Forwarded-For when rate limiting by client IP.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Booking   BookingConfig   `yaml:"booking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Email struct {
		Sender           string `yaml:"sender"`
		ReplyTo          string `yaml:"reply_to"`
		Region           string `yaml:"region"`
		ConfigurationSet string `yaml:"configuration_set"`
	} `yaml:"email"`

	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`

	Tracing struct {
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`

	Features struct {
		EnableMetrics       bool `yaml:"enable_metrics"`
		EnableTracing       bool `yaml:"enable_tracing"`
		EnableDebug         bool `yaml:"enable_debug"`
		EnableNotifications bool `yaml:"enable_notifications"`
		EnableScheduler     bool `yaml:"enable_scheduler"`
	} `yaml:"features"`

	Secrets Secrets `yaml:"-"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("error loading secrets from environment: %w", err)
	}
	cfg.Database.AuthToken = cfg.Secrets.DatabaseAuthToken

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML on top of the defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// Default returns a configuration that is valid once a database filename is set.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Name = "quickcourt"
	cfg.App.Environment = "development"
	cfg.App.Port = 8080
	cfg.Database.Driver = "sqlite"
	cfg.Database.BusyTimeout = 5000
	cfg.Booking = BookingConfig{
		Currency:              "INR",
		MaxDurationHours:      8,
		CancellationCutoff:    "2h",
		PeakStart:             "18:00",
		PeakEnd:               "21:00",
		MaxBulkRangeDays:      366,
		CreateLimitPerMinute:  10,
		AvailabilityCacheTTL:  "30s",
		ReminderLeadTime:      "24h",
		RefundMaxBackoff:      "6h",
		RefundBatchSize:       50,
		CompletionBatchSize:   200,
		DefaultVenueTimezone:  "UTC",
		PaymentGateway:        "simulated",
		NotificationsExchange: "booking.events",
	}
	cfg.Scheduler = SchedulerConfig{
		CompletionCron: "*/5 * * * *",
		RefundCron:     "*/10 * * * *",
		ReminderCron:   "*/15 * * * *",
	}
	cfg.Tracing.ServiceName = "quickcourt"
	return cfg
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if err := c.Booking.validate(); err != nil {
		return err
	}

	for name, spec := range map[string]string{
		"scheduler.completion_cron": c.Scheduler.CompletionCron,
		"scheduler.refund_cron":     c.Scheduler.RefundCron,
		"scheduler.reminder_cron":   c.Scheduler.ReminderCron,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s %q is invalid: %w", name, spec, err)
		}
	}

	switch c.Booking.PaymentGateway {
	case "simulated":
	case "omise":
		if c.Secrets.OmiseSecretKey == "" || c.Secrets.OmisePublicKey == "" {
			return fmt.Errorf("omise keys are required when booking.payment_gateway is omise")
		}
	default:
		return fmt.Errorf("unsupported payment gateway: %s", c.Booking.PaymentGateway)
	}

	return nil
}

func (b BookingConfig) validate() error {
	if len(b.Currency) != 3 {
		return fmt.Errorf("booking currency must be an ISO 4217 code")
	}
	if b.MaxDurationHours < 1 || b.MaxDurationHours > 24 {
		return fmt.Errorf("booking max_duration_hours must be between 1 and 24")
	}
	if b.MaxBulkRangeDays < 1 {
		return fmt.Errorf("booking max_bulk_range_days must be positive")
	}
	for name, raw := range map[string]string{
		"cancellation_cutoff":    b.CancellationCutoff,
		"availability_cache_ttl": b.AvailabilityCacheTTL,
		"reminder_lead_time":     b.ReminderLeadTime,
		"refund_max_backoff":     b.RefundMaxBackoff,
	} {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("booking %s %q is not a valid duration", name, raw)
		}
	}
	if _, err := b.PeakWindow(); err != nil {
		return err
	}
	if _, err := timeslot.LoadLocation(b.DefaultVenueTimezone); err != nil {
		return fmt.Errorf("booking default_venue_timezone: %w", err)
	}
	return nil
}

// PeakWindow parses the configured peak-hour window.
func (b BookingConfig) PeakWindow() (timeslot.Interval, error) {
	iv, err := timeslot.ParseInterval(b.PeakStart, b.PeakEnd)
	if err != nil {
		return timeslot.Interval{}, fmt.Errorf("booking peak window: %w", err)
	}
	if !iv.Valid() || !iv.WholeHours() {
		return timeslot.Interval{}, fmt.Errorf("booking peak window %s must be whole hours with start before end", iv)
	}
	return iv, nil
}

// Duration returns a validated duration field, falling back when empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
