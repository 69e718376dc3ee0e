// Package config loads the portal configuration from file and environment and
// initializes the global logger.
package config

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Loader     LoaderConfig     `yaml:"loader" mapstructure:"loader"`
	Geocode    GeocodeConfig    `yaml:"geocode" mapstructure:"geocode"`
	Dashboard  DashboardConfig  `yaml:"dashboard" mapstructure:"dashboard"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	ProjectID       string `yaml:"project_id" mapstructure:"project_id"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	EmulatorHost    string `yaml:"emulator_host" mapstructure:"emulator_host"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	Path            string `yaml:"path" mapstructure:"path"`
	MaxConns        int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// LoaderConfig configures the record loader.
type LoaderConfig struct {
	Collection       string       `yaml:"collection" mapstructure:"collection"`
	Concurrency      int          `yaml:"concurrency" mapstructure:"concurrency"`
	TaskTimeoutSecs  int          `yaml:"task_timeout_secs" mapstructure:"task_timeout_secs"`
	FetchTimeoutSecs int          `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
	Fields           FieldsConfig `yaml:"fields" mapstructure:"fields"`
}

// TaskTimeout returns the per-record enrichment timeout.
func (c LoaderConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutSecs) * time.Second
}

// FetchTimeout returns the bulk collection fetch timeout.
func (c LoaderConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSecs) * time.Second
}

// EnrichmentConcurrency returns loader.concurrency capped so that a full
// queue of lookups drains through the geocode rate limit within one task
// timeout, leaving one token interval for the request itself. Workers beyond
// that would expire while waiting for a token.
func (c *Config) EnrichmentConcurrency() int {
	limit := int(math.Floor(c.Geocode.RateLimit*float64(c.Loader.TaskTimeoutSecs))) - 1
	if limit < 1 {
		limit = 1
	}
	if c.Loader.Concurrency > limit {
		return limit
	}
	return c.Loader.Concurrency
}

// FieldsConfig maps stored document field names onto violation attributes.
type FieldsConfig struct {
	CaseNumber    string `yaml:"case_number" mapstructure:"case_number"`
	VehicleNumber string `yaml:"vehicle_number" mapstructure:"vehicle_number"`
	ImageURL      string `yaml:"image_url" mapstructure:"image_url"`
	Location      string `yaml:"location" mapstructure:"location"`
	Timestamp     string `yaml:"timestamp" mapstructure:"timestamp"`
}

// GeocodeConfig configures the reverse geocoding client.
type GeocodeConfig struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	Email        string        `yaml:"email" mapstructure:"email"`
	Language     string        `yaml:"language" mapstructure:"language"`
	RateLimit    float64       `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs  int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheSize    int           `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLMins int           `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	Retry        RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit      CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
}

// RetryConfig holds retry settings for an external service.
type RetryConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig holds circuit breaker settings for an external service.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// DashboardConfig configures the HTML dashboard and its API.
type DashboardConfig struct {
	Title       string   `yaml:"title" mapstructure:"title"`
	Timezone    string   `yaml:"timezone" mapstructure:"timezone"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures load-cycle alerting.
type MonitoringConfig struct {
	WebhookURL                string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	GeocodeErrorRateThreshold float64 `yaml:"geocode_error_rate_threshold" mapstructure:"geocode_error_rate_threshold"`
	MinLookups                int     `yaml:"min_lookups" mapstructure:"min_lookups"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VIOLATIONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "firestore")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("loader.collection", "withoutlicencedrive")
	v.SetDefault("loader.concurrency", 8)
	v.SetDefault("loader.task_timeout_secs", 10)
	v.SetDefault("loader.fetch_timeout_secs", 30)
	v.SetDefault("loader.fields.case_number", "srNo")
	v.SetDefault("loader.fields.vehicle_number", "vehicleNumber")
	v.SetDefault("loader.fields.image_url", "imageUrl")
	v.SetDefault("loader.fields.location", "lastTracedLocation")
	v.SetDefault("loader.fields.timestamp", "timestamp")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "violation-portal/1.0")
	v.SetDefault("geocode.rate_limit", 1.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.cache_size", 1024)
	v.SetDefault("geocode.cache_ttl_mins", 1440)
	v.SetDefault("geocode.retry.max_attempts", 3)
	v.SetDefault("geocode.retry.initial_backoff_ms", 500)
	v.SetDefault("geocode.retry.max_backoff_ms", 5000)
	v.SetDefault("geocode.retry.multiplier", 2.0)
	v.SetDefault("geocode.retry.jitter_fraction", 0.25)
	v.SetDefault("geocode.circuit.failure_threshold", 5)
	v.SetDefault("geocode.circuit.reset_timeout_secs", 30)
	v.SetDefault("dashboard.title", "RTO Vehicle Police Portal")
	v.SetDefault("dashboard.timezone", "Local")
	v.SetDefault("dashboard.cors_origins", []string{"*"})
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.geocode_error_rate_threshold", 0.5)
	v.SetDefault("monitoring.min_lookups", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode
// ("serve", "load" or "migrate").
func (c *Config) Validate(mode string) error {
	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return eris.Errorf("config: invalid server.port %d", c.Server.Port)
		}
		if _, err := c.Dashboard.Location(); err != nil {
			return err
		}
		return c.validateRead()
	case "load":
		return c.validateRead()
	case "migrate":
		switch c.Store.Driver {
		case "postgres", "sqlite":
			return c.validateStore()
		default:
			return eris.Errorf("config: migrate is not supported for store.driver %q", c.Store.Driver)
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}
}

func (c *Config) validateRead() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if c.Loader.Collection == "" {
		return eris.New("config: loader.collection is required")
	}
	if c.Loader.Concurrency < 1 || c.Loader.Concurrency > 64 {
		return eris.Errorf("config: loader.concurrency must be between 1 and 64, got %d", c.Loader.Concurrency)
	}
	if c.Loader.TaskTimeoutSecs <= 0 {
		return eris.New("config: loader.task_timeout_secs must be positive")
	}
	if c.Loader.FetchTimeoutSecs <= 0 {
		return eris.New("config: loader.fetch_timeout_secs must be positive")
	}
	if c.Geocode.BaseURL == "" {
		return eris.New("config: geocode.base_url is required")
	}
	if c.Geocode.UserAgent == "" {
		return eris.New("config: geocode.user_agent is required")
	}
	if c.Geocode.RateLimit <= 0 {
		return eris.New("config: geocode.rate_limit must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	var missing []string
	switch c.Store.Driver {
	case "firestore":
		if c.Store.ProjectID == "" {
			missing = append(missing, "store.project_id")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url")
		}
	case "sqlite", "file":
		if c.Store.Path == "" {
			missing = append(missing, "store.path")
		}
	default:
		return eris.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}
	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Location resolves the configured dashboard timezone.
func (c DashboardConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Timezone)
	}
	return loc, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
