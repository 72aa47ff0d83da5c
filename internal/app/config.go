package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/odyssey-pulse/internal/analytics"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// RedisAddr enables the shared refresh counter. Empty keeps it in memory.
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	DashboardRange    int                `envconfig:"DASHBOARD_DEFAULT_RANGE" default:"90"`
	DashboardCategory analytics.Category `envconfig:"DASHBOARD_CATEGORY" default:"all"`

	FetchMinDelay    time.Duration `envconfig:"FETCH_MIN_DELAY" default:"350ms"`
	FetchMaxDelay    time.Duration `envconfig:"FETCH_MAX_DELAY" default:"800ms"`
	FetchFailureRate float64       `envconfig:"FETCH_FAILURE_RATE" default:"0.08"`

	RefreshCron    string `envconfig:"REFRESH_CRON" default:"@every 5m"`
	RefreshChannel string `envconfig:"REFRESH_CHANNEL" default:"dashboard.refresh"`

	GotenbergURL string `envconfig:"GOTENBERG_URL"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.DashboardRange <= 0 {
		return fmt.Errorf("dashboard range must be positive, got %d", c.DashboardRange)
	}
	switch c.DashboardCategory {
	case analytics.CategoryAll, analytics.CategorySecurity, analytics.CategoryProductivity, analytics.CategoryInfra:
	default:
		return fmt.Errorf("unknown dashboard category %q", c.DashboardCategory)
	}
	if c.FetchMinDelay < 0 || c.FetchMaxDelay < c.FetchMinDelay {
		return errors.New("fetch delay bounds must satisfy 0 <= min <= max")
	}
	if c.FetchFailureRate < 0 || c.FetchFailureRate > 1 {
		return fmt.Errorf("fetch failure rate must be within [0,1], got %v", c.FetchFailureRate)
	}
	return nil
}

// ChannelOptions maps the fetch settings onto the simulated channel.
func (c *Config) ChannelOptions() analytics.ChannelOptions {
	return analytics.ChannelOptions{
		MinDelay:    c.FetchMinDelay,
		MaxDelay:    c.FetchMaxDelay,
		FailureRate: c.FetchFailureRate,
	}
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
