package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/forecast-gateway/internal/client"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	TestingMode bool

	ServerPort string `validate:"required,numeric"`

	WeatherAPIURL          string        `validate:"required,url"`
	WeatherAPITimeout      time.Duration `validate:"gt=0"`
	WeatherAPIMaxBodyBytes int64         `validate:"gt=0"`

	RequestTimeout time.Duration `validate:"gtfield=WeatherAPITimeout"`

	ShutdownTimeout               time.Duration `validate:"gt=0"`
	ShutdownInFlightTimeout       time.Duration `validate:"gt=0"`
	ShutdownInFlightCheckInterval time.Duration `validate:"gt=0"`

	ReadyDelay       time.Duration `validate:"gte=0"`
	DegradedWindow   time.Duration `validate:"gt=0,lte=5m"` // traffic keeps 5m of outcomes
	DegradedErrorPct int           `validate:"gte=1,lte=100"`

	ZipkinURL         string  `validate:"omitempty,url"`
	TracingService    string  `validate:"required"`
	TracingSampleRate float64 `validate:"gte=0,lte=1"`
}

type fileConfig struct {
	TestingMode *bool `yaml:"testing_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL          string `yaml:"url"`
		Timeout      string `yaml:"timeout"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		ReadyDelay       string `yaml:"ready_delay"`
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`

	Tracing struct {
		ZipkinURL   string   `yaml:"zipkin_url"`
		ServiceName string   `yaml:"service_name"`
		SampleRatio *float64 `yaml:"sample_ratio"`
	} `yaml:"tracing"`
}

var structValidator = validator.New()

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) when it
// exists, then applies environment overrides. Every setting has a default, so
// a missing file yields a working configuration for the public Open-Meteo API.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults and environment only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if fc.TestingMode != nil {
		cfg.TestingMode = *fc.TestingMode
	}

	cfg.ServerPort = firstNonEmpty(os.Getenv("SERVER_PORT"), fc.Server.Port, "8080")

	cfg.WeatherAPIURL = firstNonEmpty(os.Getenv("WEATHER_API_URL"), fc.WeatherAPI.URL, client.DefaultAPIURL)
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 10*time.Second)
	if v := os.Getenv("WEATHER_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("WEATHER_API_TIMEOUT: %w", err)
		}
		cfg.WeatherAPITimeout = d
	}
	cfg.WeatherAPIMaxBodyBytes = fc.WeatherAPI.MaxBodyBytes
	if cfg.WeatherAPIMaxBodyBytes <= 0 {
		cfg.WeatherAPIMaxBodyBytes = client.DefaultMaxBodyBytes
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 15*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.ReadyDelay = parseDurationOrZero(fc.Lifecycle.ReadyDelay, 0)
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	cfg.ZipkinURL = firstNonEmpty(os.Getenv("ZIPKIN_URL"), fc.Tracing.ZipkinURL)
	cfg.TracingService = firstNonEmpty(fc.Tracing.ServiceName, "forecast-gateway")
	cfg.TracingSampleRate = 1
	if fc.Tracing.SampleRatio != nil {
		cfg.TracingSampleRate = *fc.Tracing.SampleRatio
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate performs post-load validation of configuration values. A request
// timeout that does not exceed the upstream timeout is raised to upstream + 1s
// so the upstream deadline always fires first.
func (c *Config) validate() error {
	if c.WeatherAPITimeout > 0 && c.RequestTimeout <= c.WeatherAPITimeout {
		c.RequestTimeout = c.WeatherAPITimeout + time.Second
	}
	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s failed %q validation (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
