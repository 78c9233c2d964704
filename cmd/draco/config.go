package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/RobertWHurst/draco"
	httptransport "github.com/RobertWHurst/draco/transports/http"
	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable read when --config is not given.
const ConfigEnv = "DRACO_CONFIG"

// Config is the command's configuration file.
type Config struct {
	// Endpoint is the game server base URL.
	Endpoint string `yaml:"endpoint"`

	// Proxy is an optional HTTP proxy URL.
	Proxy string `yaml:"proxy"`

	// NATS, when set, sends calls through a gateway on this NATS server
	// instead of straight to the game server.
	NATS string `yaml:"nats"`

	// Capture is a file every call is appended to.
	Capture string `yaml:"capture"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Timeout bounds each call, as a Go duration.
	Timeout string `yaml:"timeout"`

	User UserConfig `yaml:"user"`

	// ClientInfo replaces the default client-info record when set.
	ClientInfo *draco.ClientInfo `yaml:"client_info,omitempty"`
}

// UserConfig is the identity the command plays as.
type UserConfig struct {
	ID       string `yaml:"id"`
	DeviceID string `yaml:"device_id"`
}

// DefaultConfig returns the configuration used before any file or flag is
// applied.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: httptransport.DefaultEndpoint,
		LogLevel: "info",
		Timeout:  draco.DefaultTimeout.String(),
	}
}

// LoadConfig reads path over the defaults. An empty path falls back to
// $DRACO_CONFIG, and to the defaults alone when that is unset too.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("endpoint: %w", err))
	}
	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			errs = append(errs, fmt.Errorf("proxy: %w", err))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// TimeoutDuration returns Timeout, falling back to draco.DefaultTimeout if
// it does not parse.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return draco.DefaultTimeout
	}
	return d
}

// ProxyURL returns the parsed proxy, or nil when none is configured.
func (c *Config) ProxyURL() *url.URL {
	if c.Proxy == "" {
		return nil
	}
	u, err := url.Parse(c.Proxy)
	if err != nil {
		return nil
	}
	return u
}
