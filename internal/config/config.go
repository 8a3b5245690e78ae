// Package config reads the server settings from PAIRSYNC_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/abrezinsky/pairsync/internal/errors"
	"github.com/abrezinsky/pairsync/internal/logger"
	"github.com/abrezinsky/pairsync/internal/selection"
)

// Config holds the runtime settings. Command-line flags override these values.
type Config struct {
	Port           int           `env:"PORT"            envDefault:"8082"`
	APIBaseURL     string        `env:"API_BASE_URL"    envDefault:"http://localhost:8000"`
	APICookie      string        `env:"API_COOKIE"`
	LogLevel       string        `env:"LOG_LEVEL"       envDefault:"info"`
	StaleResponses string        `env:"STALE_RESPONSES" envDefault:"discard"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	PublicURL      string        `env:"PUBLIC_URL"`
	Demo           bool          `env:"DEMO"`
	NoKeyboard     bool          `env:"NO_KEYBOARD"`
}

// Prefix is prepended to every variable name
const Prefix = "PAIRSYNC_"

// Load parses the environment into a Config with defaults applied
func Load() (Config, error) {
	return LoadFrom(nil)
}

// LoadFrom parses vars instead of the process environment when vars is non-nil
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	opts := env.Options{Prefix: Prefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be fixed by a default
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.InvalidInputf("port %d out of range", c.Port)
	}
	if _, err := selection.ParseStalePolicy(c.StaleResponses); err != nil {
		return err
	}
	if c.RequestTimeout <= 0 {
		return errors.InvalidInput("request timeout must be positive")
	}
	if c.Demo {
		return nil
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.InvalidInputf("api base url %q must be an absolute http(s) url", c.APIBaseURL)
	}
	return nil
}

// StalePolicy returns the parsed stale-response policy
func (c Config) StalePolicy() selection.StalePolicy {
	p, err := selection.ParseStalePolicy(c.StaleResponses)
	if err != nil {
		return selection.DiscardStale
	}
	return p
}

// Level returns the parsed log level
func (c Config) Level() slog.Level {
	return logger.ParseLevel(c.LogLevel)
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ResolvePublicURL returns the configured public URL, or one built from host
// and the listen port. The result has no trailing slash.
func (c Config) ResolvePublicURL(host string) string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", host, c.Port)
}
