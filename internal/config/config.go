// Package config loads the sign-in core's environment-driven configuration.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/relay"
)

// Config holds everything the sign-in core needs. Poll policy fields carry
// the production defaults; tests construct Config directly with shrunken
// values.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"LMS Companion"`

	ClientID     string   `env:"OAUTH_CLIENT_ID"`
	IssuerURL    string   `env:"OAUTH_ISSUER_URL"`
	AuthorizeURL string   `env:"OAUTH_AUTHORIZE_URL"`
	CallbackURL  string   `env:"OAUTH_CALLBACK_URL"`
	Scopes       []string `env:"OAUTH_SCOPES" envSeparator:" " envDefault:"openid profile email"`

	RelayBaseURL string `env:"RELAY_BASE_URL"`

	PollInterval       time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	PollMaxAttempts    int           `env:"POLL_MAX_ATTEMPTS" envDefault:"60"`
	PollRequestTimeout time.Duration `env:"POLL_REQUEST_TIMEOUT" envDefault:"10s"`
	PollMaxWait        time.Duration `env:"POLL_MAX_WAIT" envDefault:"5m"`
}

// Load parses configuration from the environment and validates it. All
// configuration errors surface here, before any sign-in session can start.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "[config.Load] env.Parse")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants the rest of the module assumes.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("[config.Validate] OAUTH_CLIENT_ID is required")
	}
	if c.CallbackURL == "" {
		return errors.New("[config.Validate] OAUTH_CALLBACK_URL is required")
	}
	if c.RelayBaseURL == "" {
		return errors.New("[config.Validate] RELAY_BASE_URL is required")
	}
	if c.IssuerURL == "" && c.AuthorizeURL == "" {
		return errors.New("[config.Validate] one of OAUTH_ISSUER_URL or OAUTH_AUTHORIZE_URL is required")
	}
	if c.PollInterval <= 0 || c.PollMaxAttempts <= 0 || c.PollRequestTimeout <= 0 {
		return errors.New("[config.Validate] poll interval, attempts and request timeout must be positive")
	}
	return nil
}

// PollPolicy maps the configured bounds onto the relay poll policy.
func (c Config) PollPolicy() relay.Policy {
	return relay.Policy{
		Interval:       c.PollInterval,
		MaxAttempts:    c.PollMaxAttempts,
		RequestTimeout: c.PollRequestTimeout,
		MaxWait:        c.PollMaxWait,
	}
}
