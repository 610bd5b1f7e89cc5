package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: login providers, route protection and claim extraction
//   - backend.go: backend API location
//   - http.go: HTTP server configuration
//   - renewal.go: silent session renewal
//   - store.go: Redis and login-attempt storage
type AppConfig struct {
	// IsDev controls development mode behavior (templates and assets read from disk).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Backend API configuration
	Backend BackendConfig `envPrefix:"BACKEND_"`

	// Login providers and route protection
	Auth AuthConfig

	// Silent renewal
	Renewal RenewalConfig `envPrefix:"RENEWAL_"`

	// Login attempt storage
	Redis    RedisConfig        `envPrefix:"REDIS_"`
	Attempts AttemptStoreConfig `envPrefix:"ATTEMPT_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Backend.Sanitize()
	c.Auth.Sanitize()
	c.Renewal.Sanitize()
	c.Attempts.Sanitize()
	c.Observability.Sanitize()

	// Check NODE_ENV for dev mode
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}

// Validate reports configuration that cannot work. Call it after Sanitize.
func (c *AppConfig) Validate() error {
	for name, raw := range map[string]string{"BACKEND_URL": c.Backend.URL, "BACKEND_PUBLIC_URL": c.Backend.PublicURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	return nil
}
