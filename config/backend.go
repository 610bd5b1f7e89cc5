package config

import (
	"strings"
	"time"
)

const defaultBackendTimeout = 10 * time.Second

// BackendConfig locates the backend API.
type BackendConfig struct {
	// URL is the base the BFF calls server-to-server.
	URL string `env:"URL" envDefault:"http://localhost:3000"`

	// PublicURL is the base the browser is sent to for provider authorization.
	// Defaults to URL when empty.
	PublicURL string `env:"PUBLIC_URL"`

	// Timeout bounds each backend request.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize trims URLs and falls back to defaults.
func (b *BackendConfig) Sanitize() {
	b.URL = strings.TrimSpace(b.URL)
	b.PublicURL = strings.TrimSpace(b.PublicURL)
	if b.PublicURL == "" {
		b.PublicURL = b.URL
	}
	if b.Timeout <= 0 {
		b.Timeout = defaultBackendTimeout
	}
}
