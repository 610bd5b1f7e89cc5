package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// PublicURL is the externally visible origin of the console (e.g., "https://console.example.com").
	// Unsafe requests whose Origin matches it are accepted behind a proxy.
	PublicURL string `env:"APP_PUBLIC_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for the login-attempt cookie.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CompressionEnabled enables gzip compression for text-based responses.
	CompressionEnabled bool `env:"HTTP_COMPRESSION_ENABLED" envDefault:"false"`

	// CompressionLevel is the gzip compression level (1-9).
	// Default is 6 (standard gzip default).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.PublicURL = strings.TrimRight(strings.TrimSpace(h.PublicURL), "/")

	// Clamp compression level to valid gzip range (1-9)
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
}
