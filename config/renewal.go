package config

import "time"

const (
	defaultRenewalInterval = 50 * time.Second
	defaultRenewalTimeout  = 10 * time.Second
	maxRenewalRetries      = 10
)

// RenewalConfig tunes silent session renewal.
type RenewalConfig struct {
	// Interval between scheduled renewals in the console.
	Interval time.Duration `env:"INTERVAL" envDefault:"50s"`

	// Retries after the first failed attempt before the session is treated as expired.
	Retries int `env:"RETRIES" envDefault:"2"`

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration `env:"RETRY_DELAY" envDefault:"250ms"`

	// Timeout bounds one backend renewal call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to renewal values.
func (r *RenewalConfig) Sanitize() {
	if r.Interval <= 0 {
		r.Interval = defaultRenewalInterval
	}
	if r.Retries < 0 {
		r.Retries = 0
	}
	if r.Retries > maxRenewalRetries {
		r.Retries = maxRenewalRetries
	}
	if r.RetryDelay < 0 {
		r.RetryDelay = 0
	}
	if r.Timeout <= 0 {
		r.Timeout = defaultRenewalTimeout
	}
}

// RenewerRetries converts Retries to the renewal package convention, where zero means
// the default and a negative value means no retries.
func (r RenewalConfig) RenewerRetries() int {
	if r.Retries == 0 {
		return -1
	}
	return r.Retries
}
