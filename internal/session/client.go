package session

// Package session is the long-lived, per-tab view of a console session: a cookie jar shared by
// every backend call, CSRF headers attached automatically, silent renewal and a cached profile.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/target/momoino-ui/internal/adapters/backend"
	"github.com/target/momoino-ui/internal/csrf"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/identity"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
	"github.com/target/momoino-ui/internal/renewal"
)

// Options configures a Client.
type Options struct {
	BackendURL string
	// Transport is the base round tripper; defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Timeout   time.Duration
	Decoder   *identity.Decoder
	Notifier  ports.Notifier
	Navigator ports.Navigator
	// Interval and Retries tune silent renewal; zero values use the renewal defaults.
	Interval time.Duration
	Retries  int
	Metrics  statsd.Sink
	Logger   *slog.Logger
}

// Client holds one tab's session.
type Client struct {
	backend *backend.Client
	csrf    *csrf.Manager
	jar     http.CookieJar
	base    *url.URL
	decoder *identity.Decoder
	engine  *renewal.Engine
	metrics statsd.Sink
	logger  *slog.Logger

	mu         sync.RWMutex
	profile    domainauth.Profile
	hasProfile bool
}

var _ ports.ProfileStore = (*Client)(nil)

// New builds a Client with an empty cookie jar.
func New(opts Options) (*Client, error) {
	if opts.Decoder == nil {
		return nil, errors.New("session: identity decoder is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{jar: jar, decoder: opts.Decoder, metrics: opts.Metrics, logger: logger.With("component", "session")}

	// The manager fetches through the same client; the fetch is a GET and so never needs a token.
	transport := &csrf.Transport{Base: opts.Transport, Jar: jar}
	hc := &http.Client{Jar: jar, Transport: transport, Timeout: opts.Timeout}
	c.backend, err = backend.New(backend.Options{BaseURL: opts.BackendURL, HTTPClient: hc, Logger: logger})
	if err != nil {
		return nil, err
	}
	c.base, err = url.Parse(c.backend.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	c.csrf = csrf.NewManager(c.backend, logger)
	transport.Source = c.csrf

	if opts.Notifier != nil && opts.Navigator != nil {
		c.engine, err = renewal.NewEngine(renewal.EngineOptions{
			Renewer:   renewal.NewRenewer(renewal.RenewerOptions{Retries: opts.Retries, Metrics: opts.Metrics, Logger: logger}),
			Key:       "tab",
			Renew:     c.renew,
			Profile:   func(context.Context, ports.SessionUpdate) (domainauth.Profile, error) { return c.IdentityProfile() },
			Profiles:  c,
			Notifier:  opts.Notifier,
			Navigator: opts.Navigator,
			Interval:  opts.Interval,
			Metrics:   opts.Metrics,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Backend returns the backend client bound to this session's cookies.
func (c *Client) Backend() *backend.Client { return c.backend }

// CSRF returns the token manager used for unsafe requests.
func (c *Client) CSRF() *csrf.Manager { return c.csrf }

// Login signs in with credentials: a login session is created first, then the credentials
// are posted. The identity cookie set by the backend becomes the cached profile.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.Profile, error) {
	start := time.Now()
	p, err := c.login(ctx, creds)
	metrics.Emit(c.metrics, metrics.AuthMetric{
		Name:     metrics.CredentialsLogin,
		Result:   resultOf(err),
		Duration: time.Since(start),
		Err:      err,
	})
	return p, err
}

func (c *Client) login(ctx context.Context, creds domainauth.Credentials) (domainauth.Profile, error) {
	if _, err := c.backend.CreateLoginSession(ctx, ports.Forward{}); err != nil {
		return domainauth.Profile{}, fmt.Errorf("create login session: %w", err)
	}
	if _, err := c.backend.Login(ctx, ports.Forward{}, creds); err != nil {
		return domainauth.Profile{}, fmt.Errorf("login: %w", err)
	}
	// The backend rotates the CSRF secret on login.
	c.csrf.Invalidate()

	p, err := c.IdentityProfile()
	if err != nil {
		return domainauth.Profile{}, err
	}
	c.SetProfile(p)
	c.logger.InfoContext(ctx, "signed in", "user_id", p.ID)
	return p, nil
}

func (c *Client) renew(ctx context.Context) (ports.SessionUpdate, error) {
	upd, err := c.backend.RenewToken(ctx, ports.Forward{})
	if err != nil {
		return ports.SessionUpdate{}, err
	}
	c.csrf.Invalidate()
	return upd, nil
}

// Renew performs one renewal outside the schedule.
func (c *Client) Renew(ctx context.Context) error {
	if c.engine == nil {
		_, err := c.renew(ctx)
		return err
	}
	return c.engine.RenewOnce(ctx)
}

// Run keeps the session alive until ctx is done or the session expires.
func (c *Client) Run(ctx context.Context) error {
	if c.engine == nil {
		return errors.New("session: renewal needs a notifier and a navigator")
	}
	return c.engine.Run(ctx)
}

// Trigger requests an immediate renewal from a running engine.
func (c *Client) Trigger() {
	if c.engine != nil {
		c.engine.Trigger()
	}
}

// SetProfile implements ports.ProfileStore.
func (c *Client) SetProfile(p domainauth.Profile) {
	c.mu.Lock()
	c.profile, c.hasProfile = p, true
	c.mu.Unlock()
}

// Profile returns the cached profile.
func (c *Client) Profile() (domainauth.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile, c.hasProfile
}

// IdentityProfile decodes the identity cookie currently in the jar.
func (c *Client) IdentityProfile() (domainauth.Profile, error) {
	token, ok := c.Cookie(domainauth.IdentityCookie)
	if !ok {
		return domainauth.Profile{}, domainauth.ErrMissingIdentityCookie
	}
	return c.decoder.Profile(token)
}

// Valid reports whether the jar holds an identity bound to the current session.
func (c *Client) Valid() bool {
	token, _ := c.Cookie(domainauth.IdentityCookie)
	sid, _ := c.Cookie(domainauth.SessionCookie)
	return c.decoder.IsValid(token, sid)
}

// Cookie returns the value the jar would send to the backend for name.
func (c *Client) Cookie(name string) (string, bool) {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == name && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}

// ReloadFunc adapts a function to ports.Navigator.
type ReloadFunc func(ctx context.Context) error

// Reload implements ports.Navigator.
func (f ReloadFunc) Reload(ctx context.Context) error { return f(ctx) }

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
