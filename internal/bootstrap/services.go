package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/momoino-ui/config"
	"github.com/target/momoino-ui/internal/adapters/backend"
	"github.com/target/momoino-ui/internal/guard"
	httpx "github.com/target/momoino-ui/internal/http"
	"github.com/target/momoino-ui/internal/identity"
	"github.com/target/momoino-ui/internal/oauthpopup"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
	"github.com/target/momoino-ui/internal/renewal"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Backend   *backend.Client
	Decoder   *identity.Decoder
	Providers *oauthpopup.Registry
	Attempts  ports.AttemptStore
	Initiator *oauthpopup.Initiator
	Callback  *oauthpopup.Callback
	Listener  *oauthpopup.Listener
	Renewer   *renewal.Renewer
	Guard     *guard.Guard
	Renderer  *httpx.TemplateRenderer
	Auth      *httpx.AuthHandlers
	Metrics   *statsd.Client
	Health    []httpx.Pinger
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config   *config.AppConfig
	Attempts AttemptStore
	Logger   *slog.Logger
}

func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) *statsd.Client {
	client, err := statsd.NewClient(statsd.Config{
		Enabled:    cfg.IsEnabled(),
		Address:    cfg.StatsdAddress,
		Prefix:     cfg.Prefix,
		Logger:     logger,
		GlobalTags: cfg.GlobalTags(),
	})
	if err != nil {
		logger.Error("failed to initialise statsd client; metrics disabled", "error", err)
		client, _ = statsd.NewClient(statsd.Config{Logger: logger})
	}
	return client
}

// NewServices wires the BFF services from configuration.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	if deps.Attempts.Store == nil {
		return nil, errors.New("attempt store is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &ServiceContainer{Attempts: deps.Attempts.Store}
	c.Metrics = buildMetrics(logger, cfg.Observability.Metrics)
	if deps.Attempts.Health != nil {
		c.Health = append(c.Health, deps.Attempts.Health)
	}

	var err error
	if c.Backend, err = backend.New(backend.Options{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		Logger:  logger,
	}); err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	if c.Decoder, err = identity.NewDecoder(identity.Options{
		RolesPath:       cfg.Auth.RolesPath,
		PermissionsPath: cfg.Auth.PermissionsPath,
	}); err != nil {
		return nil, fmt.Errorf("identity decoder: %w", err)
	}

	if c.Providers, err = BuildProviderRegistry(ctx, ProviderConfig{
		Auth:             cfg.Auth,
		BackendPublicURL: cfg.Backend.PublicURL,
		Logger:           logger,
	}); err != nil {
		return nil, fmt.Errorf("login providers: %w", err)
	}

	if err = c.buildPopup(logger); err != nil {
		return nil, err
	}

	c.Renewer = renewal.NewRenewer(renewal.RenewerOptions{
		Retries: cfg.Renewal.RenewerRetries(),
		Delay:   cfg.Renewal.RetryDelay,
		Timeout: cfg.Renewal.Timeout,
		Metrics: c.Metrics,
		Logger:  logger,
	})

	if c.Guard, err = guard.New(guard.Options{
		Backend:           c.Backend,
		Decoder:           c.Decoder,
		Renewer:           c.Renewer,
		SignInPath:        cfg.Auth.SignInPath,
		HomePath:          cfg.Auth.HomePath,
		ProtectedPrefixes: cfg.Auth.ProtectedPrefixes,
		Metrics:           c.Metrics,
		Logger:            logger,
	}); err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}

	if c.Renderer, err = httpx.NewTemplateRenderer(httpx.TemplateRendererConfig{
		TemplateFS: httpx.TemplateFS(cfg.IsDev, logger),
		DevMode:    cfg.IsDev,
		Logger:     logger,
	}); err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	c.Auth = &httpx.AuthHandlers{
		Backend:         c.Backend,
		Decoder:         c.Decoder,
		Initiator:       c.Initiator,
		Callback:        c.Callback,
		Listener:        c.Listener,
		Reporter:        oauthpopup.Reporter{FallbackURL: cfg.Auth.HomePath},
		Renewer:         c.Renewer,
		Store:           c.Attempts,
		Renderer:        c.Renderer,
		Cookies:         httpx.CookieOptions{Domain: cfg.HTTP.CookieDomain},
		SignInPath:      cfg.Auth.SignInPath,
		HomePath:        cfg.Auth.HomePath,
		RenewalInterval: cfg.Renewal.Interval,
		Metrics:         c.Metrics,
		Logger:          logger,
	}
	return c, nil
}

func (c *ServiceContainer) buildPopup(logger *slog.Logger) error {
	var err error
	if c.Initiator, err = oauthpopup.NewInitiator(oauthpopup.InitiatorOptions{
		Store:     c.Attempts,
		Providers: c.Providers,
		Metrics:   c.Metrics,
		Logger:    logger,
	}); err != nil {
		return fmt.Errorf("oauth initiator: %w", err)
	}
	if c.Callback, err = oauthpopup.NewCallback(oauthpopup.CallbackOptions{
		Store:   c.Attempts,
		Backend: c.Backend,
		Metrics: c.Metrics,
		Logger:  logger,
	}); err != nil {
		return fmt.Errorf("oauth callback: %w", err)
	}
	if c.Listener, err = oauthpopup.NewListener(oauthpopup.ListenerOptions{
		Store:   c.Attempts,
		Metrics: c.Metrics,
		Logger:  logger,
	}); err != nil {
		return fmt.Errorf("oauth listener: %w", err)
	}
	return nil
}

// Close releases resources held by the services.
func (c *ServiceContainer) Close() error {
	if c == nil || c.Metrics == nil {
		return nil
	}
	return c.Metrics.Close()
}
