// Package oauthpopup implements the popup OAuth2 login handshake: starting an attempt,
// completing it in the popup callback, and handling the result message in the opener.
package oauthpopup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/pkce"
	"github.com/target/momoino-ui/internal/ports"
)

// InitiatorOptions configures an Initiator.
type InitiatorOptions struct {
	Store     ports.AttemptStore
	Providers *Registry
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// Initiator starts popup login attempts.
type Initiator struct {
	store     ports.AttemptStore
	providers *Registry
	metrics   statsd.Sink
	logger    *slog.Logger
}

// NewInitiator builds an Initiator.
func NewInitiator(opts InitiatorOptions) (*Initiator, error) {
	if opts.Store == nil {
		return nil, errors.New("attempt store is required")
	}
	if opts.Providers == nil {
		return nil, errors.New("provider registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Initiator{
		store:     opts.Store,
		providers: opts.Providers,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "oauth_initiator"),
	}, nil
}

// StartLogin records a new attempt for scope and returns the URL to open in the popup.
// A newer attempt in the same scope replaces the older one.
func (i *Initiator) StartLogin(ctx context.Context, scope, provider string) (string, error) {
	popupURL, err := i.start(ctx, scope, provider)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
		i.logger.WarnContext(ctx, "login attempt not started", "provider", provider, "error", err)
	}
	metrics.Emit(i.metrics, metrics.AuthMetric{
		Name:   metrics.LoginStarted,
		Result: result,
		Err:    err,
		Tags:   map[string]string{"provider": provider},
	})
	return popupURL, err
}

func (i *Initiator) start(ctx context.Context, scope, name string) (string, error) {
	if scope == "" {
		return "", errors.New("attempt scope is required")
	}
	p, err := i.providers.Lookup(name)
	if err != nil {
		return "", err
	}

	state, err := pkce.RandomString(domainauth.StateLength)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	req := domainauth.AuthorizationRequest{Provider: p.Name, State: state, UsePKCE: p.UsePKCE}
	var pair pkce.Pair
	if p.UsePKCE {
		if pair, err = pkce.Generate(domainauth.VerifierLength); err != nil {
			return "", fmt.Errorf("generate pkce pair: %w", err)
		}
		req.CodeVerifier = pair.CodeVerifier
	}

	popupURL, err := p.Builder.AuthURL(state, pair)
	if err != nil {
		return "", fmt.Errorf("build authorization url: %w", err)
	}

	if err := i.store.Begin(ctx, scope, req); err != nil {
		return "", fmt.Errorf("store login attempt: %w", err)
	}
	i.logger.DebugContext(ctx, "login attempt started", "provider", p.Name, "pkce", p.UsePKCE)
	return popupURL, nil
}

// Providers exposes the configured provider descriptors.
func (i *Initiator) Providers() []domainauth.ProviderDescriptor {
	return i.providers.Descriptors()
}
