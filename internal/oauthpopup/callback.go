package oauthpopup

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
)

// CallbackOptions configures a Callback.
type CallbackOptions struct {
	Store   ports.AttemptStore
	Backend ports.Backend
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Callback completes a login attempt inside the popup window.
type Callback struct {
	store   ports.AttemptStore
	backend ports.Backend
	metrics statsd.Sink
	logger  *slog.Logger
}

// Completion is the outcome of a callback: the message for the opener and the cookies the
// backend set while exchanging the code.
type Completion struct {
	Message    domainauth.AuthenticationMessage
	SetCookies []string
}

// NewCallback builds a Callback.
func NewCallback(opts CallbackOptions) (*Callback, error) {
	if opts.Store == nil {
		return nil, errors.New("attempt store is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("backend is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Callback{
		store:   opts.Store,
		backend: opts.Backend,
		metrics: opts.Metrics,
		logger:  logger.With("component", "oauth_callback"),
	}, nil
}

// ValidateState checks received against the state stored for scope.
func (c *Callback) ValidateState(ctx context.Context, scope, received string) error {
	if received == "" {
		return domainauth.ErrMissingState
	}
	req, err := c.store.Read(ctx, scope)
	if err != nil {
		if errors.Is(err, domainauth.ErrNoAttempt) {
			return domainauth.ErrInvalidState
		}
		return fmt.Errorf("read login attempt: %w", err)
	}
	if req.State == "" || subtle.ConstantTimeCompare([]byte(req.State), []byte(received)) != 1 {
		return domainauth.ErrInvalidState
	}
	return nil
}

// CodeVerifier returns the stored verifier. It is empty when the attempt did not use PKCE.
func (c *Callback) CodeVerifier(ctx context.Context, scope string) (string, error) {
	req, err := c.store.Read(ctx, scope)
	if err != nil {
		if errors.Is(err, domainauth.ErrNoAttempt) {
			return "", domainauth.ErrMissingVerifier
		}
		return "", fmt.Errorf("read login attempt: %w", err)
	}
	if !req.UsePKCE {
		return "", nil
	}
	if req.CodeVerifier == "" {
		return "", domainauth.ErrMissingVerifier
	}
	return req.CodeVerifier, nil
}

// BackendCallbackURL builds the backend callback path for provider, forwarding every query
// parameter the identity provider returned and appending the verifier when one is given.
func BackendCallbackURL(provider string, query url.Values, verifier string) string {
	params := url.Values{}
	for k, vs := range query {
		params[k] = append([]string(nil), vs...)
	}
	if verifier != "" {
		params.Set("verifier", verifier)
	}
	path := "api/v1/login/providers/" + url.PathEscape(provider) + "/callback"
	if enc := params.Encode(); enc != "" {
		path += "?" + enc
	}
	return path
}

// Complete validates the popup request and exchanges the code through the backend.
// State is checked before anything else. Every failure becomes an error message; Complete
// never returns an error of its own.
func (c *Callback) Complete(ctx context.Context, scope string, fwd ports.Forward, query url.Values) Completion {
	start := time.Now()
	provider, update, err := c.complete(ctx, scope, fwd, query)

	result := metrics.ResultSuccess
	msg := domainauth.SuccessMessage()
	if err != nil {
		result = metrics.ResultError
		msg = domainauth.ErrorMessage(err)
		c.logger.WarnContext(ctx, "oauth callback failed", "provider", provider, "error", err)
	}
	metrics.Emit(c.metrics, metrics.AuthMetric{
		Name:     metrics.LoginCompleted,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
		Tags:     map[string]string{"provider": provider},
	})
	return Completion{Message: msg, SetCookies: update.SetCookies}
}

func (c *Callback) complete(ctx context.Context, scope string, fwd ports.Forward, query url.Values) (string, ports.SessionUpdate, error) {
	if err := c.ValidateState(ctx, scope, query.Get("state")); err != nil {
		return "", ports.SessionUpdate{}, err
	}
	req, err := c.store.Read(ctx, scope)
	if err != nil {
		return "", ports.SessionUpdate{}, fmt.Errorf("read login attempt: %w", err)
	}
	verifier, err := c.CodeVerifier(ctx, scope)
	if err != nil {
		return req.Provider, ports.SessionUpdate{}, err
	}

	update, err := c.backend.ExchangeCode(ctx, fwd, BackendCallbackURL(req.Provider, query, verifier))
	if err != nil {
		return req.Provider, ports.SessionUpdate{}, err
	}
	return req.Provider, update, nil
}
