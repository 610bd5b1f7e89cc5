package ports

// Package ports defines interfaces (hexagonal ports) for the console authentication flow.
// Implementations live in internal/adapters; orchestration in the flow packages.

import (
	"context"
	"net/http"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/observability/notify"
)

// AttemptStore keeps the transient AuthorizationRequest of one login attempt.
// scope identifies the browser session that started the attempt.
type AttemptStore interface {
	// Begin records req for scope, replacing any earlier attempt.
	Begin(ctx context.Context, scope string, req domainauth.AuthorizationRequest) error
	// Read returns the attempt for scope or domainauth.ErrNoAttempt.
	Read(ctx context.Context, scope string) (domainauth.AuthorizationRequest, error)
	// Clear removes every key of the attempt. Clearing an absent attempt is not an error.
	Clear(ctx context.Context, scope string) error
}

// Forward carries the caller's credentials to a backend call.
// Long-lived clients leave Cookies empty and rely on their cookie jar.
type Forward struct {
	Cookies   []*http.Cookie
	CSRFToken string
}

// SessionUpdate is what the backend returned from a call that may rotate cookies.
// SetCookies are raw header lines, forwarded to the browser verbatim.
type SessionUpdate struct {
	SetCookies []string
	Tokens     domainauth.TokenPair
}

// Backend is the console API consumed by the authentication flow.
type Backend interface {
	CSRFToken(ctx context.Context, fwd Forward) (domainauth.CsrfToken, error)
	RenewToken(ctx context.Context, fwd Forward) (SessionUpdate, error)
	// ExchangeCode calls the provider callback URL built by the popup callback handler.
	ExchangeCode(ctx context.Context, fwd Forward, callbackURL string) (SessionUpdate, error)
	CreateLoginSession(ctx context.Context, fwd Forward) (SessionUpdate, error)
	Login(ctx context.Context, fwd Forward, creds domainauth.Credentials) (SessionUpdate, error)
	Profile(ctx context.Context, fwd Forward) (domainauth.Profile, error)
	Providers(ctx context.Context, fwd Forward) ([]domainauth.ProviderRecord, error)
}

// Notifier is the single user-facing notification surface.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Navigator reloads the current view so server-rendered state picks up new cookies.
type Navigator interface {
	Reload(ctx context.Context) error
}

// ProfileStore caches the profile projection shown by a client.
type ProfileStore interface {
	SetProfile(p domainauth.Profile)
}
