package oidc

// Package oidc builds popup authorization URLs straight against an OpenID Connect provider,
// using discovery to find its authorization endpoint.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/pkce"
)

// Provider builds authorization URLs for one discovered OIDC provider.
type Provider struct {
	config *oauth2.Config
	issuer string
	prompt string
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	// Prompt is sent as the prompt parameter when set (for example "select_account").
	Prompt     string
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider performs discovery and returns a Provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	issuer := IssuerFromDiscoveryURL(config.DiscoveryURL)
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scopes := strings.Fields(config.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:    config.ClientID,
			RedirectURL: config.RedirectURL,
			Scopes:      scopes,
			Endpoint:    op.Endpoint(),
		},
		issuer: issuer,
		prompt: strings.TrimSpace(config.Prompt),
	}, nil
}

// IssuerFromDiscoveryURL strips the well-known suffix from a discovery URL.
func IssuerFromDiscoveryURL(discoveryURL string) string {
	issuer := strings.TrimSuffix(discoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	return strings.TrimSuffix(issuer, ".well-known/openid-configuration")
}

// Issuer returns the discovered issuer.
func (p *Provider) Issuer() string {
	return p.issuer
}

// AuthorizationEndpoint returns the discovered authorization endpoint.
func (p *Provider) AuthorizationEndpoint() string {
	return p.config.Endpoint.AuthURL
}

// AuthURL implements the popup URL builder. With a verifier the S256 challenge is attached.
func (p *Provider) AuthURL(state string, pair pkce.Pair) (string, error) {
	if state == "" {
		return "", domainauth.ErrMissingState
	}
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if p.prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", p.prompt))
	}
	if pair.CodeVerifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(pair.CodeVerifier))
	}
	return p.config.AuthCodeURL(state, opts...), nil
}
