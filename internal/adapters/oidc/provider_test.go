package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/pkce"
)

func discoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(DiscoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: "https://idp.example.com/authorize",
			TokenEndpoint:         "https://idp.example.com/token",
			UserinfoEndpoint:      "https://idp.example.com/userinfo",
			JwksURI:               "https://idp.example.com/jwks",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewProvider_Success(t *testing.T) {
	srv := discoveryServer(t)

	provider, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "console",
		RedirectURL:  "https://console.example.com/auth/callback",
		DiscoveryURL: srv.URL + "/.well-known/openid-configuration",
	})
	require.NoError(t, err)
	assert.Equal(t, srv.URL, provider.Issuer())
	assert.Equal(t, "https://idp.example.com/authorize", provider.AuthorizationEndpoint())
	assert.Equal(t, []string{"openid", "profile", "email"}, provider.config.Scopes)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name:   "missing client ID",
			config: ProviderConfig{RedirectURL: "http://localhost/callback", DiscoveryURL: "http://example.com"},
			errMsg: "client ID is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{ClientID: "client", DiscoveryURL: "http://example.com"},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{ClientID: "client", RedirectURL: "http://localhost/callback"},
			errMsg: "discovery URL is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewProvider_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewProvider(context.Background(), ProviderConfig{
		ClientID: "c", RedirectURL: "http://localhost/cb", DiscoveryURL: srv.URL,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oidc new provider")
}

func TestIssuerFromDiscoveryURL(t *testing.T) {
	assert.Equal(t, "https://idp", IssuerFromDiscoveryURL("https://idp/.well-known/openid-configuration"))
	assert.Equal(t, "https://idp", IssuerFromDiscoveryURL("https://idp/"))
	assert.Equal(t, "https://idp", IssuerFromDiscoveryURL("https://idp"))
}

func TestAuthURL(t *testing.T) {
	srv := discoveryServer(t)
	provider, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     "console",
		RedirectURL:  "https://console.example.com/auth/callback",
		Scope:        "openid email",
		DiscoveryURL: srv.URL,
		Prompt:       "select_account",
	})
	require.NoError(t, err)

	pair, err := pkce.Generate(64)
	require.NoError(t, err)

	raw, err := provider.AuthURL("state-1", pair)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "idp.example.com", u.Host)
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "console", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email", q.Get("scope"))
	assert.Equal(t, "select_account", q.Get("prompt"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(pair.CodeVerifier), q.Get("code_challenge"))

	raw, err = provider.AuthURL("state-2", pkce.Pair{})
	require.NoError(t, err)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	assert.False(t, u.Query().Has("code_challenge"))

	_, err = provider.AuthURL("", pair)
	require.ErrorIs(t, err, domainauth.ErrMissingState)
}
