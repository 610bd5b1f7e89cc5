package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/momoino-ui/config"
	"github.com/target/momoino-ui/internal/adapters/oidc"
	"github.com/target/momoino-ui/internal/oauthpopup"
)

// ProviderConfig contains what is needed to resolve login providers.
type ProviderConfig struct {
	Auth             config.AuthConfig
	BackendPublicURL string
	// HTTPClient is used for OIDC discovery (optional).
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// BuildProviderRegistry resolves every configured provider to an authorization URL builder.
// Providers go through the backend authorize endpoint unless OIDC discovery is configured for them.
func BuildProviderRegistry(ctx context.Context, cfg ProviderConfig) (*oauthpopup.Registry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	providers := make([]oauthpopup.Provider, 0, len(cfg.Auth.Providers))
	for _, spec := range cfg.Auth.Providers {
		builder, err := authURLBuilder(ctx, cfg, spec)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", spec.Name, err)
		}
		providers = append(providers, oauthpopup.Provider{
			Name:        spec.Name,
			DisplayName: spec.DisplayName(),
			UsePKCE:     spec.UsePKCE,
			Builder:     builder,
		})
		logger.Info("login provider configured", "provider", spec.Name, "pkce", spec.UsePKCE)
	}
	return oauthpopup.NewRegistry(providers...)
}

//nolint:ireturn // the builder depends on how the provider is configured.
func authURLBuilder(ctx context.Context, cfg ProviderConfig, spec config.ProviderSpec) (oauthpopup.AuthURLBuilder, error) {
	if cfg.Auth.OIDC.Enabled() && cfg.Auth.OIDC.Provider == spec.Name {
		o := cfg.Auth.OIDC
		return oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     o.ClientID,
			RedirectURL:  o.RedirectURL,
			Scope:        o.Scope,
			DiscoveryURL: o.DiscoveryURL,
			Prompt:       o.Prompt,
			HTTPClient:   cfg.HTTPClient,
		})
	}
	return oauthpopup.NewBackendAuthURL(cfg.BackendPublicURL, spec.Name)
}
