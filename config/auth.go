package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ProviderSpec is one entry of AUTH_PROVIDERS, written as name[:pkce].
type ProviderSpec struct {
	Name    string
	UsePKCE bool
}

// DisplayName is the label shown on the sign-in button.
func (p ProviderSpec) DisplayName() string {
	if known, ok := providerLabels[p.Name]; ok {
		return known
	}
	r, size := utf8.DecodeRuneInString(p.Name)
	if r == utf8.RuneError {
		return p.Name
	}
	return string(unicode.ToUpper(r)) + p.Name[size:]
}

var providerLabels = map[string]string{
	"github":    "GitHub",
	"gitlab":    "GitLab",
	"microsoft": "Microsoft",
}

// ProviderList is the ordered provider configuration.
type ProviderList []ProviderSpec

// UnmarshalText implements encoding.TextUnmarshaler for ProviderList.
// Entries are comma separated; each is a provider name optionally followed by ":pkce".
func (l *ProviderList) UnmarshalText(text []byte) error {
	var out ProviderList
	seen := make(map[string]bool)
	for _, raw := range strings.Split(string(text), ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		name, flag, hasFlag := strings.Cut(entry, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return fmt.Errorf("invalid provider entry %q: name is required", entry)
		}
		spec := ProviderSpec{Name: name}
		if hasFlag {
			if !strings.EqualFold(strings.TrimSpace(flag), "pkce") {
				return fmt.Errorf("invalid provider entry %q (valid option: pkce)", entry)
			}
			spec.UsePKCE = true
		}
		if seen[name] {
			return fmt.Errorf("provider %q configured twice", name)
		}
		seen[name] = true
		out = append(out, spec)
	}
	*l = out
	return nil
}

// OIDCConfig sends one provider's popup straight to an OpenID Connect authorization
// endpoint found by discovery, instead of the backend authorize endpoint.
type OIDCConfig struct {
	// Provider names the AUTH_PROVIDERS entry this applies to. Empty disables discovery.
	Provider     string `env:"PROVIDER"`
	ClientID     string `env:"CLIENT_ID"`
	RedirectURL  string `env:"REDIRECT_URL"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	Prompt       string `env:"PROMPT"`
}

// Enabled reports whether a provider is configured for direct discovery.
func (o OIDCConfig) Enabled() bool {
	return o.Provider != ""
}

// AuthConfig contains login provider and route protection configuration.
type AuthConfig struct {
	// Providers lists the login providers in button order.
	Providers ProviderList `env:"AUTH_PROVIDERS" envDefault:"google:pkce"`

	// ProtectedPrefixes are the path prefixes that require a session.
	ProtectedPrefixes []string `env:"AUTH_PROTECTED_PREFIXES" envDefault:"/admin/"`

	// SignInPath is where unauthenticated requests are sent.
	SignInPath string `env:"AUTH_SIGNIN_PATH" envDefault:"/auth/signin"`

	// HomePath is the landing page after sign-in.
	HomePath string `env:"AUTH_HOME_PATH" envDefault:"/admin/"`

	// RolesPath and PermissionsPath are JMESPath expressions over the identity token claims.
	RolesPath       string `env:"AUTH_ROLES_PATH"       envDefault:"roles"`
	PermissionsPath string `env:"AUTH_PERMISSIONS_PATH" envDefault:"permissions"`

	OIDC OIDCConfig `envPrefix:"OIDC_"`
}

// Sanitize trims values and drops empty prefixes.
func (a *AuthConfig) Sanitize() {
	prefixes := a.ProtectedPrefixes[:0]
	for _, p := range a.ProtectedPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	a.ProtectedPrefixes = prefixes
	a.SignInPath = strings.TrimSpace(a.SignInPath)
	a.HomePath = strings.TrimSpace(a.HomePath)
	a.OIDC.Provider = strings.ToLower(strings.TrimSpace(a.OIDC.Provider))
}

// Validate checks relationships between fields that env tags cannot express.
func (a *AuthConfig) Validate() error {
	if len(a.Providers) == 0 {
		return errors.New("at least one login provider is required")
	}
	if !a.OIDC.Enabled() {
		return nil
	}
	found := false
	for _, p := range a.Providers {
		if p.Name == a.OIDC.Provider {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("oidc provider %q is not listed in AUTH_PROVIDERS", a.OIDC.Provider)
	}
	if a.OIDC.ClientID == "" || a.OIDC.DiscoveryURL == "" || a.OIDC.RedirectURL == "" {
		return fmt.Errorf("oidc provider %q requires client id, discovery url and redirect url", a.OIDC.Provider)
	}
	return nil
}
