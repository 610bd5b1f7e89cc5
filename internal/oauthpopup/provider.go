package oauthpopup

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/pkce"
)

// AuthURLBuilder produces the URL the popup is sent to. pair is empty when the provider
// does not use PKCE.
type AuthURLBuilder interface {
	AuthURL(state string, pair pkce.Pair) (string, error)
}

// BackendAuthURL sends the popup to the backend authorize endpoint of one provider, which
// redirects on to the identity provider.
type BackendAuthURL struct {
	base *url.URL
}

// NewBackendAuthURL builds the default authorize URL {publicURL}/api/v1/login/providers/{name}.
func NewBackendAuthURL(publicURL, provider string) (*BackendAuthURL, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, errors.New("provider name is required")
	}
	base, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil {
		return nil, fmt.Errorf("parse backend public url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend public url must be absolute: %q", publicURL)
	}
	base = base.JoinPath("api", "v1", "login", "providers", provider)
	return &BackendAuthURL{base: base}, nil
}

// AuthURL appends state and, with PKCE, the code challenge.
func (b *BackendAuthURL) AuthURL(state string, pair pkce.Pair) (string, error) {
	if state == "" {
		return "", domainauth.ErrMissingState
	}
	u := *b.base
	q := u.Query()
	q.Set("state", state)
	if pair.CodeChallenge != "" {
		q.Set("codeChallenge", pair.CodeChallenge)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Provider is a configured login provider.
type Provider struct {
	Name        string
	DisplayName string
	UsePKCE     bool
	Builder     AuthURLBuilder
}

// Descriptor returns the sign-in button description.
func (p Provider) Descriptor() domainauth.ProviderDescriptor {
	display := p.DisplayName
	if display == "" {
		display = p.Name
	}
	return domainauth.ProviderDescriptor{Name: p.Name, DisplayName: display, UsePKCE: p.UsePKCE}
}

// Registry holds the providers in configuration order.
type Registry struct {
	order  []string
	byName map[string]Provider
}

// NewRegistry validates providers and indexes them by name.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, errors.New("provider name is required")
		}
		if p.Builder == nil {
			return nil, fmt.Errorf("provider %q has no authorization url builder", name)
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("provider %q configured twice", name)
		}
		p.Name = name
		r.byName[name] = p
		r.order = append(r.order, name)
	}
	return r, nil
}

// Lookup returns the provider called name or ErrUnknownProvider.
func (r *Registry) Lookup(name string) (Provider, error) {
	if r == nil {
		return Provider{}, domainauth.ErrUnknownProvider
	}
	p, ok := r.byName[name]
	if !ok {
		return Provider{}, fmt.Errorf("%w: %q", domainauth.ErrUnknownProvider, name)
	}
	return p, nil
}

// Descriptors lists the sign-in buttons in configuration order.
func (r *Registry) Descriptors() []domainauth.ProviderDescriptor {
	if r == nil {
		return nil
	}
	out := make([]domainauth.ProviderDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name].Descriptor())
	}
	return out
}
