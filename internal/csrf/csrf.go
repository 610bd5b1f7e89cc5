// Package csrf manages the backend CSRF token pair: a cookie set by the backend and a header
// value that must accompany every state-changing request.
package csrf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/ports"
)

// Fetcher is the backend call that issues a token pair.
type Fetcher interface {
	CSRFToken(ctx context.Context, fwd ports.Forward) (domainauth.CsrfToken, error)
}

// TokenSource yields the header value to attach to unsafe requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Manager fetches token pairs and remembers the newest one.
type Manager struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu      sync.RWMutex
	current domainauth.CsrfToken
}

// NewManager builds a Manager over fetcher.
func NewManager(fetcher Fetcher, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{fetcher: fetcher, logger: logger.With("component", "csrf")}
}

// Fetch requests a new pair using the client's own cookies and makes it current.
func (m *Manager) Fetch(ctx context.Context) (domainauth.CsrfToken, error) {
	return m.FetchFor(ctx, ports.Forward{})
}

// FetchFor requests a new pair on behalf of the forwarded caller.
func (m *Manager) FetchFor(ctx context.Context, fwd ports.Forward) (domainauth.CsrfToken, error) {
	tok, err := m.fetcher.CSRFToken(ctx, fwd)
	if err != nil {
		if !errors.Is(err, domainauth.ErrCannotGetCSRF) {
			err = fmt.Errorf("%w: %w", domainauth.ErrCannotGetCSRF, err)
		}
		m.logger.WarnContext(ctx, "csrf token fetch failed", "error", err)
		return domainauth.CsrfToken{}, err
	}
	m.Rotate(tok)
	return tok, nil
}

// Rotate replaces the current pair.
func (m *Manager) Rotate(tok domainauth.CsrfToken) {
	m.mu.Lock()
	m.current = tok
	m.mu.Unlock()
}

// Current returns the newest pair, if any.
func (m *Manager) Current() (domainauth.CsrfToken, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current.HeaderValue != ""
}

// Invalidate forgets the current pair so the next Token call fetches a new one.
func (m *Manager) Invalidate() {
	m.Rotate(domainauth.CsrfToken{})
}

// Token returns the current header value, fetching a pair when none is held.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.Current(); ok {
		return tok.HeaderValue, nil
	}
	tok, err := m.Fetch(ctx)
	if err != nil {
		return "", err
	}
	return tok.HeaderValue, nil
}

// StaticSource is a token taken from a rendered page.
type StaticSource string

// Token implements TokenSource.
func (s StaticSource) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", domainauth.ErrMissingCSRFToken
	}
	return string(s), nil
}

// FromRequest reads the pair carried by an incoming request.
func FromRequest(r *http.Request) (domainauth.CsrfToken, error) {
	ck, err := r.Cookie(domainauth.CSRFCookie)
	if err != nil || ck.Value == "" {
		return domainauth.CsrfToken{}, domainauth.ErrMissingCSRFCookie
	}
	header := strings.TrimSpace(r.Header.Get(domainauth.CSRFHeader))
	if header == "" {
		return domainauth.CsrfToken{}, domainauth.ErrMissingCSRFToken
	}
	return domainauth.CsrfToken{CookieValue: ck.Value, HeaderValue: header}, nil
}

// FromResponse reads the pair issued in a backend response: the header value and the
// CSRF cookie among the Set-Cookie lines, which are kept verbatim.
func FromResponse(h http.Header) (domainauth.CsrfToken, error) {
	header := strings.TrimSpace(h.Get(domainauth.CSRFHeader))
	if header == "" {
		return domainauth.CsrfToken{}, domainauth.ErrMissingCSRFToken
	}
	lines := h.Values("Set-Cookie")
	cookieValue := ""
	for _, line := range lines {
		ck, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		if ck.Name == domainauth.CSRFCookie && ck.Value != "" {
			cookieValue = ck.Value
		}
	}
	if cookieValue == "" {
		return domainauth.CsrfToken{}, domainauth.ErrMissingCSRFCookie
	}
	return domainauth.CsrfToken{
		CookieValue: cookieValue,
		HeaderValue: header,
		SetCookies:  append([]string(nil), lines...),
	}, nil
}

// Inject exposes tok to the browser: the header for scripts and the cookie lines verbatim.
func Inject(w http.ResponseWriter, tok domainauth.CsrfToken) {
	if tok.HeaderValue != "" {
		w.Header().Set(domainauth.CSRFHeader, tok.HeaderValue)
	}
	ForwardSetCookies(w.Header(), tok.SetCookies)
}

// ForwardSetCookies appends backend Set-Cookie lines unchanged.
func ForwardSetCookies(h http.Header, lines []string) {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			h.Add("Set-Cookie", line)
		}
	}
}

// Cookie returns the CSRF cookie as a request cookie.
func Cookie(tok domainauth.CsrfToken) *http.Cookie {
	return &http.Cookie{Name: domainauth.CSRFCookie, Value: tok.CookieValue}
}

// RequiresToken reports whether method changes state and so must carry the header.
func RequiresToken(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
