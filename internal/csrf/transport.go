package csrf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

// Transport attaches the CSRF header to state-changing requests.
// Safe methods pass through untouched.
type Transport struct {
	Base   http.RoundTripper
	Source TokenSource
	// Jar is the client's cookie jar. When set, the Cookie header is rebuilt after the
	// token is fetched so a CSRF cookie stored by that fetch travels with the request.
	Jar http.CookieJar
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if !RequiresToken(req.Method) || req.Header.Get(domainauth.CSRFHeader) != "" {
		return base.RoundTrip(req)
	}
	if t.Source == nil {
		return nil, domainauth.ErrMissingCSRFToken
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("csrf token for %s %s: %w", req.Method, req.URL.Path, err)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(domainauth.CSRFHeader, token)
	if t.Jar != nil {
		refreshCookies(clone, t.Jar.Cookies(clone.URL))
	}
	return base.RoundTrip(clone)
}

// refreshCookies replaces the Cookie header with the jar's current cookies and keeps any
// cookie set on the request whose name the jar does not hold.
func refreshCookies(req *http.Request, fromJar []*http.Cookie) {
	existing := req.Cookies()
	req.Header.Del("Cookie")
	seen := make(map[string]bool, len(fromJar))
	for _, c := range fromJar {
		seen[c.Name] = true
		req.AddCookie(c)
	}
	for _, c := range existing {
		if !seen[c.Name] {
			req.AddCookie(c)
		}
	}
}

// MetaTagSource reads the token from the csrf-token meta tag of an HTML page.
type MetaTagSource struct {
	Client  *http.Client
	PageURL string
}

// Token fetches PageURL and returns the meta tag content.
func (s MetaTagSource) Token(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.PageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create page request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}
	return ParseMetaToken(io.LimitReader(resp.Body, 1<<20))
}

// ParseMetaToken scans an HTML document for <meta name="csrf-token" content="...">.
func ParseMetaToken(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("parse page: %w", err)
			}
			return "", domainauth.ErrMissingCSRFToken
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range tok.Attr {
				switch strings.ToLower(attr.Key) {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if name == domainauth.CSRFMetaName && strings.TrimSpace(content) != "" {
				return content, nil
			}
		}
	}
}
