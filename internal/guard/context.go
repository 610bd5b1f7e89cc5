package guard

import "context"

type csrfTokenKey struct{}

// WithCSRFToken returns a child context carrying the header value of the injected CSRF pair.
func WithCSRFToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

// CSRFTokenFromContext returns the token injected for this request, for the page meta tag.
func CSRFTokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(csrfTokenKey{}).(string)
	return tok, ok && tok != ""
}
