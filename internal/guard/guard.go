package guard

// Package guard decides, per navigation request, whether the console page may render,
// must renew the session first, or must redirect.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/target/momoino-ui/internal/csrf"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/identity"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
	"github.com/target/momoino-ui/internal/renewal"
)

// Defaults for Options.
const (
	DefaultSignInPath = "/auth/signin"
	DefaultHomePath   = "/"
	DefaultProtected  = "/admin"
)

// Decisions reported in metrics.
const (
	DecisionAllow          = "allow"
	DecisionRenewed        = "renewed"
	DecisionRedirectSignIn = "redirect_signin"
	DecisionRedirectHome   = "redirect_home"
)

// Route labels reported in metrics.
const (
	RouteSignIn    = "signin"
	RouteProtected = "protected"
)

// Options configures the guard.
type Options struct {
	Backend ports.Backend
	Decoder *identity.Decoder
	// Renewer deduplicates concurrent renewals of one session. Defaults to a new Renewer.
	Renewer           *renewal.Renewer
	SignInPath        string
	HomePath          string
	ProtectedPrefixes []string
	Metrics           statsd.Sink
	Logger            *slog.Logger
}

// Guard is the routing middleware in front of console pages.
type Guard struct {
	backend   ports.Backend
	decoder   *identity.Decoder
	renewer   *renewal.Renewer
	signIn    string
	home      string
	protected []string
	metrics   statsd.Sink
	logger    *slog.Logger
}

// New validates opts and constructs a Guard.
func New(opts Options) (*Guard, error) {
	if opts.Backend == nil {
		return nil, errors.New("guard: backend is required")
	}
	if opts.Decoder == nil {
		return nil, errors.New("guard: identity decoder is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	renewer := opts.Renewer
	if renewer == nil {
		renewer = renewal.NewRenewer(renewal.RenewerOptions{Metrics: opts.Metrics, Logger: logger})
	}
	g := &Guard{
		backend: opts.Backend,
		decoder: opts.Decoder,
		renewer: renewer,
		signIn:  defaultString(opts.SignInPath, DefaultSignInPath),
		home:    defaultString(opts.HomePath, DefaultHomePath),
		metrics: opts.Metrics,
		logger:  logger.With("component", "guard"),
	}
	for _, p := range opts.ProtectedPrefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g.protected = append(g.protected, "/"+strings.Trim(p, "/"))
	}
	if len(g.protected) == 0 {
		g.protected = []string{DefaultProtected}
	}
	return g, nil
}

// Middleware wraps next with the guard.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := g.route(r.URL.Path)
		if route == "" || isStatic(r.URL.Path) || isPrefetch(r) {
			next.ServeHTTP(w, r)
			return
		}
		var decision string
		if route == RouteSignIn {
			decision = g.signInRoute(w, r, next)
		} else {
			decision = g.protectedRoute(w, r, next)
		}
		metrics.EmitGuardDecision(g.metrics, route, decision)
	})
}

func (g *Guard) route(p string) string {
	if p == g.signIn {
		return RouteSignIn
	}
	for _, prefix := range g.protected {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return RouteProtected
		}
	}
	return ""
}

func (g *Guard) signInRoute(w http.ResponseWriter, r *http.Request, next http.Handler) string {
	ctx := r.Context()
	tok, err := g.injectCSRF(w, r)
	if err != nil {
		g.logger.WarnContext(ctx, "csrf injection failed on sign-in", "error", err)
	} else {
		r = r.WithContext(WithCSRFToken(ctx, tok.HeaderValue))
	}

	if g.decoder.RequestIsValid(r) {
		http.Redirect(w, r, SafeRedirect(r.URL.Query().Get("redirectTo"), g.home), http.StatusFound)
		return DecisionRedirectHome
	}
	if canRenew(r) && err == nil {
		_, rerr := g.renew(w, r, tok)
		if rerr == nil {
			http.Redirect(w, r, g.home, http.StatusFound)
			return DecisionRedirectHome
		}
		g.logger.InfoContext(ctx, "session renewal on sign-in failed", "error", rerr)
	}
	next.ServeHTTP(w, r)
	return DecisionAllow
}

func (g *Guard) protectedRoute(w http.ResponseWriter, r *http.Request, next http.Handler) string {
	ctx := r.Context()
	tok, err := g.injectCSRF(w, r)
	if err != nil {
		g.logger.WarnContext(ctx, "csrf injection failed on protected route", "error", err)
		g.redirectToSignIn(w, r)
		return DecisionRedirectSignIn
	}
	r = r.WithContext(WithCSRFToken(ctx, tok.HeaderValue))

	if g.decoder.RequestIsValid(r) {
		next.ServeHTTP(w, r)
		return DecisionAllow
	}
	if !canRenew(r) {
		g.redirectToSignIn(w, r)
		return DecisionRedirectSignIn
	}
	upd, err := g.renew(w, r, tok)
	if err != nil {
		g.logger.InfoContext(ctx, "session renewal failed", "error", err)
		g.redirectToSignIn(w, r)
		return DecisionRedirectSignIn
	}
	next.ServeHTTP(w, RewriteCookies(r, upd.SetCookies))
	return DecisionRenewed
}

// injectCSRF fetches a fresh pair and forwards it to the browser.
func (g *Guard) injectCSRF(w http.ResponseWriter, r *http.Request) (domainauth.CsrfToken, error) {
	tok, err := g.backend.CSRFToken(r.Context(), ports.Forward{})
	metrics.Emit(g.metrics, metrics.AuthMetric{Name: metrics.CSRFFetch, Result: resultOf(err), Err: err})
	if err != nil {
		return domainauth.CsrfToken{}, err
	}
	csrf.Inject(w, tok)
	return tok, nil
}

// renew exchanges the session cookie for a new identity using the pair just injected,
// forwarding the rotated cookies verbatim.
func (g *Guard) renew(w http.ResponseWriter, r *http.Request, tok domainauth.CsrfToken) (ports.SessionUpdate, error) {
	session, err := identity.SessionCookie(r)
	if err != nil {
		return ports.SessionUpdate{}, err
	}
	fwd := ports.Forward{
		Cookies: []*http.Cookie{
			{Name: domainauth.CSRFCookie, Value: tok.CookieValue},
			{Name: domainauth.SessionCookie, Value: session},
		},
		CSRFToken: tok.HeaderValue,
	}
	upd, err := g.renewer.Renew(r.Context(), session, func(ctx context.Context) (ports.SessionUpdate, error) {
		return g.backend.RenewToken(ctx, fwd)
	})
	if err != nil {
		return ports.SessionUpdate{}, err
	}
	csrf.ForwardSetCookies(w.Header(), upd.SetCookies)
	return upd, nil
}

func (g *Guard) redirectToSignIn(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, SignInURL(g.signIn, r.URL), http.StatusFound)
}

// SignInURL builds the sign-in location that returns to the original path and query.
func SignInURL(signInPath string, original *url.URL) string {
	target := original.Path
	if original.RawQuery != "" {
		target += "?" + original.RawQuery
	}
	u := url.URL{Path: signInPath, RawQuery: url.Values{"redirectTo": {target}}.Encode()}
	return u.String()
}

// SafeRedirect returns candidate when it is a same-origin relative path, otherwise fallback.
func SafeRedirect(candidate, fallback string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, `/\`) {
		return fallback
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	return candidate
}

// RewriteCookies returns a copy of r whose Cookie header reflects the Set-Cookie lines,
// so handlers after a renewal see the rotated identity.
func RewriteCookies(r *http.Request, setCookies []string) *http.Request {
	if len(setCookies) == 0 {
		return r
	}
	updated := map[string]*http.Cookie{}
	for _, line := range setCookies {
		c, err := http.ParseSetCookie(line)
		if err != nil {
			continue
		}
		updated[c.Name] = c
	}

	var kept []string
	for _, c := range r.Cookies() {
		if _, ok := updated[c.Name]; ok {
			continue
		}
		kept = append(kept, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}
	for _, c := range updated {
		if c.MaxAge < 0 || c.Value == "" {
			continue
		}
		kept = append(kept, (&http.Cookie{Name: c.Name, Value: c.Value}).String())
	}

	out := r.Clone(r.Context())
	out.Header.Del("Cookie")
	if len(kept) > 0 {
		out.Header.Set("Cookie", strings.Join(kept, "; "))
	}
	return out
}

func canRenew(r *http.Request) bool {
	_, err := identity.SessionCookie(r)
	return err == nil
}

var staticPrefixes = []string{"/static/", "/_next/", "/favicon.ico"}

func isStatic(p string) bool {
	for _, prefix := range staticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return path.Ext(p) != ""
}

func isPrefetch(r *http.Request) bool {
	h := r.Header
	return h.Get("Next-Router-Prefetch") != "" ||
		h.Get("Next-Action") != "" ||
		isPrefetchPurpose(h.Get("Purpose")) ||
		isPrefetchPurpose(h.Get("Sec-Purpose"))
}

// isPrefetchPurpose matches the leading item of a purpose header, so "prefetch;prerender" counts.
func isPrefetchPurpose(v string) bool {
	item, _, _ := strings.Cut(v, ";")
	return strings.EqualFold(strings.TrimSpace(item), "prefetch")
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
