package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

// CookieOptions carries the attributes shared by cookies the BFF writes itself.
type CookieOptions struct {
	Domain string
}

// isForwardedHTTPS checks if the request was forwarded over HTTPS.
// Handles comma-separated values in X-Forwarded-Proto header.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || isForwardedHTTPS(r)
}

// attemptScope returns the browser's login-attempt scope, issuing a new one when absent.
func (o CookieOptions) attemptScope(w http.ResponseWriter, r *http.Request) string {
	if ck, err := r.Cookie(domainauth.AttemptCookie); err == nil {
		if _, perr := uuid.Parse(ck.Value); perr == nil {
			return ck.Value
		}
	}
	scope := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     domainauth.AttemptCookie,
		Value:    scope,
		Path:     "/",
		Domain:   o.Domain,
		HttpOnly: true,
		Secure:   isSecure(r),
		SameSite: http.SameSiteLaxMode,
	})
	return scope
}

// existingScope returns the scope cookie without issuing one.
func existingScope(r *http.Request) (string, bool) {
	ck, err := r.Cookie(domainauth.AttemptCookie)
	if err != nil {
		return "", false
	}
	if _, perr := uuid.Parse(ck.Value); perr != nil {
		return "", false
	}
	return ck.Value, true
}

// clearCookie clears a cookie by setting it to expire immediately.
// It mirrors key attributes (Secure, Path, Domain, SameSite) used when setting cookies
// to maximize compatibility across browsers during deletion.
func (o CookieOptions) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   o.Domain,
		HttpOnly: true,
		Secure:   isSecure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// forwardCookies returns the backend-owned cookies of r for a forwarded call.
func forwardCookies(r *http.Request) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range r.Cookies() {
		switch c.Name {
		case domainauth.IdentityCookie, domainauth.SessionCookie,
			domainauth.CSRFCookie, domainauth.LoginSessionCookie:
			out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return out
}
