package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/momoino-ui/internal/csrf"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

// DefaultCSRFFormField is the form field carrying the token on plain form posts.
const DefaultCSRFFormField = "csrf_token"

var errCrossOrigin = errors.New("cross-origin request rejected")

// CSRFConfig holds configuration for the CSRF gate.
type CSRFConfig struct {
	// FormField is the form field checked when the header is absent (default: "csrf_token").
	FormField string
	// PublicURL, when set, is the only origin accepted besides the request host.
	PublicURL string
	Logger    *slog.Logger
}

// RequireCSRF rejects unsafe requests that do not carry the backend CSRF pair.
//
// The pair is issued by the backend, which is also the only party able to verify it; the gate
// checks that both halves are present and that a sent Origin is ours. A token submitted as a
// form field is copied into the X-Csrf-Token header so handlers read it one way.
func RequireCSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	field := cfg.FormField
	if field == "" {
		field = DefaultCSRFFormField
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var publicOrigin string
	if u, err := url.Parse(cfg.PublicURL); err == nil && u.Host != "" {
		publicOrigin = u.Scheme + "://" + u.Host
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !csrf.RequiresToken(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if err := checkOrigin(r, publicOrigin); err != nil {
				logger.WarnContext(r.Context(), "csrf check failed", "path", r.URL.Path, "error", err)
				writeCSRFError(w, err)
				return
			}
			promoteFormToken(r, field)
			if _, err := csrf.FromRequest(r); err != nil {
				logger.WarnContext(r.Context(), "csrf check failed", "path", r.URL.Path, "error", err)
				writeCSRFError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeCSRFError(w http.ResponseWriter, err error) {
	WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "csrf_failed", Err: err})
}

// promoteFormToken copies the form token into the header when only the form carries it.
func promoteFormToken(r *http.Request, field string) {
	if strings.TrimSpace(r.Header.Get(domainauth.CSRFHeader)) != "" {
		return
	}
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") && !strings.HasPrefix(ct, "multipart/form-data") {
		return
	}
	if err := r.ParseForm(); err != nil {
		return
	}
	if tok := strings.TrimSpace(r.PostFormValue(field)); tok != "" {
		r.Header.Set(domainauth.CSRFHeader, tok)
	}
}

// checkOrigin accepts requests without an Origin header, same-host origins and publicOrigin.
func checkOrigin(r *http.Request, publicOrigin string) error {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return nil
	}
	if publicOrigin != "" && strings.EqualFold(origin, publicOrigin) {
		return nil
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return errCrossOrigin
	}
	if strings.EqualFold(u.Host, r.Host) {
		return nil
	}
	return errCrossOrigin
}
