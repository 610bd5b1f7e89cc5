package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/momoino-ui/internal/csrf"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	apperrors "github.com/target/momoino-ui/internal/errors"
	"github.com/target/momoino-ui/internal/guard"
	"github.com/target/momoino-ui/internal/identity"
	"github.com/target/momoino-ui/internal/oauthpopup"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
	"github.com/target/momoino-ui/internal/renewal"
)

const maxMessageBody = 16 << 10

var errLoginRequired = &apperrors.AppError{Code: apperrors.ErrCodeValidation, Message: "login and password are required"}

// AuthHandlers provides HTTP handlers for the sign-in, popup and session endpoints.
type AuthHandlers struct {
	Backend   ports.Backend
	Decoder   *identity.Decoder
	Initiator *oauthpopup.Initiator
	Callback  *oauthpopup.Callback
	Listener  *oauthpopup.Listener
	Reporter  oauthpopup.Reporter
	Renewer   *renewal.Renewer
	Store     ports.AttemptStore
	Renderer  *TemplateRenderer
	Cookies   CookieOptions

	SignInPath      string
	HomePath        string
	RenewalInterval time.Duration
	Metrics         statsd.Sink
	Logger          *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) home() string {
	if h.HomePath != "" {
		return h.HomePath
	}
	return guard.DefaultHomePath
}

func (h *AuthHandlers) signIn() string {
	if h.SignInPath != "" {
		return h.SignInPath
	}
	return guard.DefaultSignInPath
}

func (h *AuthHandlers) signInPage(r *http.Request, notice, login string) PageData {
	token, _ := guard.CSRFTokenFromContext(r.Context())
	if token == "" {
		token = r.Header.Get(domainauth.CSRFHeader)
	}
	return PageData{
		Title:      "Sign in",
		CSRFToken:  token,
		Notice:     notice,
		Providers:  h.Initiator.Providers(),
		RedirectTo: guard.SafeRedirect(r.FormValue("redirectTo"), ""),
		Login:      login,
	}
}

// SignInPage renders the sign-in page.
// GET /auth/signin?redirectTo=<optional_path>.
func (h *AuthHandlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	if err := h.Renderer.Render(w, http.StatusOK, PageSignIn, h.signInPage(r, "", "")); err != nil {
		h.Renderer.RenderError(w, http.StatusInternalServerError, "Unable to render the sign-in page.")
	}
}

// SignIn performs a credential login: it opens a login session, submits the credentials and
// forwards every cookie the backend sets.
// POST /auth/signin.
func (h *AuthHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	login := strings.TrimSpace(r.PostFormValue("login"))
	creds := domainauth.Credentials{Password: r.PostFormValue("password")}
	if strings.Contains(login, "@") {
		creds.Email = login
	} else {
		creds.Username = login
	}

	start := time.Now()
	err := h.credentialLogin(ctx, w, r, creds)
	metrics.Emit(h.Metrics, metrics.AuthMetric{
		Name:     metrics.CredentialsLogin,
		Result:   resultOf(err),
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		h.logger().InfoContext(ctx, "credential login failed", "error", err)
		notice := apperrors.UserMessage(err, domainauth.AuthenticationFailedMessage)
		status := http.StatusUnauthorized
		if !apperrors.IsUnauthorized(err) && apperrors.GetCode(err) != apperrors.ErrCodeValidation {
			status = http.StatusBadGateway
		}
		if rerr := h.Renderer.Render(w, status, PageSignIn, h.signInPage(r, notice, login)); rerr != nil {
			h.Renderer.RenderError(w, status, notice)
		}
		return
	}
	http.Redirect(w, r, guard.SafeRedirect(r.PostFormValue("redirectTo"), h.home()), http.StatusSeeOther)
}

func (h *AuthHandlers) credentialLogin(ctx context.Context, w http.ResponseWriter, r *http.Request, creds domainauth.Credentials) error {
	if creds.Password == "" || (creds.Username == "" && creds.Email == "") {
		return errLoginRequired
	}
	token := r.Header.Get(domainauth.CSRFHeader)

	session, err := h.Backend.CreateLoginSession(ctx, ports.Forward{Cookies: forwardCookies(r), CSRFToken: token})
	if err != nil {
		return err
	}
	csrf.ForwardSetCookies(w.Header(), session.SetCookies)

	withSession := guard.RewriteCookies(r, session.SetCookies)
	upd, err := h.Backend.Login(ctx, ports.Forward{Cookies: forwardCookies(withSession), CSRFToken: token}, creds)
	if err != nil {
		return err
	}
	csrf.ForwardSetCookies(w.Header(), upd.SetCookies)
	return nil
}

// StartOAuth begins a popup login attempt and sends the popup to the provider.
// GET /auth/oauth2/{provider}/start.
func (h *AuthHandlers) StartOAuth(w http.ResponseWriter, r *http.Request) {
	scope := h.Cookies.attemptScope(w, r)
	popupURL, err := h.Initiator.StartLogin(r.Context(), scope, r.PathValue("provider"))
	if err != nil {
		h.logger().WarnContext(r.Context(), "start popup login failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, domainauth.ErrUnknownProvider) {
			status = http.StatusNotFound
		}
		h.Renderer.RenderError(w, status, domainauth.AuthenticationFailedMessage)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, popupURL, http.StatusFound)
}

// OAuthCallback completes the popup attempt and renders the page that reports to the opener.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var msg domainauth.AuthenticationMessage
	if scope, ok := existingScope(r); ok {
		done := h.Callback.Complete(ctx, scope, ports.Forward{Cookies: forwardCookies(r)}, r.URL.Query())
		csrf.ForwardSetCookies(w.Header(), done.SetCookies)
		msg = done.Message
	} else {
		msg = domainauth.ErrorMessage(domainauth.ErrInvalidState)
	}
	if err := h.Reporter.Render(w, msg); err != nil {
		h.logger().ErrorContext(ctx, "render popup callback failed", "error", err)
	}
}

// OAuthResult relays a message posted by the popup to the listener and tells the page what to do.
// POST /auth/oauth2/result.
func (h *AuthHandlers) OAuthResult(w http.ResponseWriter, r *http.Request) {
	scope, ok := existingScope(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageBody))
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_body", Err: err})
		return
	}

	switch h.Listener.Handle(r.Context(), scope, raw) {
	case oauthpopup.OutcomeReload:
		WriteJSON(w, http.StatusOK, map[string]string{"action": "reload"})
	case oauthpopup.OutcomeNotify:
		WriteJSON(w, http.StatusOK, map[string]string{
			"action":  "notify",
			"message": domainauth.AuthenticationFailedMessage,
		})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// RenewToken renews the session with a fresh CSRF pair and returns the refreshed profile.
// Concurrent renewals of the same session share one backend call.
// POST /auth/token/renew.
func (h *AuthHandlers) RenewToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := identity.SessionCookie(r)
	if err != nil {
		h.writeExpired(w)
		return
	}

	tok, err := h.Backend.CSRFToken(ctx, ports.Forward{})
	if err != nil {
		h.logger().WarnContext(ctx, "csrf fetch before renewal failed", "error", err)
		WriteAppError(w, err, domainauth.ErrCannotGetCSRF.Error())
		return
	}
	fwd := ports.Forward{
		Cookies:   []*http.Cookie{csrf.Cookie(tok), {Name: domainauth.SessionCookie, Value: session}},
		CSRFToken: tok.HeaderValue,
	}
	upd, err := h.Renewer.Renew(ctx, session, func(ctx context.Context) (ports.SessionUpdate, error) {
		return h.Backend.RenewToken(ctx, fwd)
	})
	if err != nil {
		h.logger().InfoContext(ctx, "session renewal failed", "error", err)
		h.writeExpired(w)
		return
	}

	csrf.Inject(w, tok)
	csrf.ForwardSetCookies(w.Header(), upd.SetCookies)
	profile, err := h.Decoder.ProfileFromRequest(guard.RewriteCookies(r, upd.SetCookies))
	if err != nil {
		h.logger().WarnContext(ctx, "renewed identity unreadable", "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

func (h *AuthHandlers) writeExpired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: string(apperrors.ErrCodeUnauthorized),
		Err:     domainauth.ErrSessionExpired,
	})
}

// Profile returns the profile projection of the identity cookie.
// GET /auth/profile.
func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Decoder.ProfileFromRequest(r)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: string(apperrors.ErrCodeUnauthorized),
			Err:     err,
		})
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// Logout drops the session cookies locally and forgets any pending login attempt.
// The backend keeps no logout endpoint, so the session simply stops being presented.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{domainauth.IdentityCookie, domainauth.SessionCookie, domainauth.LoginSessionCookie} {
		h.Cookies.clearCookie(w, r, name)
	}
	if scope, ok := existingScope(r); ok {
		if err := h.Store.Clear(r.Context(), scope); err != nil {
			h.logger().WarnContext(r.Context(), "clear login attempt on logout failed", "error", err)
		}
		h.Cookies.clearCookie(w, r, domainauth.AttemptCookie)
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": h.signIn()})
		return
	}
	http.Redirect(w, r, h.signIn(), http.StatusSeeOther)
}

// Admin renders the protected landing page. The guard has already validated or renewed the session.
// GET /admin/.
func (h *AuthHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Decoder.ProfileFromRequest(r)
	if err != nil {
		http.Redirect(w, r, guard.SignInURL(h.signIn(), r.URL), http.StatusFound)
		return
	}
	token, _ := guard.CSRFTokenFromContext(r.Context())
	interval := h.RenewalInterval
	if interval <= 0 {
		interval = renewal.DefaultInterval
	}
	data := PageData{
		Title:          "Console",
		CSRFToken:      token,
		Profile:        profile,
		RenewalSeconds: int(interval / time.Second),
	}
	if err := h.Renderer.Render(w, http.StatusOK, PageAdmin, data); err != nil {
		h.Renderer.RenderError(w, http.StatusInternalServerError, "Unable to render the console.")
	}
}

func resultOf(err error) string {
	if err != nil {
		return metrics.ResultError
	}
	return metrics.ResultSuccess
}
