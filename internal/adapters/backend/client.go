// Package backend is the HTTP client for the console identity API.
//
// Every call forwards the caller's cookies and CSRF header from ports.Forward, decodes the
// standard response envelope, and returns the raw Set-Cookie lines so the caller can forward
// them unchanged.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/momoino-ui/internal/csrf"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	apperrors "github.com/target/momoino-ui/internal/errors"
	"github.com/target/momoino-ui/internal/ports"
)

// Paths relative to the backend base URL.
const (
	PathCSRFToken    = "api/v1/csrf-token"
	PathRenewToken   = "api/v1/token/renew"
	PathLoginSession = "api/v1/authentication/session"
	PathLogin        = "api/v1/login"
	PathProfile      = "api/v1/profile"
	PathProviders    = "api/v1/providers"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Client calls the backend API.
type Client struct {
	base   *url.URL
	client *http.Client
	logger *slog.Logger
}

var _ ports.Backend = (*Client)(nil)

// Envelope is the response body shape shared by every backend endpoint.
type Envelope struct {
	Message    string          `json:"message"`
	MessageID  string          `json:"messageId"`
	Timestamp  string          `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
	RequestID  string          `json:"requestId"`
}

// New builds a Client. BaseURL must be absolute.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("backend base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend base url must be absolute: %q", raw)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{base: base, client: hc, logger: logger.With("component", "backend")}, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// CSRFToken fetches a fresh CSRF pair. Both the header and the cookie must be present.
func (c *Client) CSRFToken(ctx context.Context, fwd ports.Forward) (domainauth.CsrfToken, error) {
	res, err := c.do(ctx, http.MethodGet, PathCSRFToken, fwd, nil)
	if err != nil {
		return domainauth.CsrfToken{}, fmt.Errorf("%w: %w", domainauth.ErrCannotGetCSRF, err)
	}
	tok, err := csrf.FromResponse(res.header)
	if err != nil {
		return domainauth.CsrfToken{}, fmt.Errorf("%w: %w", domainauth.ErrCannotGetCSRF, err)
	}
	return tok, nil
}

// RenewToken rotates the identity and session cookies.
func (c *Client) RenewToken(ctx context.Context, fwd ports.Forward) (ports.SessionUpdate, error) {
	return c.sessionCall(ctx, http.MethodPost, PathRenewToken, fwd, nil)
}

// ExchangeCode calls a provider callback URL relative to the base URL.
func (c *Client) ExchangeCode(ctx context.Context, fwd ports.Forward, callbackURL string) (ports.SessionUpdate, error) {
	if strings.TrimSpace(callbackURL) == "" {
		return ports.SessionUpdate{}, errors.New("callback url is required")
	}
	return c.sessionCall(ctx, http.MethodGet, callbackURL, fwd, nil)
}

// CreateLoginSession obtains the login-session cookie required before a credential login.
func (c *Client) CreateLoginSession(ctx context.Context, fwd ports.Forward) (ports.SessionUpdate, error) {
	return c.sessionCall(ctx, http.MethodPost, PathLoginSession, fwd, nil)
}

// Login submits credentials.
func (c *Client) Login(ctx context.Context, fwd ports.Forward, creds domainauth.Credentials) (ports.SessionUpdate, error) {
	if creds.Password == "" || (creds.Username == "" && creds.Email == "") {
		return ports.SessionUpdate{}, &apperrors.AppError{
			Code:    apperrors.ErrCodeValidation,
			Message: "username or email and password are required",
		}
	}
	return c.sessionCall(ctx, http.MethodPost, PathLogin, fwd, creds)
}

// Profile reads the profile of the forwarded session.
func (c *Client) Profile(ctx context.Context, fwd ports.Forward) (domainauth.Profile, error) {
	res, err := c.do(ctx, http.MethodGet, PathProfile, fwd, nil)
	if err != nil {
		return domainauth.Profile{}, err
	}
	var p domainauth.Profile
	if err := decodeData(res.envelope, &p); err != nil {
		return domainauth.Profile{}, err
	}
	return p, nil
}

// Providers lists the OAuth2 providers configured on the backend.
func (c *Client) Providers(ctx context.Context, fwd ports.Forward) ([]domainauth.ProviderRecord, error) {
	res, err := c.do(ctx, http.MethodGet, PathProviders, fwd, nil)
	if err != nil {
		return nil, err
	}
	out := []domainauth.ProviderRecord{}
	if err := decodeData(res.envelope, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) sessionCall(ctx context.Context, method, path string, fwd ports.Forward, body any) (ports.SessionUpdate, error) {
	res, err := c.do(ctx, method, path, fwd, body)
	if err != nil {
		return ports.SessionUpdate{}, err
	}
	update := ports.SessionUpdate{SetCookies: res.header.Values("Set-Cookie")}
	if len(res.envelope.Data) > 0 {
		// Only login and renewal return tokens; other calls carry no data.
		if err := json.Unmarshal(res.envelope.Data, &update.Tokens); err != nil {
			c.logger.DebugContext(ctx, "backend session data is not a token pair",
				"method", method, "path", path, "error", err)
		}
	}
	return update, nil
}

type result struct {
	status   int
	header   http.Header
	envelope Envelope
}

func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return nil, fmt.Errorf("backend path must be relative: %q", path)
	}
	return c.base.ResolveReference(ref), nil
}

func (c *Client) do(ctx context.Context, method, path string, fwd ports.Forward, body any) (result, error) {
	target, err := c.resolve(path)
	if err != nil {
		return result{}, err
	}

	var reader io.Reader
	if body != nil {
		payload, mErr := json.Marshal(body)
		if mErr != nil {
			return result{}, fmt.Errorf("encode request body: %w", mErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return result{}, fmt.Errorf("create backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range fwd.Cookies {
		if ck != nil {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	if fwd.CSRFToken != "" {
		req.Header.Set(domainauth.CSRFHeader, fwd.CSRFToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result{}, apperrors.Wrap(ctxErr, apperrors.ErrCodeCanceled, "backend request canceled")
		}
		return result{}, apperrors.Unavailable(err, "backend unavailable")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Debug("close backend response body", "error", cerr)
		}
	}()

	res := result{status: resp.StatusCode, header: resp.Header}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return result{}, apperrors.Unavailable(err, "read backend response")
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &res.envelope); err != nil {
			c.logger.Debug("backend response is not an envelope",
				"method", method, "path", target.Path, "status", resp.StatusCode)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := apperrors.FromStatus(resp.StatusCode, res.envelope.Message)
		appErr.RequestID = res.envelope.RequestID
		c.logger.Debug("backend request failed",
			"method", method,
			"path", target.Path,
			"status", resp.StatusCode,
			"request_id", res.envelope.RequestID)
		return res, appErr
	}
	return res, nil
}

func decodeData(env Envelope, dst any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("decode backend data: %w", err)
	}
	return nil
}
