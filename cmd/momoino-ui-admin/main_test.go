package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/momoino-ui/config"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/testutil"
)

func writeEnvelope(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": msg, "data": data, "requestId": "req-1"})
}

func backendServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/csrf-token", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: domainauth.CSRFCookie, Value: "secret", Path: "/"})
		w.Header().Set(domainauth.CSRFHeader, "masked-1")
		writeEnvelope(w, http.StatusOK, "ok", nil)
	})
	mux.HandleFunc("POST /api/v1/authentication/session", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: domainauth.LoginSessionCookie, Value: "login-session", Path: "/"})
		writeEnvelope(w, http.StatusCreated, "created", nil)
	})
	mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var creds domainauth.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != "hunter2" {
			writeEnvelope(w, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		claims := testutil.IdentityClaims("sid-1")
		http.SetCookie(w, &http.Cookie{Name: domainauth.IdentityCookie, Value: testutil.IdentityToken(t, claims), Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: domainauth.SessionCookie, Value: "sid-1", Path: "/"})
		writeEnvelope(w, http.StatusOK, "ok", domainauth.TokenPair{AccessToken: "a", RefreshToken: "r"})
	})
	mux.HandleFunc("GET /api/v1/providers", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(domainauth.SessionCookie); err != nil {
			writeEnvelope(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", []domainauth.ProviderRecord{
			{ID: "p-1", Name: "google", IsEnabled: true, CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), CreatedBy: "admin"},
		})
	})
	mux.HandleFunc("GET /api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(domainauth.SessionCookie); err != nil {
			writeEnvelope(w, http.StatusUnauthorized, "Unauthorized", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "ok", domainauth.Profile{
			ID: "user-123", Username: "jdoe", FirstName: "Jane", LastName: "Backend",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newCommandContext(t *testing.T, backendURL string) (*commandContext, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	var cfg config.AppConfig
	cfg.Backend.URL = backendURL
	cfg.HTTP.PublicURL = "http://console.invalid"
	cfg.Sanitize()
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: cfg,
		Out:    out,
	}, out
}

func TestCommandsAreRegisteredUnderTheirNames(t *testing.T) {
	for name, cmd := range commands() {
		assert.Equal(t, name, cmd.name)
		assert.NotEmpty(t, cmd.description)
		assert.NotNil(t, cmd.run)
	}
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	assert.Contains(t, buf.String(), "signin-url")
	assert.Less(t, strings.Index(buf.String(), "csrf-token"), strings.Index(buf.String(), "whoami"))
}

func TestParseCredentialFlags(t *testing.T) {
	_, err := parseCredentialFlags("login", []string{"-login", "jdoe"})
	require.Error(t, err)

	t.Setenv(passwordEnv, "hunter2")
	opts, err := parseCredentialFlags("login", []string{"-login", "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.Credentials{Email: "jane@example.com", Password: "hunter2"}, opts.credentials())

	opts, err = parseCredentialFlags("login", []string{"-login", "jdoe", "-password", "pw"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.Credentials{Username: "jdoe", Password: "pw"}, opts.credentials())
}

func TestRunLogin_PrintsProfile(t *testing.T) {
	cmdCtx, out := newCommandContext(t, backendServer(t).URL)

	require.NoError(t, runLogin(cmdCtx, []string{"-login", "jdoe", "-password", "hunter2"}))

	var profile domainauth.Profile
	require.NoError(t, json.Unmarshal(out.Bytes(), &profile))
	assert.Equal(t, "sid-1", profile.SessionID)
}

func TestRunLogin_BadCredentials(t *testing.T) {
	cmdCtx, _ := newCommandContext(t, backendServer(t).URL)
	assert.Error(t, runLogin(cmdCtx, []string{"-login", "jdoe", "-password", "wrong"}))
}

func TestRunWhoami(t *testing.T) {
	cmdCtx, out := newCommandContext(t, backendServer(t).URL)

	require.NoError(t, runWhoami(cmdCtx, []string{"-login", "jdoe", "-password", "hunter2"}))

	assert.Contains(t, out.String(), "Session bound:")
	assert.Contains(t, out.String(), "true")
	assert.Contains(t, out.String(), "Jane Backend", "profile confirmed by the backend")
	assert.Contains(t, out.String(), "admin", "roles fall back to identity claims")
}

func TestRunProviders(t *testing.T) {
	cmdCtx, out := newCommandContext(t, backendServer(t).URL)

	require.NoError(t, runProviders(cmdCtx, []string{"-login", "jdoe", "-password", "hunter2"}))

	assert.Contains(t, out.String(), "google")
	assert.Contains(t, out.String(), "2024-03-01T00:00:00Z")
}

func TestRunCSRFToken(t *testing.T) {
	cmdCtx, out := newCommandContext(t, backendServer(t).URL)

	require.NoError(t, runCSRFToken(cmdCtx, nil))

	assert.Contains(t, out.String(), "masked-1")
	assert.Contains(t, out.String(), "true")
}

func TestPrintProviders_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printProviders(&buf, nil))
	assert.Equal(t, "(no providers configured)\n", buf.String())
}

func consoleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/oauth2/{provider}/start", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("provider") != "google" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "https://api.example.com/api/v1/login/providers/google?state=s&codeChallenge=c", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunSignInURL_OpensStartURL(t *testing.T) {
	console := consoleServer(t)
	cmdCtx, out := newCommandContext(t, "http://backend.invalid")
	var opened string
	cmdCtx.Open = func(u string) error { opened = u; return nil }

	require.NoError(t, runSignInURL(cmdCtx, []string{"-console", console.URL, "-provider", "Google"}))

	assert.Equal(t, console.URL+"/auth/oauth2/google/start", opened)
	assert.Contains(t, out.String(), "https://api.example.com/api/v1/login/providers/google")
	assert.NotContains(t, out.String(), "state=s")
}

func TestRunSignInURL_NoOpenAndUnknownProvider(t *testing.T) {
	console := consoleServer(t)
	cmdCtx, _ := newCommandContext(t, "http://backend.invalid")
	cmdCtx.Open = func(string) error { t.Fatal("browser must not open"); return nil }

	require.NoError(t, runSignInURL(cmdCtx, []string{"-console", console.URL, "-provider", "google", "-no-open"}))

	err := runSignInURL(cmdCtx, []string{"-console", console.URL, "-provider", "okta"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestParseSignInURLFlags(t *testing.T) {
	_, err := parseSignInURLFlags(nil, "http://localhost:8080")
	require.Error(t, err)

	opts, err := parseSignInURLFlags([]string{"-provider", " GitHub "}, "http://localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, "github", opts.Provider)
	assert.Equal(t, "http://localhost:8080", opts.ConsoleURL)

	_, err = popupStartURL("localhost:8080", "github")
	assert.Error(t, err)
}
