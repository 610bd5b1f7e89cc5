package httpx

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLogging_RecordsStatusWithoutQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/auth/callback?code=secret", nil))

	out := buf.String()
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/auth/callback")
	assert.NotContains(t, out, "secret")
}

func TestRecover_Returns500(t *testing.T) {
	h := Recover(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()

	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChain_FirstIsOutermost(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestAcceptsGzip(t *testing.T) {
	tests := map[string]bool{
		"":                   false,
		"gzip":               true,
		"br, gzip;q=0.8":     true,
		"GZIP":               true,
		"gzip;q=0":           false,
		"gzip; q=0.0":        false,
		"x-gzip":             false,
		"deflate, identity":  false,
		"gzip;q=0.5, br;q=1": true,
	}
	for header, want := range tests {
		assert.Equal(t, want, acceptsGzip(header), header)
	}
}

func TestCompression_CompressesJSON(t *testing.T) {
	payload := strings.Repeat(`{"status":"ok"}`, 50)
	h := Compression(CompressionConfig{Logger: discardLogger()})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Contains(t, w.Header().Values("Vary"), "Accept-Encoding")
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
}

func TestCompression_SkipsNoContentAndBinary(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"no content": func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) },
		"png": func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
		},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			w := httptest.NewRecorder()
			Compression(CompressionConfig{})(handler).ServeHTTP(w, req)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
		})
	}
}

func csrfGate(t *testing.T, cfg CSRFConfig) (http.Handler, *string) {
	t.Helper()
	seen := new(string)
	cfg.Logger = discardLogger()
	return RequireCSRF(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = r.Header.Get(domainauth.CSRFHeader)
		w.WriteHeader(http.StatusOK)
	})), seen
}

func TestRequireCSRF(t *testing.T) {
	csrfCookie := &http.Cookie{Name: domainauth.CSRFCookie, Value: "csrf-cookie"}
	tests := []struct {
		name   string
		build  func() *http.Request
		status int
		header string
	}{
		{
			name:   "safe method passes",
			build:  func() *http.Request { return httptest.NewRequest(http.MethodGet, "/auth/signin", nil) },
			status: http.StatusOK,
		},
		{
			name: "header and cookie pass",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/auth/token/renew", nil)
				r.Header.Set(domainauth.CSRFHeader, "masked")
				r.AddCookie(csrfCookie)
				return r
			},
			status: http.StatusOK,
			header: "masked",
		},
		{
			name: "missing cookie rejected",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/auth/token/renew", nil)
				r.Header.Set(domainauth.CSRFHeader, "masked")
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "missing token rejected",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
				r.AddCookie(csrfCookie)
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "form field promoted to header",
			build: func() *http.Request {
				form := url.Values{"csrf_token": {"from-form"}, "login": {"jdoe"}}
				r := httptest.NewRequest(http.MethodPost, "/auth/signin", strings.NewReader(form.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				r.AddCookie(csrfCookie)
				return r
			},
			status: http.StatusOK,
			header: "from-form",
		},
		{
			name: "cross origin rejected",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "http://console.example.com/auth/logout", nil)
				r.Header.Set("Origin", "https://evil.example")
				r.Header.Set(domainauth.CSRFHeader, "masked")
				r.AddCookie(csrfCookie)
				return r
			},
			status: http.StatusForbidden,
		},
		{
			name: "same host origin accepted",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "http://console.example.com/auth/logout", nil)
				r.Header.Set("Origin", "http://console.example.com")
				r.Header.Set(domainauth.CSRFHeader, "masked")
				r.AddCookie(csrfCookie)
				return r
			},
			status: http.StatusOK,
			header: "masked",
		},
		{
			name: "public origin accepted behind a proxy",
			build: func() *http.Request {
				r := httptest.NewRequest(http.MethodPost, "http://10.0.0.5:8080/auth/logout", nil)
				r.Header.Set("Origin", "https://console.example.com")
				r.Header.Set(domainauth.CSRFHeader, "masked")
				r.AddCookie(csrfCookie)
				return r
			},
			status: http.StatusOK,
			header: "masked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, seen := csrfGate(t, CSRFConfig{PublicURL: "https://console.example.com"})
			w := httptest.NewRecorder()
			h.ServeHTTP(w, tt.build())
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.header, *seen)
			} else {
				assert.Contains(t, w.Body.String(), "csrf_failed")
			}
		})
	}
}

func TestIsForwardedHTTPS(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, isForwardedHTTPS(r))
	r.Header.Set("X-Forwarded-Proto", "http, HTTPS")
	assert.True(t, isForwardedHTTPS(r))
}
