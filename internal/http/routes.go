package httpx

import (
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"regexp"

	momoino "github.com/target/momoino-ui"
	"github.com/target/momoino-ui/internal/guard"
)

// Asset locations on disk, used in dev mode.
const (
	TemplatePathFromRoot = "frontend/templates"
	StaticPathFromRoot   = "frontend/static"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth  *AuthHandlers
	Guard *guard.Guard
	CSRF  CSRFConfig
	// Health dependencies checked by /healthz (optional).
	Health []Pinger
	// Static serves /static/; defaults to StaticFS(IsDev).
	Static      fs.FS
	Compression *CompressionConfig
	IsDev       bool
	Logger      *slog.Logger
}

// NewRouter creates the BFF router: auth endpoints, the guarded console and static assets.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if services.CSRF.Logger == nil {
		services.CSRF.Logger = logger
	}
	mux := http.NewServeMux()

	health := healthHandler(services.Health...)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	static := services.Static
	if static == nil {
		static = StaticFS(services.IsDev, logger)
	}
	mux.Handle("GET /static/", staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	registerAuthRoutes(mux, services.Auth, RequireCSRF(services.CSRF))

	mux.Handle("GET /{$}", http.RedirectHandler("/admin/", http.StatusFound))
	mux.Handle("GET /admin", http.RedirectHandler("/admin/", http.StatusMovedPermanently))
	mux.HandleFunc("GET /admin/{$}", services.Auth.Admin)

	mws := []func(http.Handler) http.Handler{Recover(logger), Logging(logger)}
	if services.Compression != nil {
		mws = append(mws, Compression(*services.Compression))
	}
	if services.Guard != nil {
		mws = append(mws, services.Guard.Middleware)
	}
	return Chain(mux, mws...)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, protect func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /auth/signin", h.SignInPage)
	mux.Handle("POST /auth/signin", protect(http.HandlerFunc(h.SignIn)))
	mux.HandleFunc("GET /auth/oauth2/{provider}/start", h.StartOAuth)
	mux.HandleFunc("GET /auth/callback", h.OAuthCallback)
	mux.Handle("POST /auth/oauth2/result", protect(http.HandlerFunc(h.OAuthResult)))
	mux.Handle("POST /auth/token/renew", protect(http.HandlerFunc(h.RenewToken)))
	mux.HandleFunc("GET /auth/profile", h.Profile)
	mux.Handle("POST /auth/logout", protect(http.HandlerFunc(h.Logout)))
}

// StaticFS returns the static asset tree: disk in dev mode, the embedded copy otherwise.
func StaticFS(isDev bool, logger *slog.Logger) fs.FS {
	if isDev {
		return os.DirFS(StaticPathFromRoot)
	}
	sub, err := fs.Sub(momoino.StaticFS, StaticPathFromRoot)
	if err != nil {
		logger.Error("failed to create sub-filesystem for static assets; falling back to disk", "error", err)
		return os.DirFS(StaticPathFromRoot)
	}
	return sub
}

// TemplateFS returns the template tree: disk in dev mode, the embedded copy otherwise.
func TemplateFS(isDev bool, logger *slog.Logger) fs.FS {
	if isDev {
		return os.DirFS(TemplatePathFromRoot)
	}
	sub, err := fs.Sub(momoino.TemplateFS, TemplatePathFromRoot)
	if err != nil {
		logger.Error("failed to create sub-filesystem for templates; falling back to disk", "error", err)
		return os.DirFS(TemplatePathFromRoot)
	}
	return sub
}

var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches content-hashed assets for a year and revalidates the rest.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache")
		}
		handler.ServeHTTP(w, r)
	})
}
