package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/target/momoino-ui/config"
	httpx "github.com/target/momoino-ui/internal/http"
)

const shutdownWaitTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// BuildHTTPHandler assembles the router with its middleware.
func BuildHTTPHandler(cfg *HTTPServerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	var compression *httpx.CompressionConfig
	if appCfg.HTTP.CompressionEnabled {
		logger.Info("HTTP compression enabled", "level", appCfg.HTTP.CompressionLevel)
		compression = &httpx.CompressionConfig{Level: appCfg.HTTP.CompressionLevel, Logger: logger}
	}

	return httpx.NewRouter(httpx.RouterServices{
		Auth:        cfg.Services.Auth,
		Guard:       cfg.Services.Guard,
		CSRF:        httpx.CSRFConfig{PublicURL: appCfg.HTTP.PublicURL, Logger: logger},
		Health:      cfg.Services.Health,
		Compression: compression,
		IsDev:       appCfg.IsDev,
		Logger:      logger,
	})
}

func newServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs server on ln until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting HTTP server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownWaitTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
