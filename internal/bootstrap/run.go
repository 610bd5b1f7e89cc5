package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/target/momoino-ui/config"
)

// RunConfig contains what Run needs.
type RunConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// Run builds every service, serves HTTP and blocks until SIGINT/SIGTERM or a server failure.
func Run(ctx context.Context, cfg RunConfig) (err error) {
	if cfg.Config == nil {
		return errors.New("run config missing AppConfig")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attempts, err := NewAttemptStore(ctx, StoreConfig{
		Attempts:    cfg.Config.Attempts,
		RedisConfig: cfg.Config.Redis,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("attempt store: %w", err)
	}
	defer func() {
		if closeErr := attempts.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close attempt store: %w", closeErr))
		}
	}()

	services, err := NewServices(ctx, &ServiceDeps{Config: cfg.Config, Attempts: attempts, Logger: logger})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer func() {
		if closeErr := services.Close(); closeErr != nil {
			logger.Warn("close services", "error", closeErr)
		}
	}()

	server := newServer(cfg.Config.HTTP.Addr, BuildHTTPHandler(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: services,
		Logger:   logger,
	}))
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", server.Addr, err)
	}
	return Serve(ctx, server, ln, logger)
}
