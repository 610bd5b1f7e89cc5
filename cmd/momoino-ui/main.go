package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/target/momoino-ui/config"
	"github.com/target/momoino-ui/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.Run(ctx, bootstrap.RunConfig{Config: &cfg, Logger: logger})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	providers := make([]string, 0, len(cfg.Auth.Providers))
	for _, p := range cfg.Auth.Providers {
		providers = append(providers, p.Name)
	}
	logger.InfoContext(ctx, "starting momoino-ui",
		"addr", cfg.HTTP.Addr,
		"backend_url", cfg.Backend.URL,
		"attempt_store", string(cfg.Attempts.Store),
		"providers", providers,
		"dev", cfg.IsDev)
}
