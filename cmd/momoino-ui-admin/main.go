package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/target/momoino-ui/config"
	"github.com/target/momoino-ui/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	// Open shows a URL to the operator; defaults to the system browser.
	Open func(url string) error
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"providers": {
			name:        "providers",
			description: "Sign in and list the OAuth2 providers configured on the backend",
			run:         runProviders,
		},
		"csrf-token": {
			name:        "csrf-token",
			description: "Fetch a CSRF token pair from the backend",
			run:         runCSRFToken,
		},
		"login": {
			name:        "login",
			description: "Sign in with credentials and print the profile",
			run:         runLogin,
		},
		"whoami": {
			name:        "whoami",
			description: "Sign in and print the identity claims projection",
			run:         runWhoami,
		},
		"keepalive": {
			name:        "keepalive",
			description: "Sign in and keep the session renewed until interrupted",
			run:         runKeepalive,
		},
		"signin-url": {
			name:        "signin-url",
			description: "Check a provider on a running console and open its sign-in flow in the browser",
			run:         runSignInURL,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: momoino-ui-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-16s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
