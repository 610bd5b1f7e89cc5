package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/identity"
	"github.com/target/momoino-ui/internal/observability/notify"
	"github.com/target/momoino-ui/internal/ports"
	"github.com/target/momoino-ui/internal/session"
)

const (
	defaultCommandTimeout = 30 * time.Second
	// passwordEnv keeps the password out of the process list.
	passwordEnv = "MOMOINO_PASSWORD"
)

type credentialOptions struct {
	Login    string
	Password string
	Timeout  time.Duration
}

func newCredentialFlags(name string, opts *credentialOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&opts.Login, "login", "", "username or email")
	fs.StringVar(&opts.Password, "password", "", "password (defaults to $"+passwordEnv+")")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "request timeout")
	return fs
}

func parseCredentialFlags(name string, args []string) (credentialOptions, error) {
	var opts credentialOptions
	if err := newCredentialFlags(name, &opts).Parse(args); err != nil {
		return opts, err
	}
	if opts.Password == "" {
		opts.Password = os.Getenv(passwordEnv)
	}
	if strings.TrimSpace(opts.Login) == "" || opts.Password == "" {
		return opts, fmt.Errorf("%s: -login and a password are required", name)
	}
	return opts, nil
}

func (o credentialOptions) credentials() domainauth.Credentials {
	login := strings.TrimSpace(o.Login)
	if strings.Contains(login, "@") {
		return domainauth.Credentials{Email: login, Password: o.Password}
	}
	return domainauth.Credentials{Username: login, Password: o.Password}
}

type sessionDeps struct {
	Notifier  ports.Notifier
	Navigator ports.Navigator
}

func newSession(cmdCtx *commandContext, timeout time.Duration, deps sessionDeps) (*session.Client, error) {
	decoder, err := identity.NewDecoder(identity.Options{
		RolesPath:       cmdCtx.Config.Auth.RolesPath,
		PermissionsPath: cmdCtx.Config.Auth.PermissionsPath,
	})
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		BackendURL: cmdCtx.Config.Backend.URL,
		Timeout:    timeout,
		Decoder:    decoder,
		Notifier:   deps.Notifier,
		Navigator:  deps.Navigator,
		Interval:   cmdCtx.Config.Renewal.Interval,
		Retries:    cmdCtx.Config.Renewal.RenewerRetries(),
		Logger:     cmdCtx.Logger,
	})
}

func signIn(cmdCtx *commandContext, name string, args []string) (*session.Client, domainauth.Profile, error) {
	opts, err := parseCredentialFlags(name, args)
	if err != nil {
		return nil, domainauth.Profile{}, err
	}
	sess, err := newSession(cmdCtx, opts.Timeout, sessionDeps{})
	if err != nil {
		return nil, domainauth.Profile{}, err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()
	profile, err := sess.Login(ctx, opts.credentials())
	if err != nil {
		return nil, domainauth.Profile{}, err
	}
	return sess, profile, nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	_, profile, err := signIn(cmdCtx, "login", args)
	if err != nil {
		return err
	}
	return printJSON(cmdCtx.Out, profile)
}

func runWhoami(cmdCtx *commandContext, args []string) error {
	sess, _, err := signIn(cmdCtx, "whoami", args)
	if err != nil {
		return err
	}
	profile, err := sess.IdentityProfile()
	if err != nil {
		return fmt.Errorf("read identity cookie: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	confirmed, err := sess.Backend().Profile(ctx, ports.Forward{})
	if err != nil {
		return fmt.Errorf("confirm session: %w", err)
	}
	if confirmed.ID != profile.ID {
		cmdCtx.Logger.Warn("backend profile differs from identity cookie", "cookie_user", profile.ID, "backend_user", confirmed.ID)
	}
	// Roles and permissions come from identity claims when the backend omits them.
	if len(confirmed.Roles) == 0 {
		confirmed.Roles = profile.Roles
	}
	if len(confirmed.Permissions) == 0 {
		confirmed.Permissions = profile.Permissions
	}
	return printProfile(cmdCtx.Out, confirmed, sess.Valid())
}

func runProviders(cmdCtx *commandContext, args []string) error {
	sess, _, err := signIn(cmdCtx, "providers", args)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()
	records, err := sess.Backend().Providers(ctx, ports.Forward{})
	if err != nil {
		return fmt.Errorf("list providers: %w", err)
	}
	return printProviders(cmdCtx.Out, records)
}

func runCSRFToken(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("csrf-token", flag.ContinueOnError)
	timeout := fs.Duration("timeout", defaultCommandTimeout, "request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := newSession(cmdCtx, *timeout, sessionDeps{})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()
	tok, err := sess.CSRF().Fetch(ctx)
	if err != nil {
		return err
	}
	_, hasCookie := sess.Cookie(domainauth.CSRFCookie)
	tw := tabwriter.NewWriter(cmdCtx.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "%s:\t%s\n", domainauth.CSRFHeader, tok.HeaderValue)
	_, _ = fmt.Fprintf(tw, "%s cookie:\t%t\n", domainauth.CSRFCookie, hasCookie)
	return tw.Flush()
}

func runKeepalive(cmdCtx *commandContext, args []string) error {
	opts, err := parseCredentialFlags("keepalive", args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := newSession(cmdCtx, opts.Timeout, sessionDeps{
		Notifier: notify.LogSink{Logger: cmdCtx.Logger},
		Navigator: session.ReloadFunc(func(ctx context.Context) error {
			cmdCtx.Logger.InfoContext(ctx, "session expired; sign in again to continue")
			return nil
		}),
	})
	if err != nil {
		return err
	}
	loginCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	profile, err := sess.Login(loginCtx, opts.credentials())
	cancel()
	if err != nil {
		return err
	}
	cmdCtx.Logger.InfoContext(ctx, "session started", "user_id", profile.ID, "interval", cmdCtx.Config.Renewal.Interval)

	if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printProfile(w io.Writer, p domainauth.Profile, valid bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", p.ID},
		{"Name", p.DisplayName()},
		{"Username", p.Username},
		{"Email", p.Email},
		{"Roles", strings.Join(p.Roles, ", ")},
		{"Permissions", strings.Join(p.Permissions, ", ")},
		{"Session bound", fmt.Sprintf("%t", valid)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printProviders(w io.Writer, records []domainauth.ProviderRecord) error {
	if len(records) == 0 {
		return writef(w, "(no providers configured)\n")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tENABLED\tCREATED\tCREATED BY\tID")
	for _, r := range records {
		created := "-"
		if !r.CreatedAt.IsZero() {
			created = r.CreatedAt.UTC().Format(time.RFC3339)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", r.Name, r.IsEnabled, created, r.CreatedBy, r.ID); err != nil {
			return err
		}
	}
	return tw.Flush()
}
