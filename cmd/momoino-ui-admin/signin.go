package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/browser"
)

type signInURLOptions struct {
	ConsoleURL string
	Provider   string
	NoOpen     bool
	Timeout    time.Duration
}

func parseSignInURLFlags(args []string, defaultConsole string) (signInURLOptions, error) {
	var opts signInURLOptions
	fs := flag.NewFlagSet("signin-url", flag.ContinueOnError)
	fs.StringVar(&opts.ConsoleURL, "console", defaultConsole, "public URL of the running console")
	fs.StringVar(&opts.Provider, "provider", "", "login provider name")
	fs.BoolVar(&opts.NoOpen, "no-open", false, "print the URL without opening a browser")
	fs.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Provider = strings.ToLower(strings.TrimSpace(opts.Provider))
	if opts.Provider == "" {
		return opts, errors.New("signin-url: -provider is required")
	}
	return opts, nil
}

// popupStartURL is the console entry point that begins a popup login for provider.
func popupStartURL(consoleURL, provider string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(consoleURL))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("console url must be absolute: %q", consoleURL)
	}
	return base.JoinPath("auth", "oauth2", provider, "start").String(), nil
}

// resolveAuthorizeURL asks the console to start an attempt and returns where it would send the
// browser. The attempt it creates is discarded with this request's cookies.
func resolveAuthorizeURL(ctx context.Context, startURL string, timeout time.Duration) (string, error) {
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, startURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("contact console: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
	case http.StatusNotFound:
		return "", fmt.Errorf("provider is not configured on the console (%s)", resp.Status)
	default:
		return "", fmt.Errorf("unexpected console response: %s", resp.Status)
	}
	loc, err := resp.Location()
	if err != nil {
		return "", fmt.Errorf("console redirect: %w", err)
	}
	return loc.String(), nil
}

func runSignInURL(cmdCtx *commandContext, args []string) error {
	opts, err := parseSignInURLFlags(args, cmdCtx.Config.HTTP.PublicURL)
	if err != nil {
		return err
	}
	startURL, err := popupStartURL(opts.ConsoleURL, opts.Provider)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()
	authURL, err := resolveAuthorizeURL(ctx, startURL, opts.Timeout)
	if err != nil {
		return err
	}
	if u, parseErr := url.Parse(authURL); parseErr == nil {
		if err := writef(cmdCtx.Out, "Provider %s authorizes at %s://%s%s\n", opts.Provider, u.Scheme, u.Host, u.Path); err != nil {
			return err
		}
	}
	if err := writef(cmdCtx.Out, "Sign-in URL: %s\n", startURL); err != nil {
		return err
	}
	if opts.NoOpen {
		return nil
	}

	open := cmdCtx.Open
	if open == nil {
		open = browser.OpenURL
	}
	if err := open(startURL); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}
