package renewal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/notify"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
)

// ProfileFunc reads the profile of the session after a successful renewal.
type ProfileFunc func(ctx context.Context, upd ports.SessionUpdate) (domainauth.Profile, error)

// EngineOptions configures an Engine.
type EngineOptions struct {
	Renewer *Renewer
	// Key groups renewals of the same session in the Renewer.
	Key       string
	Renew     RenewFunc
	Profile   ProfileFunc
	Profiles  ports.ProfileStore
	Notifier  ports.Notifier
	Navigator ports.Navigator
	Interval  time.Duration
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// Engine renews a session every Interval and whenever Trigger is called.
// It stops after the first renewal that fails past its retries.
type Engine struct {
	renewer   *Renewer
	key       string
	renew     RenewFunc
	profile   ProfileFunc
	profiles  ports.ProfileStore
	notifier  ports.Notifier
	navigator ports.Navigator
	interval  time.Duration
	metrics   statsd.Sink
	logger    *slog.Logger

	trigger  chan struct{}
	inFlight atomic.Bool
	running  atomic.Bool
}

// NewEngine validates opts and constructs an Engine.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Renew == nil {
		return nil, errors.New("renewal: renew func is required")
	}
	if opts.Notifier == nil || opts.Navigator == nil {
		return nil, errors.New("renewal: notifier and navigator are required")
	}
	renewer := opts.Renewer
	if renewer == nil {
		renewer = NewRenewer(RenewerOptions{Metrics: opts.Metrics, Logger: opts.Logger})
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	key := opts.Key
	if key == "" {
		key = "session"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		renewer:   renewer,
		key:       key,
		renew:     opts.Renew,
		profile:   opts.Profile,
		profiles:  opts.Profiles,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		interval:  interval,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "renewal_engine"),
		trigger:   make(chan struct{}, 1),
	}, nil
}

// Trigger asks for a renewal now, as on window focus or reconnect.
// It is dropped while a renewal is in flight or another trigger is pending.
func (e *Engine) Trigger() {
	if e.inFlight.Load() {
		return
	}
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Running reports whether Run is active.
func (e *Engine) Running() bool { return e.running.Load() }

// InFlight reports whether a renewal request is running.
func (e *Engine) InFlight() bool { return e.inFlight.Load() }

// Run blocks until ctx is done or the session expires.
// Expiry notifies the user once, reloads the view and returns an error wrapping
// domainauth.ErrSessionExpired.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("renewal: engine already running")
	}
	defer e.running.Store(false)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-e.trigger:
		}

		err := e.RenewOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			e.expire(ctx, err)
			return fmt.Errorf("%w: %w", domainauth.ErrSessionExpired, err)
		}

		// Ticks and triggers that arrived during the renewal are already satisfied.
		select {
		case <-ticker.C:
		default:
		}
		select {
		case <-e.trigger:
		default:
		}
	}
}

// RenewOnce performs one renewal and refreshes the cached profile.
func (e *Engine) RenewOnce(ctx context.Context) error {
	e.inFlight.Store(true)
	defer e.inFlight.Store(false)

	upd, err := e.renewer.Renew(ctx, e.key, e.renew)
	if err != nil {
		return err
	}
	if e.profile == nil || e.profiles == nil {
		return nil
	}
	p, err := e.profile(ctx, upd)
	if err != nil {
		// The session was renewed; a stale profile is shown until the next renewal.
		e.logger.WarnContext(ctx, "profile refresh after renewal failed", "error", err)
		return nil
	}
	e.profiles.SetProfile(p)
	return nil
}

func (e *Engine) expire(ctx context.Context, cause error) {
	e.logger.WarnContext(ctx, "session expired", "error", cause)
	metrics.Emit(e.metrics, metrics.AuthMetric{Name: metrics.SessionExpired, Result: metrics.ResultError, Err: cause})

	if err := e.notifier.Notify(ctx, notify.Error(domainauth.ErrSessionExpired.Error(), "")); err != nil {
		e.logger.ErrorContext(ctx, "session expiry notification failed", "error", err)
	}
	if err := e.navigator.Reload(ctx); err != nil {
		e.logger.ErrorContext(ctx, "reload after session expiry failed", "error", err)
	}
}
