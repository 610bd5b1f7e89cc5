package renewal

// Package renewal keeps a session alive by renewing the access/refresh pair.
// Renewer deduplicates and retries one renewal; Engine schedules renewals for a long-lived client.

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/target/momoino-ui/internal/errors"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
)

const (
	// DefaultRetries is the number of retries after the first failed attempt.
	DefaultRetries = 2
	// DefaultInterval is the time between scheduled renewals.
	DefaultInterval = 50 * time.Second
)

// RenewFunc performs one renewal request.
type RenewFunc func(ctx context.Context) (ports.SessionUpdate, error)

// RenewerOptions configures a Renewer.
type RenewerOptions struct {
	// Retries after the first attempt. Negative means none; zero means DefaultRetries.
	Retries int
	// Delay between attempts. Zero retries immediately.
	Delay time.Duration
	// Timeout bounds a shared renewal including its retries. Zero means no bound.
	Timeout time.Duration
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// Renewer runs renewals so that concurrent callers sharing a key share one request.
type Renewer struct {
	group   singleflight.Group
	retries int
	delay   time.Duration
	timeout time.Duration
	metrics statsd.Sink
	logger  *slog.Logger

	mu    sync.Mutex
	calls map[string]*sharedCall
}

// sharedCall is the context of one in-flight renewal and the number of callers waiting on it.
// It is cancelled when the last waiter leaves.
type sharedCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewRenewer constructs a Renewer.
func NewRenewer(opts RenewerOptions) *Renewer {
	retries := opts.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Renewer{
		retries: retries,
		delay:   opts.Delay,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		logger:  logger.With("component", "renewal"),
	}
}

// Retries returns the configured retry count.
func (r *Renewer) Retries() int { return r.retries }

// Renew runs fn for key, joining an identical call already in flight.
// Each caller stops waiting when its own ctx is done. The shared request keeps running while
// any caller still waits and is cancelled once all of them have left.
func (r *Renewer) Renew(ctx context.Context, key string, fn RenewFunc) (ports.SessionUpdate, error) {
	if fn == nil {
		return ports.SessionUpdate{}, errors.New("renewal: nil renew func")
	}
	call := r.join(ctx, key)
	defer r.leave(key, call)

	ch := r.group.DoChan(key, func() (any, error) {
		defer r.finish(key, call)
		return r.attempt(call.ctx, fn)
	})
	select {
	case <-ctx.Done():
		return ports.SessionUpdate{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return ports.SessionUpdate{}, res.Err
		}
		upd, _ := res.Val.(ports.SessionUpdate)
		return upd, nil
	}
}

func (r *Renewer) join(ctx context.Context, key string) *sharedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls == nil {
		r.calls = make(map[string]*sharedCall)
	}
	call, ok := r.calls[key]
	if !ok {
		base := context.WithoutCancel(ctx)
		call = &sharedCall{}
		if r.timeout > 0 {
			call.ctx, call.cancel = context.WithTimeout(base, r.timeout)
		} else {
			call.ctx, call.cancel = context.WithCancel(base)
		}
		r.calls[key] = call
	}
	call.waiters++
	return call
}

func (r *Renewer) leave(key string, call *sharedCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if r.calls[key] == call {
		delete(r.calls, key)
	}
}

// finish detaches a completed call so the next renewal of key starts fresh.
func (r *Renewer) finish(key string, call *sharedCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls[key] == call {
		delete(r.calls, key)
	}
}

func (r *Renewer) attempt(ctx context.Context, fn RenewFunc) (ports.SessionUpdate, error) {
	start := time.Now()
	tries := 0
	op := func() (ports.SessionUpdate, error) {
		tries++
		upd, err := fn(ctx)
		if err == nil {
			return upd, nil
		}
		if ctx.Err() != nil || !Retryable(err) {
			return ports.SessionUpdate{}, backoff.Permanent(err)
		}
		r.logger.DebugContext(ctx, "renewal attempt failed", "attempt", tries, "error", err)
		return ports.SessionUpdate{}, err
	}

	upd, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(r.delay)),
		backoff.WithMaxTries(uint(r.retries+1)), //nolint:gosec // retries is non-negative
		backoff.WithMaxElapsedTime(0),
	)
	metrics.EmitRenewal(r.metrics, time.Since(start), err)
	if err != nil {
		r.logger.WarnContext(ctx, "renewal failed", "attempts", tries, "error", err)
		return ports.SessionUpdate{}, err
	}
	return upd, nil
}

// Retryable reports whether a failed renewal is worth repeating.
// Client errors other than 408 and 429 are final, as is cancellation.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		s := appErr.Status
		if s >= 400 && s < 500 {
			return s == http.StatusRequestTimeout || s == http.StatusTooManyRequests
		}
		return true
	}
	return apperrors.IsRetryable(err)
}
