package renewal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	apperrors "github.com/target/momoino-ui/internal/errors"
	authmocks "github.com/target/momoino-ui/internal/mocks/auth"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
)

func renewed() ports.SessionUpdate {
	return ports.SessionUpdate{SetCookies: []string{"MOMOINO_IDENTITY=new; Path=/"}}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped deadline", apperrors.Wrap(context.DeadlineExceeded, apperrors.ErrCodeTimeout, "x"), false},
		{"unauthorized", apperrors.FromStatus(http.StatusUnauthorized, ""), false},
		{"forbidden", apperrors.FromStatus(http.StatusForbidden, ""), false},
		{"request timeout", apperrors.FromStatus(http.StatusRequestTimeout, ""), true},
		{"rate limited", apperrors.FromStatus(http.StatusTooManyRequests, ""), true},
		{"server error", apperrors.FromStatus(http.StatusInternalServerError, ""), true},
		{"bad gateway", apperrors.FromStatus(http.StatusBadGateway, ""), true},
		{"transport", apperrors.Unavailable(errors.New("dial"), "backend unavailable"), true},
		{"plain", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.err))
		})
	}
}

func TestRenewer_RetriesTransientFailures(t *testing.T) {
	rec := &statsd.Recorder{}
	r := NewRenewer(RenewerOptions{Metrics: rec})
	require.Equal(t, DefaultRetries, r.Retries())

	var calls atomic.Int32
	_, err := r.Renew(context.Background(), "k", func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return ports.SessionUpdate{}, apperrors.FromStatus(http.StatusServiceUnavailable, "")
	})
	require.Error(t, err)
	assert.Equal(t, int32(DefaultRetries+1), calls.Load())
	assert.Equal(t, int64(1), rec.CountOf(metrics.RenewalFailure, nil))
	assert.Len(t, rec.Named(metrics.RenewalDuration), 1)
}

func TestRenewer_SucceedsAfterRetry(t *testing.T) {
	rec := &statsd.Recorder{}
	r := NewRenewer(RenewerOptions{Retries: 1, Metrics: rec})

	var calls atomic.Int32
	upd, err := r.Renew(context.Background(), "k", func(context.Context) (ports.SessionUpdate, error) {
		if calls.Add(1) == 1 {
			return ports.SessionUpdate{}, apperrors.FromStatus(http.StatusTooManyRequests, "")
		}
		return renewed(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, renewed(), upd)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(1), rec.CountOf(metrics.RenewalSuccess, nil))
	assert.Zero(t, rec.CountOf(metrics.RenewalFailure, nil))
}

func TestRenewer_PermanentFailureIsNotRetried(t *testing.T) {
	r := NewRenewer(RenewerOptions{Retries: 5})

	var calls atomic.Int32
	_, err := r.Renew(context.Background(), "k", func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return ports.SessionUpdate{}, apperrors.FromStatus(http.StatusUnauthorized, "Refresh token expired")
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRenewer_NegativeRetriesMeansSingleAttempt(t *testing.T) {
	r := NewRenewer(RenewerOptions{Retries: -1})
	assert.Equal(t, 0, r.Retries())

	var calls atomic.Int32
	_, err := r.Renew(context.Background(), "k", func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return ports.SessionUpdate{}, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRenewer_ConcurrentCallersShareOneRequest(t *testing.T) {
	r := NewRenewer(RenewerOptions{})
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fn := func(context.Context) (ports.SessionUpdate, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return renewed(), nil
	}

	const callers = 8
	results := make(chan error, callers)
	go func() {
		_, err := r.Renew(context.Background(), "sid-1", fn)
		results <- err
	}()
	<-entered

	var joined sync.WaitGroup
	joined.Add(callers - 1)
	for i := 1; i < callers; i++ {
		go func() {
			joined.Done()
			upd, err := r.Renew(context.Background(), "sid-1", fn)
			if err == nil && len(upd.SetCookies) != 1 {
				err = errors.New("missing shared result")
			}
			results <- err
		}()
	}
	joined.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-results)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestRenewer_DifferentKeysDoNotShare(t *testing.T) {
	r := NewRenewer(RenewerOptions{})
	var calls atomic.Int32
	fn := func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return renewed(), nil
	}
	_, err := r.Renew(context.Background(), "a", fn)
	require.NoError(t, err)
	_, err = r.Renew(context.Background(), "b", fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRenewer_WaiterStopsOnOwnCancellation(t *testing.T) {
	r := NewRenewer(RenewerOptions{})
	release := make(chan struct{})
	defer close(release)
	entered := make(chan struct{})

	go func() {
		_, _ = r.Renew(context.Background(), "k", func(context.Context) (ports.SessionUpdate, error) {
			close(entered)
			<-release
			return renewed(), nil
		})
	}()
	<-entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Renew(ctx, "k", func(context.Context) (ports.SessionUpdate, error) {
		t.Error("joined call must not start a second request")
		return ports.SessionUpdate{}, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenewer_JoinedCallerSurvivesStarterCancellation(t *testing.T) {
	r := NewRenewer(RenewerOptions{Retries: -1})
	entered := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (ports.SessionUpdate, error) {
		close(entered)
		select {
		case <-release:
			return renewed(), nil
		case <-ctx.Done():
			return ports.SessionUpdate{}, ctx.Err()
		}
	}

	starterCtx, cancelStarter := context.WithCancel(context.Background())
	starter := make(chan error, 1)
	go func() {
		_, err := r.Renew(starterCtx, "sid-1", fn)
		starter <- err
	}()
	<-entered

	joined := make(chan error, 1)
	go func() {
		upd, err := r.Renew(context.Background(), "sid-1", fn)
		if err == nil && len(upd.SetCookies) != 1 {
			err = errors.New("missing shared result")
		}
		joined <- err
	}()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.calls["sid-1"] != nil && r.calls["sid-1"].waiters == 2
	}, time.Second, time.Millisecond)

	cancelStarter()
	require.ErrorIs(t, <-starter, context.Canceled)
	close(release)
	require.NoError(t, <-joined)
}

func TestRenewer_LastWaiterLeavingCancelsRequest(t *testing.T) {
	r := NewRenewer(RenewerOptions{Retries: -1})
	stopped := make(chan error, 1)
	entered := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_, _ = r.Renew(ctx, "k", func(ctx context.Context) (ports.SessionUpdate, error) {
			close(entered)
			<-ctx.Done()
			stopped <- ctx.Err()
			return ports.SessionUpdate{}, ctx.Err()
		})
	}()
	<-entered
	cancel()

	select {
	case err := <-stopped:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("shared request was not cancelled")
	}
}

func TestRenewer_TimeoutBoundsSharedRequest(t *testing.T) {
	r := NewRenewer(RenewerOptions{Retries: -1, Timeout: 20 * time.Millisecond})
	_, err := r.Renew(context.Background(), "k", func(ctx context.Context) (ports.SessionUpdate, error) {
		<-ctx.Done()
		return ports.SessionUpdate{}, ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

type engineFixture struct {
	engine   *Engine
	notifier *authmocks.RecordingNotifier
	nav      *authmocks.RecordingNavigator
	profiles *authmocks.ProfileRecorder
	metrics  *statsd.Recorder
}

func newEngine(t *testing.T, interval time.Duration, renew RenewFunc) engineFixture {
	t.Helper()
	f := engineFixture{
		notifier: &authmocks.RecordingNotifier{},
		nav:      authmocks.NewRecordingNavigator(2),
		profiles: &authmocks.ProfileRecorder{},
		metrics:  &statsd.Recorder{},
	}
	e, err := NewEngine(EngineOptions{
		Renewer: NewRenewer(RenewerOptions{Retries: 2, Metrics: f.metrics}),
		Key:     "sid-1",
		Renew:   renew,
		Profile: func(context.Context, ports.SessionUpdate) (domainauth.Profile, error) {
			return domainauth.Profile{ID: "u-1"}, nil
		},
		Profiles:  f.profiles,
		Notifier:  f.notifier,
		Navigator: f.nav,
		Interval:  interval,
		Metrics:   f.metrics,
	})
	require.NoError(t, err)
	f.engine = e
	return f
}

func runEngine(ctx context.Context, e *Engine) <-chan error {
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	return done
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(EngineOptions{})
	require.Error(t, err)
	_, err = NewEngine(EngineOptions{Renew: func(context.Context) (ports.SessionUpdate, error) { return renewed(), nil }})
	require.Error(t, err)
}

func TestEngine_TriggerRenewsAndUpdatesProfile(t *testing.T) {
	var calls atomic.Int32
	f := newEngine(t, time.Hour, func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return renewed(), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := runEngine(ctx, f.engine)

	f.engine.Trigger()
	require.Eventually(t, func() bool {
		_, n := f.profiles.Last()
		return n == 1
	}, time.Second, 5*time.Millisecond)
	p, _ := f.profiles.Last()
	assert.Equal(t, "u-1", p.ID)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
	assert.Empty(t, f.notifier.Notifications())
	assert.Zero(t, f.nav.Reloads())
}

func TestEngine_RenewsOnInterval(t *testing.T) {
	var calls atomic.Int32
	f := newEngine(t, 10*time.Millisecond, func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return renewed(), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := runEngine(ctx, f.engine)
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestEngine_ExpiresAfterRetriesAreExhausted(t *testing.T) {
	var calls atomic.Int32
	f := newEngine(t, time.Hour, func(context.Context) (ports.SessionUpdate, error) {
		calls.Add(1)
		return ports.SessionUpdate{}, apperrors.FromStatus(http.StatusBadGateway, "")
	})

	done := runEngine(context.Background(), f.engine)
	f.engine.Trigger()

	select {
	case err := <-done:
		require.ErrorIs(t, err, domainauth.ErrSessionExpired)
	case <-time.After(2 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []string{"Your session is expired."}, f.notifier.Messages())
	assert.Equal(t, 1, f.nav.Reloads())
	assert.Equal(t, int64(1), f.metrics.CountOf(metrics.SessionExpired, nil))
	_, updates := f.profiles.Last()
	assert.Zero(t, updates)
}

func TestEngine_CancellationAbortsInFlightRenewal(t *testing.T) {
	entered := make(chan struct{})
	f := newEngine(t, time.Hour, func(ctx context.Context) (ports.SessionUpdate, error) {
		close(entered)
		<-ctx.Done()
		return ports.SessionUpdate{}, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := runEngine(ctx, f.engine)
	f.engine.Trigger()
	<-entered
	assert.True(t, f.engine.InFlight())

	// Triggers during a renewal are dropped.
	f.engine.Trigger()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Empty(t, f.notifier.Notifications(), "cancellation is not an expiry")
	assert.Zero(t, f.nav.Reloads())
}

func TestEngine_RunTwiceFails(t *testing.T) {
	f := newEngine(t, time.Hour, func(context.Context) (ports.SessionUpdate, error) { return renewed(), nil })
	ctx, cancel := context.WithCancel(context.Background())
	done := runEngine(ctx, f.engine)

	require.Eventually(t, func() bool { return f.engine.Running() }, time.Second, 5*time.Millisecond)
	require.Error(t, f.engine.Run(ctx))

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
