package oauthpopup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/momoino-ui/internal/adapters/memory"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/mocks"
	authmocks "github.com/target/momoino-ui/internal/mocks/auth"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
		want  domainauth.Status
	}{
		{name: "success", raw: `{"source":"useOAuth2","payload":{"status":"success"}}`, valid: true, want: domainauth.StatusSuccess},
		{name: "error with string details", raw: `{"source":"useOAuth2","payload":{"status":"error","details":"boom"}}`, valid: true, want: domainauth.StatusError},
		{name: "error with object details", raw: `{"source":"useOAuth2","payload":{"status":"error","details":{"code":1}}}`, valid: true, want: domainauth.StatusError},
		{name: "error without details", raw: `{"source":"useOAuth2","payload":{"status":"error"}}`, valid: true, want: domainauth.StatusError},
		{name: "wrong source", raw: `{"source":"devtools","payload":{"status":"success"}}`},
		{name: "missing source", raw: `{"payload":{"status":"success"}}`},
		{name: "missing payload", raw: `{"source":"useOAuth2"}`},
		{name: "unknown status", raw: `{"source":"useOAuth2","payload":{"status":"pending"}}`},
		{name: "details on success", raw: `{"source":"useOAuth2","payload":{"status":"success","details":"x"}}`},
		{name: "unknown top-level field", raw: `{"source":"useOAuth2","payload":{"status":"success"},"extra":1}`},
		{name: "unknown payload field", raw: `{"source":"useOAuth2","payload":{"status":"success","token":"t"}}`},
		{name: "trailing document", raw: `{"source":"useOAuth2","payload":{"status":"success"}}{}`},
		{name: "not json", raw: `hello`},
		{name: "array", raw: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := ParseMessage([]byte(tt.raw))
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.want, msg.Payload.Status)
				assert.Equal(t, domainauth.MessageSource, msg.Source)
			}
		})
	}
}

func TestHandle_ClearsAttemptOnValidMessages(t *testing.T) {
	store := memory.NewAttemptStore(time.Minute)
	l, err := NewListener(ListenerOptions{Store: store})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Begin(ctx, "scope", domainauth.AuthorizationRequest{Provider: "google", State: "s"}))
	assert.Equal(t, OutcomeIgnore, l.Handle(ctx, "scope", []byte(`{"source":"other"}`)))
	assert.Equal(t, 1, store.Len(), "ignored messages have no side effects")

	assert.Equal(t, OutcomeReload, l.Handle(ctx, "scope", []byte(`{"source":"useOAuth2","payload":{"status":"success"}}`)))
	assert.Equal(t, 0, store.Len())

	// Clearing twice is fine.
	assert.Equal(t, OutcomeNotify, l.Handle(ctx, "scope", []byte(`{"source":"useOAuth2","payload":{"status":"error","details":"denied"}}`)))
	assert.Equal(t, 0, store.Len())
}

func TestHandle_ClearFailureStillReportsOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockAttemptStore(ctrl)
	store.EXPECT().Clear(gomock.Any(), "scope").Return(errors.New("redis down"))

	l, err := NewListener(ListenerOptions{Store: store})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReload, l.Handle(context.Background(), "scope", []byte(`{"source":"useOAuth2","payload":{"status":"success"}}`)))
}

func TestListen_AppliesOutcomesAndUnsubscribes(t *testing.T) {
	store := memory.NewAttemptStore(time.Minute)
	notifier := &authmocks.RecordingNotifier{}
	nav := authmocks.NewRecordingNavigator(4)
	l, err := NewListener(ListenerOptions{Store: store, Notifier: notifier, Navigator: nav})
	require.NoError(t, err)

	bus := NewChannelBus()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Listen(ctx, bus, "scope") }()

	require.Eventually(t, func() bool { return bus.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	bus.Post([]byte(`not a message`))
	require.NoError(t, bus.PostMessage(domainauth.ErrorMessage(errors.New("denied"))))
	require.NoError(t, bus.PostMessage(domainauth.SuccessMessage()))

	select {
	case <-nav.Reloaded:
	case <-time.After(time.Second):
		t.Fatal("expected a reload")
	}
	assert.Equal(t, []string{domainauth.AuthenticationFailedMessage}, notifier.Messages())

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, 0, bus.Subscribers())
	assert.Equal(t, 1, nav.Reloads())
}

func TestListen_RequiresCollaborators(t *testing.T) {
	l, err := NewListener(ListenerOptions{Store: memory.NewAttemptStore(time.Minute)})
	require.NoError(t, err)
	require.Error(t, l.Listen(context.Background(), NewChannelBus(), "scope"))
}
