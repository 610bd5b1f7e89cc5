package oauthpopup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/observability/metrics"
	"github.com/target/momoino-ui/internal/observability/notify"
	"github.com/target/momoino-ui/internal/observability/statsd"
	"github.com/target/momoino-ui/internal/ports"
)

// Outcome is what the opener must do after a message arrives.
type Outcome string

const (
	// OutcomeIgnore means the message was not an authentication message.
	OutcomeIgnore Outcome = "ignore"
	// OutcomeReload means login succeeded and the view must reload to pick up cookies.
	OutcomeReload Outcome = "reload"
	// OutcomeNotify means login failed and the user was notified.
	OutcomeNotify Outcome = "notify"
)

type wireMessage struct {
	Source  *string      `json:"source"`
	Payload *wirePayload `json:"payload"`
}

type wirePayload struct {
	Status  *string         `json:"status"`
	Details json.RawMessage `json:"details,omitempty"`
}

// ParseMessage accepts only well-formed authentication messages. Unknown fields, another
// source, an unknown status or details on success all reject the message.
func ParseMessage(raw []byte) (domainauth.AuthenticationMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w wireMessage
	if err := dec.Decode(&w); err != nil {
		return domainauth.AuthenticationMessage{}, false
	}
	if dec.More() {
		return domainauth.AuthenticationMessage{}, false
	}
	if w.Source == nil || *w.Source != domainauth.MessageSource || w.Payload == nil || w.Payload.Status == nil {
		return domainauth.AuthenticationMessage{}, false
	}

	msg := domainauth.AuthenticationMessage{Source: *w.Source}
	switch domainauth.Status(*w.Payload.Status) {
	case domainauth.StatusSuccess:
		if len(w.Payload.Details) > 0 {
			return domainauth.AuthenticationMessage{}, false
		}
		msg.Payload.Status = domainauth.StatusSuccess
	case domainauth.StatusError:
		msg.Payload.Status = domainauth.StatusError
		if d := bytes.TrimSpace(w.Payload.Details); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
			msg.Payload.Details = append(json.RawMessage(nil), d...)
		}
	default:
		return domainauth.AuthenticationMessage{}, false
	}
	return msg, true
}

// ListenerOptions configures a Listener.
type ListenerOptions struct {
	Store     ports.AttemptStore
	Notifier  ports.Notifier
	Navigator ports.Navigator
	Metrics   statsd.Sink
	Logger    *slog.Logger
}

// Listener handles authentication messages in the opener.
type Listener struct {
	store     ports.AttemptStore
	notifier  ports.Notifier
	navigator ports.Navigator
	metrics   statsd.Sink
	logger    *slog.Logger
}

// NewListener builds a Listener. Notifier and Navigator are only needed by Listen.
func NewListener(opts ListenerOptions) (*Listener, error) {
	if opts.Store == nil {
		return nil, errors.New("attempt store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		store:     opts.Store,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "oauth_listener"),
	}, nil
}

// Handle processes one raw message for scope. A valid message always clears the attempt
// before anything else happens.
func (l *Listener) Handle(ctx context.Context, scope string, raw []byte) Outcome {
	msg, ok := ParseMessage(raw)
	if !ok {
		l.logger.DebugContext(ctx, "ignoring message that is not an authentication message")
		return OutcomeIgnore
	}

	if err := l.store.Clear(ctx, scope); err != nil {
		l.logger.WarnContext(ctx, "clear login attempt failed", "error", err)
	}

	outcome := OutcomeReload
	if msg.Payload.Status == domainauth.StatusError {
		outcome = OutcomeNotify
		l.logger.ErrorContext(ctx, "popup login failed", "details", detailsText(msg.Payload.Details))
	}
	if l.metrics != nil {
		l.metrics.Count(metrics.ListenerOutcome, 1, map[string]string{"outcome": string(outcome)})
	}
	return outcome
}

// Listen subscribes to bus and applies outcomes until ctx is done.
func (l *Listener) Listen(ctx context.Context, bus Bus, scope string) error {
	if l.notifier == nil || l.navigator == nil {
		return errors.New("listener needs a notifier and a navigator")
	}
	messages, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			l.apply(ctx, l.Handle(ctx, scope, raw))
		}
	}
}

func (l *Listener) apply(ctx context.Context, outcome Outcome) {
	switch outcome {
	case OutcomeReload:
		if err := l.navigator.Reload(ctx); err != nil {
			l.logger.WarnContext(ctx, "reload after login failed", "error", err)
		}
	case OutcomeNotify:
		n := notify.Error(domainauth.AuthenticationFailedMessage, "")
		if err := l.notifier.Notify(ctx, n); err != nil {
			l.logger.WarnContext(ctx, "notify login failure failed", "error", err)
		}
	case OutcomeIgnore:
	}
}

func detailsText(details json.RawMessage) string {
	if len(details) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(details, &s); err == nil {
		return s
	}
	return string(details)
}

// Bus delivers raw messages posted between windows of the same client.
type Bus interface {
	Post(raw []byte)
	Subscribe() (<-chan []byte, func())
}

// ChannelBus is an in-process Bus. Posting never blocks; a subscriber that is not keeping
// up misses messages.
type ChannelBus struct {
	mu   sync.Mutex
	subs map[int]chan []byte
	next int
}

// NewChannelBus returns an empty bus.
func NewChannelBus() *ChannelBus {
	return &ChannelBus{subs: make(map[int]chan []byte)}
}

// Post delivers raw to every current subscriber.
func (b *ChannelBus) Post(raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- append([]byte(nil), raw...):
		default:
		}
	}
}

// PostMessage encodes msg and posts it.
func (b *ChannelBus) PostMessage(msg domainauth.AuthenticationMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	b.Post(raw)
	return nil
}

// Subscribe registers a subscriber. The returned func unsubscribes and closes the channel.
func (b *ChannelBus) Subscribe() (<-chan []byte, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan []byte, 8)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}

// Subscribers reports how many subscribers are registered.
func (b *ChannelBus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
