package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	"github.com/target/momoino-ui/internal/observability/notify"
	"github.com/target/momoino-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Notifier     = (*RecordingNotifier)(nil)
	_ ports.Navigator    = (*RecordingNavigator)(nil)
	_ ports.ProfileStore = (*ProfileRecorder)(nil)
)

// RecordingNotifier keeps every notification it receives.
type RecordingNotifier struct {
	mu  sync.Mutex
	all []notify.Notification
	Err error
}

// Notify implements ports.Notifier.
func (n *RecordingNotifier) Notify(_ context.Context, note notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, note)
	return n.Err
}

// Notifications returns a copy of what was received.
func (n *RecordingNotifier) Notifications() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.all...)
}

// Messages returns the message text of every notification.
func (n *RecordingNotifier) Messages() []string {
	all := n.Notifications()
	out := make([]string, len(all))
	for i, note := range all {
		out[i] = note.Message
	}
	return out
}

// RecordingNavigator counts reloads and signals each one on Reloaded.
type RecordingNavigator struct {
	mu       sync.Mutex
	reloads  int
	Err      error
	Reloaded chan struct{}
}

// NewRecordingNavigator returns a navigator whose Reloaded channel buffers n signals.
func NewRecordingNavigator(n int) *RecordingNavigator {
	return &RecordingNavigator{Reloaded: make(chan struct{}, n)}
}

// Reload implements ports.Navigator.
func (r *RecordingNavigator) Reload(context.Context) error {
	r.mu.Lock()
	r.reloads++
	r.mu.Unlock()
	if r.Reloaded != nil {
		select {
		case r.Reloaded <- struct{}{}:
		default:
		}
	}
	return r.Err
}

// Reloads returns the number of Reload calls.
func (r *RecordingNavigator) Reloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloads
}

// ProfileRecorder keeps the last profile set.
type ProfileRecorder struct {
	mu      sync.Mutex
	last    domainauth.Profile
	updates int
}

// SetProfile implements ports.ProfileStore.
func (p *ProfileRecorder) SetProfile(profile domainauth.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = profile
	p.updates++
}

// Last returns the most recent profile and how many updates happened.
func (p *ProfileRecorder) Last() (domainauth.Profile, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.updates
}
