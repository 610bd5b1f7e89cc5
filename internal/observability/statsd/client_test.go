package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		metric string
		global map[string]string
		local  map[string]string
		want   string
	}{
		{name: "bare", metric: "auth.login.started", want: "auth.login.started:1|c"},
		{name: "prefixed", prefix: "momoino_ui", metric: "auth.login.started", want: "momoino_ui.auth.login.started:1|c"},
		{name: "normalized", metric: " auth/login..started. ", want: "auth_login.started:1|c"},
		{name: "empty name", metric: "  ", want: ""},
		{
			name:   "tags sorted and local wins",
			metric: "auth.guard.decision",
			global: map[string]string{"env": "prod", " service ": " momoino-ui "},
			local:  map[string]string{"route": " protected ", "": "ignored", "env": "stage"},
			want:   "auth.guard.decision:1|c|#env:stage,route:protected,service:momoino-ui",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.prefix, tt.metric, "1", "c", tt.global, tt.local))
		})
	}
}

func TestClient_SendsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "momoino_ui."})
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.Enabled())

	client.Timing("auth.renewal.duration", 1500*time.Microsecond, map[string]string{"result": "success"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "momoino_ui.auth.renewal.duration:1.5|ms|#result:success", string(buf[:n]))
}

func TestClient_DisabledAndClosed(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	client.Count("noop", 1, nil)

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()
	live := &Client{conn: clientConn}
	require.True(t, live.Enabled())
	require.NoError(t, live.Close())
	assert.False(t, live.Enabled())
	require.NoError(t, live.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	require.NoError(t, nilClient.Close())
	nilClient.Gauge("noop", 1, nil)
}

func TestNewClient_DialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "statsd dial")
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Count("auth.guard.decision", 1, map[string]string{"route": "protected", "decision": "next"})
	r.Count("auth.guard.decision", 1, map[string]string{"route": "protected", "decision": "redirect"})
	r.Count("auth.guard.decision", 1, map[string]string{"route": "signin", "decision": "next"})
	r.Timing("auth.renewal.duration", 2*time.Millisecond, nil)

	assert.Equal(t, int64(3), r.CountOf("auth.guard.decision", nil))
	assert.Equal(t, int64(2), r.CountOf("auth.guard.decision", map[string]string{"decision": "next"}))
	require.Len(t, r.Named("auth.renewal.duration"), 1)
	assert.InDelta(t, 2.0, r.Named("auth.renewal.duration")[0].Value, 0.001)
	assert.Len(t, r.Samples(), 4)

	Discard.Count("x", 1, nil)
}
