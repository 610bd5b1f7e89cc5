// Package statsd emits DogStatsD-style metrics over UDP.
package statsd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sink is what instrumented code depends on.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

// Config describes the StatsD endpoint.
type Config struct {
	Enabled    bool
	Address    string
	Prefix     string
	Logger     *slog.Logger
	GlobalTags map[string]string
}

// Client writes one datagram per metric. It is safe for concurrent use and a nil
// or disabled Client drops everything.
type Client struct {
	prefix     string
	globalTags map[string]string
	logger     *slog.Logger

	mu   sync.Mutex
	conn net.Conn
}

var _ Sink = (*Client)(nil)

// NewClient dials Address when Enabled; otherwise it returns a disabled client.
func NewClient(cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		prefix:     strings.Trim(strings.TrimSpace(cfg.Prefix), "."),
		globalTags: cleanTags(cfg.GlobalTags),
		logger:     logger.With("component", "statsd"),
	}

	address := strings.TrimSpace(cfg.Address)
	if !cfg.Enabled || address == "" {
		return c, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("statsd dial %s: %w", address, err)
	}
	c.conn = conn
	return c, nil
}

// Enabled reports whether metrics are being sent.
func (c *Client) Enabled() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Count increments a counter.
func (c *Client) Count(name string, value int64, tags map[string]string) {
	c.send(name, strconv.FormatInt(value, 10), "c", tags)
}

// Gauge sets a gauge.
func (c *Client) Gauge(name string, value float64, tags map[string]string) {
	c.send(name, formatFloat(value), "g", tags)
}

// Timing records a duration in milliseconds.
func (c *Client) Timing(name string, value time.Duration, tags map[string]string) {
	c.send(name, formatFloat(float64(value)/float64(time.Millisecond)), "ms", tags)
}

// Close releases the socket. Further metrics are dropped.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) send(name, value, kind string, tags map[string]string) {
	if c == nil {
		return
	}
	line := Line(c.prefix, name, value, kind, c.globalTags, tags)
	if line == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		c.logger.Debug("statsd write failed", "error", err)
	}
}

// Line renders one metric in the DogStatsD line format:
// prefix.name:value|kind|#k:v,... with tags sorted by key and local tags winning.
func Line(prefix, name, value, kind string, global, local map[string]string) string {
	metric := metricName(prefix, name)
	if metric == "" {
		return ""
	}
	return metric + ":" + value + "|" + kind + formatTags(global, local)
}

func metricName(prefix, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	n = strings.NewReplacer(" ", "_", "/", "_").Replace(n)
	for strings.Contains(n, "..") {
		n = strings.ReplaceAll(n, "..", ".")
	}
	n = strings.Trim(n, ".")
	if n == "" {
		return ""
	}
	if prefix == "" {
		return n
	}
	return prefix + "." + n
}

func formatTags(global, local map[string]string) string {
	merged := cleanTags(global)
	for k, v := range cleanTags(local) {
		merged[k] = v
	}
	if len(merged) == 0 {
		return ""
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("|#")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(merged[k])
	}
	return b.String()
}

func cleanTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = strings.TrimSpace(v)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
