package statsd

import (
	"sync"
	"time"
)

// Discard drops every metric.
var Discard Sink = discard{}

type discard struct{}

func (discard) Count(string, int64, map[string]string)          {}
func (discard) Gauge(string, float64, map[string]string)        {}
func (discard) Timing(string, time.Duration, map[string]string) {}

// Sample is one recorded metric.
type Sample struct {
	Kind  string
	Name  string
	Value float64
	Tags  map[string]string
}

// Recorder keeps metrics in memory for assertions.
type Recorder struct {
	mu      sync.Mutex
	samples []Sample
}

var _ Sink = (*Recorder)(nil)

// Count implements Sink.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Sample{Kind: "c", Name: name, Value: float64(value), Tags: cleanTags(tags)})
}

// Gauge implements Sink.
func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.add(Sample{Kind: "g", Name: name, Value: value, Tags: cleanTags(tags)})
}

// Timing implements Sink.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Sample{Kind: "ms", Name: name, Value: float64(value) / float64(time.Millisecond), Tags: cleanTags(tags)})
}

func (r *Recorder) add(s Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Named returns the samples recorded under name.
func (r *Recorder) Named(name string) []Sample {
	var out []Sample
	for _, s := range r.Samples() {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// CountOf sums the counter values recorded under name whose tags include match.
func (r *Recorder) CountOf(name string, match map[string]string) int64 {
	var total int64
	for _, s := range r.Named(name) {
		if s.Kind != "c" || !hasTags(s.Tags, match) {
			continue
		}
		total += int64(s.Value)
	}
	return total
}

func hasTags(tags, match map[string]string) bool {
	for k, v := range match {
		if tags[k] != v {
			return false
		}
	}
	return true
}
