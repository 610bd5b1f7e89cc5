package metrics

import (
	"time"

	obserrors "github.com/target/momoino-ui/internal/observability/errors"
	"github.com/target/momoino-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Metric names.
const (
	LoginStarted     = "auth.login.started"
	LoginCompleted   = "auth.login.completed"
	RenewalSuccess   = "auth.renewal.success"
	RenewalFailure   = "auth.renewal.failure"
	RenewalDuration  = "auth.renewal.duration"
	GuardDecision    = "auth.guard.decision"
	CSRFFetch        = "auth.csrf.fetch"
	ListenerOutcome  = "auth.listener.outcome"
	SessionExpired   = "auth.session.expired"
	CredentialsLogin = "auth.credentials.login"
)

// AuthMetric captures one authentication event.
type AuthMetric struct {
	Name     string
	Result   string
	Duration time.Duration
	Err      error
	Tags     map[string]string
}

// Emit sends in as a counter, plus a timing when Duration is set.
// Failures carry an error_class tag.
func Emit(sink statsd.Sink, in AuthMetric) {
	if sink == nil || in.Name == "" {
		return
	}

	tags := CloneTags(in.Tags)
	if tags == nil {
		tags = map[string]string{}
	}
	if in.Result != "" {
		tags["result"] = in.Result
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(in.Name, 1, tags)
	if in.Duration > 0 {
		sink.Timing(in.Name+".duration", in.Duration, CloneTags(tags))
	}
}

// EmitRenewal records one renewal attempt under the success/failure counters and the
// shared duration timer.
func EmitRenewal(sink statsd.Sink, d time.Duration, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{}
	name := RenewalSuccess
	if err != nil {
		name = RenewalFailure
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count(name, 1, tags)
	if d > 0 {
		sink.Timing(RenewalDuration, d, CloneTags(tags))
	}
}

// EmitGuardDecision records what the routing guard did with a request.
func EmitGuardDecision(sink statsd.Sink, route, decision string) {
	if sink == nil {
		return
	}
	sink.Count(GuardDecision, 1, map[string]string{"route": route, "decision": decision})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
