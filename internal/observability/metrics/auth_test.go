package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/target/momoino-ui/internal/errors"
	"github.com/target/momoino-ui/internal/observability/statsd"
)

func TestEmit_TagsResultAndErrorClass(t *testing.T) {
	var rec statsd.Recorder
	Emit(&rec, AuthMetric{
		Name:     LoginCompleted,
		Result:   ResultError,
		Err:      apperrors.FromStatus(http.StatusBadGateway, ""),
		Duration: 5 * time.Millisecond,
		Tags:     map[string]string{"provider": "google"},
	})

	counts := rec.Named(LoginCompleted)
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{
		"provider":    "google",
		"result":      "error",
		"error_class": "backend_unavailable",
	}, counts[0].Tags)
	require.Len(t, rec.Named(LoginCompleted+".duration"), 1)
}

func TestEmit_NilSinkAndEmptyName(t *testing.T) {
	Emit(nil, AuthMetric{Name: LoginStarted})

	var rec statsd.Recorder
	Emit(&rec, AuthMetric{})
	assert.Empty(t, rec.Samples())
}

func TestEmitRenewal(t *testing.T) {
	var rec statsd.Recorder
	EmitRenewal(&rec, time.Millisecond, nil)
	EmitRenewal(&rec, time.Millisecond, errors.New("x"))

	assert.Equal(t, int64(1), rec.CountOf(RenewalSuccess, nil))
	assert.Equal(t, int64(1), rec.CountOf(RenewalFailure, map[string]string{"error_class": "errors_errorstring"}))
	assert.Len(t, rec.Named(RenewalDuration), 2)
}

func TestEmitGuardDecision(t *testing.T) {
	var rec statsd.Recorder
	EmitGuardDecision(&rec, "protected", "redirect")
	assert.Equal(t, int64(1), rec.CountOf(GuardDecision, map[string]string{"route": "protected", "decision": "redirect"}))
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1", "": "x"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
	_, ok := cp[""]
	assert.False(t, ok)
}
