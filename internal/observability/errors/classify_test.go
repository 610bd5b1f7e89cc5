package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	apperrors "github.com/target/momoino-ui/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "backend status", err: fmt.Errorf("renew: %w", apperrors.FromStatus(http.StatusUnauthorized, "")), want: "backend_unauthorized"},
		{name: "sentinel", err: fmt.Errorf("callback: %w", domainauth.ErrInvalidState), want: "invalid_state"},
		{name: "context", err: context.DeadlineExceeded, want: "timeout"},
		{name: "custom type", err: fmt.Errorf("wrap: %w", &customErr{}), want: "errors_customerr"},
		{name: "plain", err: goerrors.New("boom"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
