package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
	apperrors "github.com/target/momoino-ui/internal/errors"
)

var sentinelClasses = []struct {
	err   error
	class string
}{
	{domainauth.ErrMissingState, "missing_state"},
	{domainauth.ErrInvalidState, "invalid_state"},
	{domainauth.ErrMissingVerifier, "missing_verifier"},
	{domainauth.ErrMissingCSRFCookie, "missing_csrf_cookie"},
	{domainauth.ErrMissingCSRFToken, "missing_csrf_token"},
	{domainauth.ErrMissingIdentityCookie, "missing_identity"},
	{domainauth.ErrMissingSessionCookie, "missing_session"},
	{domainauth.ErrMalformedIdentity, "malformed_identity"},
	{domainauth.ErrNoAttempt, "no_attempt"},
	{domainauth.ErrUnknownProvider, "unknown_provider"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "timeout"},
}

// Classify returns a short, low-cardinality label for err suitable for metric tags.
// Backend failures are labelled by their code, known sentinels by name, anything else by
// the innermost concrete type.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) {
		return "backend_" + string(appErr.Code)
	}
	for _, s := range sentinelClasses {
		if goerrors.Is(err, s.err) {
			return s.class
		}
	}
	var netErr net.Error
	if goerrors.As(err, &netErr) {
		return "network"
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
