package auth

import "errors"

const retryHint = " Please try again, and if the issue persists, contact the system administrator for assistance."

// Protocol-integrity failures. They are never swallowed: callers convert them into an
// explicit failure signal (an error message to the opener or an error response).
// Messages are user-facing sentences, hence the capitalisation.
//
//nolint:staticcheck // ST1005: shown verbatim in the console.
var (
	ErrMissingState    = errors.New("No OAuth state provided." + retryHint)
	ErrInvalidState    = errors.New("Invalid OAuth state." + retryHint)
	ErrMissingVerifier = errors.New("Unable to retrieve the code verifier." + retryHint)

	ErrMissingCSRFCookie = errors.New("Missing CSRF cookie")
	ErrMissingCSRFToken  = errors.New("Missing CSRF token")
	ErrCannotGetCSRF     = errors.New("Cannot get CSRF token")

	ErrMissingIdentityCookie = errors.New("Missing identity cookie")
	ErrMissingSessionCookie  = errors.New("Missing session cookie")
	ErrMalformedIdentity     = errors.New("malformed identity token")

	ErrSessionExpired  = errors.New("Your session is expired.")
	ErrNoAttempt       = errors.New("no login attempt in progress")
	ErrUnknownProvider = errors.New("unknown login provider")
)

// AuthenticationFailedMessage is shown when the popup reports an error.
const AuthenticationFailedMessage = "Failed to authenticate. Please try again."
