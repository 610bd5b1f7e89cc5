package auth

// Package auth contains domain-level types for the console authentication flow.
// It is pure and free of framework/adapter concerns.

import (
	"encoding/json"
	"time"
)

// Cookie names shared with the backend. The backend owns every value except AttemptCookie.
const (
	IdentityCookie     = "MOMOINO_IDENTITY"
	SessionCookie      = "MOMOINO_SESSION"
	CSRFCookie         = "MOMOINO_CSRF"
	LoginSessionCookie = "MOMOINO_LOGIN_SESSION"

	// AttemptCookie scopes the transient login attempt to one browser session.
	// The popup shares it with its opener because both live on the same origin.
	AttemptCookie = "MOMOINO_LOGIN_ATTEMPT"
)

// CSRFHeader carries the CSRF token on unsafe requests and on responses that rotate it.
const CSRFHeader = "X-Csrf-Token"

// CSRFMetaName is the <meta> name embedding the current token for page scripts.
const CSRFMetaName = "csrf-token"

// MessageSource tags every cross-window authentication message.
const MessageSource = "useOAuth2"

// Lengths used for the state nonce and the PKCE verifier.
const (
	StateLength    = 64
	VerifierLength = 64
)

// AuthorizationRequest is the transient record of one popup login attempt.
// It is consumed exactly once by the callback and removed on success or failure.
type AuthorizationRequest struct {
	Provider     string `json:"provider"`
	State        string `json:"state"`
	UsePKCE      bool   `json:"usePkce"`
	CodeVerifier string `json:"verifier,omitempty"`
}

// Status is the discriminator of an authentication message payload.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// MessagePayload is the result carried from the popup to its opener.
type MessagePayload struct {
	Status  Status          `json:"status"`
	Details json.RawMessage `json:"details,omitempty"`
}

// AuthenticationMessage is posted exactly once per popup flow.
type AuthenticationMessage struct {
	Source  string         `json:"source"`
	Payload MessagePayload `json:"payload"`
}

// SuccessMessage builds the message a popup posts after a completed exchange.
func SuccessMessage() AuthenticationMessage {
	return AuthenticationMessage{Source: MessageSource, Payload: MessagePayload{Status: StatusSuccess}}
}

// ErrorMessage builds a failure message carrying err's text as details.
func ErrorMessage(err error) AuthenticationMessage {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	details, _ := json.Marshal(msg) //nolint:errchkjson // marshalling a string cannot fail
	return AuthenticationMessage{
		Source:  MessageSource,
		Payload: MessagePayload{Status: StatusError, Details: details},
	}
}

// CsrfToken pairs the backend CSRF cookie with the header value that must accompany
// unsafe requests. SetCookies holds the raw Set-Cookie lines for verbatim forwarding.
type CsrfToken struct {
	CookieValue string
	HeaderValue string
	SetCookies  []string
}

// Claims is the payload of the identity token. Only the fields the console reads are mapped;
// Raw keeps the full claim set for role/permission extraction.
type Claims struct {
	SessionID         string         `json:"sid"`
	Subject           string         `json:"sub"`
	ExpiresAt         int64          `json:"exp"`
	NotBefore         int64          `json:"nbf"`
	IssuedAt          int64          `json:"iat"`
	Email             string         `json:"email"`
	EmailVerified     bool           `json:"email_verified"`
	GivenName         string         `json:"given_name"`
	FamilyName        string         `json:"family_name"`
	PreferredUsername string         `json:"preferred_username"`
	Locale            string         `json:"locale"`
	Raw               map[string]any `json:"-"`
}

// Expiry returns the exp claim as a time, or the zero time when absent.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.ExpiresAt, 0)
}

// Profile is the read-only projection of identity claims shown in the console.
type Profile struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"sid,omitempty"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"emailVerified"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	Locale        string   `json:"locale"`
	Roles         []string `json:"roles"`
	Permissions   []string `json:"permissions"`
}

// DisplayName returns the best human label available for the profile.
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	case p.Username != "":
		return p.Username
	default:
		return p.Email
	}
}

// HasRole reports whether the profile carries role.
func (p Profile) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ProviderDescriptor describes a login provider button on the sign-in page.
type ProviderDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	UsePKCE     bool   `json:"usePkce"`
}

// ProviderRecord is an OAuth2 provider as configured on the backend.
type ProviderRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsEnabled bool      `json:"isEnabled"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// Credentials are submitted by the username/password sign-in form.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// TokenPair is the data object returned by login and renewal endpoints.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
