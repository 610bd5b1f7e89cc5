// Package identity reads the identity token issued by the backend.
//
// Tokens are decoded without signature verification: trust comes from the backend issuing
// them over HTTPS as cookies, and the console only uses the claims for display and for
// matching the session id. Nothing here authorises access on its own.
package identity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

// Default JMESPath expressions locating roles and permissions in the claim set.
const (
	DefaultRolesPath       = "roles"
	DefaultPermissionsPath = "permissions"
)

// Options configures claim extraction.
type Options struct {
	RolesPath       string
	PermissionsPath string
}

// Decoder turns identity tokens into claims and profiles.
type Decoder struct {
	parser          *jwt.Parser
	rolesPath       string
	permissionsPath string
}

// NewDecoder validates the claim expressions and returns a Decoder.
func NewDecoder(opts Options) (*Decoder, error) {
	rolesPath := strings.TrimSpace(opts.RolesPath)
	if rolesPath == "" {
		rolesPath = DefaultRolesPath
	}
	permissionsPath := strings.TrimSpace(opts.PermissionsPath)
	if permissionsPath == "" {
		permissionsPath = DefaultPermissionsPath
	}
	for _, expr := range []string{rolesPath, permissionsPath} {
		if _, err := jmespath.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile claim path %q: %w", expr, err)
		}
	}
	return &Decoder{
		parser:          jwt.NewParser(jwt.WithoutClaimsValidation()),
		rolesPath:       rolesPath,
		permissionsPath: permissionsPath,
	}, nil
}

// MustNewDecoder is NewDecoder for static configuration; it panics on invalid expressions.
func MustNewDecoder(opts Options) *Decoder {
	d, err := NewDecoder(opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Claims decodes token without verifying its signature.
// Missing optional claims are tolerated; an empty or structurally invalid token is an error.
func (d *Decoder) Claims(token string) (domainauth.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return domainauth.Claims{}, domainauth.ErrMissingIdentityCookie
	}

	mc := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, mc); err != nil {
		return domainauth.Claims{}, fmt.Errorf("%w: %w", domainauth.ErrMalformedIdentity, err)
	}

	c := domainauth.Claims{Raw: map[string]any(mc)}
	var err error
	fields := []struct {
		name string
		dst  *string
	}{
		{"sid", &c.SessionID},
		{"sub", &c.Subject},
		{"email", &c.Email},
		{"given_name", &c.GivenName},
		{"family_name", &c.FamilyName},
		{"preferred_username", &c.PreferredUsername},
		{"locale", &c.Locale},
	}
	for _, f := range fields {
		if *f.dst, err = stringClaim(mc, f.name); err != nil {
			return domainauth.Claims{}, err
		}
	}

	if v, ok := mc["email_verified"]; ok && v != nil {
		b, isBool := v.(bool)
		if !isBool {
			return domainauth.Claims{}, fmt.Errorf("%w: email_verified is not a boolean", domainauth.ErrMalformedIdentity)
		}
		c.EmailVerified = b
	}

	if c.ExpiresAt, err = numericClaim(mc.GetExpirationTime); err != nil {
		return domainauth.Claims{}, err
	}
	if c.NotBefore, err = numericClaim(mc.GetNotBefore); err != nil {
		return domainauth.Claims{}, err
	}
	if c.IssuedAt, err = numericClaim(mc.GetIssuedAt); err != nil {
		return domainauth.Claims{}, err
	}
	return c, nil
}

// Profile decodes token and projects it onto a Profile.
func (d *Decoder) Profile(token string) (domainauth.Profile, error) {
	c, err := d.Claims(token)
	if err != nil {
		return domainauth.Profile{}, err
	}
	return d.ProfileFromClaims(c), nil
}

// ProfileFromClaims projects already decoded claims.
func (d *Decoder) ProfileFromClaims(c domainauth.Claims) domainauth.Profile {
	return domainauth.Profile{
		ID:            c.Subject,
		SessionID:     c.SessionID,
		Username:      c.PreferredUsername,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		FirstName:     c.GivenName,
		LastName:      c.FamilyName,
		Locale:        c.Locale,
		Roles:         searchStrings(d.rolesPath, c.Raw),
		Permissions:   searchStrings(d.permissionsPath, c.Raw),
	}
}

// IsValid reports whether token's sid claim matches the session cookie value.
// Both must be present and equal.
func (d *Decoder) IsValid(token, session string) bool {
	if token == "" || session == "" {
		return false
	}
	c, err := d.Claims(token)
	if err != nil {
		return false
	}
	return c.SessionID != "" && c.SessionID == session
}

// IdentityCookie returns the identity token from r or ErrMissingIdentityCookie.
func IdentityCookie(r *http.Request) (string, error) {
	return cookieValue(r, domainauth.IdentityCookie, domainauth.ErrMissingIdentityCookie)
}

// SessionCookie returns the session id from r or ErrMissingSessionCookie.
func SessionCookie(r *http.Request) (string, error) {
	return cookieValue(r, domainauth.SessionCookie, domainauth.ErrMissingSessionCookie)
}

// ProfileFromRequest decodes the identity cookie of r.
func (d *Decoder) ProfileFromRequest(r *http.Request) (domainauth.Profile, error) {
	token, err := IdentityCookie(r)
	if err != nil {
		return domainauth.Profile{}, err
	}
	return d.Profile(token)
}

// RequestIsValid applies IsValid to the cookies carried by r.
func (d *Decoder) RequestIsValid(r *http.Request) bool {
	token, err := IdentityCookie(r)
	if err != nil {
		return false
	}
	session, err := SessionCookie(r)
	if err != nil {
		return false
	}
	return d.IsValid(token, session)
}

func cookieValue(r *http.Request, name string, missing error) (string, error) {
	c, err := r.Cookie(name)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", missing
	}
	return c.Value, nil
}

func stringClaim(mc jwt.MapClaims, name string) (string, error) {
	v, ok := mc[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", domainauth.ErrMalformedIdentity, name)
	}
	return s, nil
}

func numericClaim(get func() (*jwt.NumericDate, error)) (int64, error) {
	nd, err := get()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domainauth.ErrMalformedIdentity, err)
	}
	if nd == nil {
		return 0, nil
	}
	return nd.Unix(), nil
}

func searchStrings(expr string, data map[string]any) []string {
	if len(data) == 0 {
		return []string{}
	}
	res, err := jmespath.Search(expr, data)
	if err != nil || res == nil {
		return []string{}
	}
	switch v := res.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// IsMalformed reports whether err came from an undecodable identity token.
func IsMalformed(err error) bool {
	return errors.Is(err, domainauth.ErrMalformedIdentity)
}
