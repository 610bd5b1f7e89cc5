package oauthpopup

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

//go:embed templates/callback.html.tmpl
var templateFS embed.FS

var callbackPage = template.Must(template.ParseFS(templateFS, "templates/callback.html.tmpl"))

// DefaultFallbackURL is where a popup without an opener navigates.
const DefaultFallbackURL = "/admin/"

// Reporter renders the popup page that posts the message to the opener and closes itself.
type Reporter struct {
	FallbackURL string
}

type callbackView struct {
	Message     template.JS
	FallbackURL string
}

// Render writes the popup page for msg. The page is never cached.
func (r Reporter) Render(w http.ResponseWriter, msg domainauth.AuthenticationMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode authentication message: %w", err)
	}
	fallback := r.FallbackURL
	if fallback == "" {
		fallback = DefaultFallbackURL
	}

	var buf bytes.Buffer
	// json.Marshal escapes <, > and & so the payload is safe inside a script element.
	if err := callbackPage.Execute(&buf, callbackView{Message: template.JS(payload), FallbackURL: fallback}); err != nil { //nolint:gosec // G203: payload is JSON produced above
		return fmt.Errorf("render callback page: %w", err)
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}
