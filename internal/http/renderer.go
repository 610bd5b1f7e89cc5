package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	domainauth "github.com/target/momoino-ui/internal/domain/auth"
)

// Page template names.
const (
	PageSignIn = "signin"
	PageAdmin  = "admin"
	PageError  = "error"
)

// PageData is the view model shared by every page.
type PageData struct {
	Title          string
	CSRFToken      string
	Notice         string
	Providers      []domainauth.ProviderDescriptor
	RedirectTo     string
	Login          string
	Profile        domainauth.Profile
	RenewalSeconds int
}

// TemplateRenderer renders HTML templates for UI responses.
type TemplateRenderer struct {
	mu      sync.Mutex
	t       *template.Template
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing *.tmpl (required)
	DevMode    bool         // Re-parse templates on each render
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer constructs a renderer by parsing templates from the provided config.
// In dev mode TemplateFS should be os.DirFS("frontend/templates") so edits show up without a rebuild.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := &TemplateRenderer{fsys: cfg.TemplateFS, devMode: cfg.DevMode, logger: logger}
	t, err := parseTemplates(cfg.TemplateFS)
	if err != nil {
		logger.Error("template parsing failed",
			slog.Any("error", err),
			slog.String("phase", "initialization"),
		)
		return nil, err
	}
	r.t = t
	return r, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("root").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(fsys, "*.tmpl")
}

func (r *TemplateRenderer) templates() (*template.Template, error) {
	if !r.devMode {
		return r.t, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := parseTemplates(r.fsys)
	if err != nil {
		return nil, err
	}
	r.t = t
	return t, nil
}

// Render writes page with status. Pages are never cached because they embed the CSRF token.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, page string, data PageData) error {
	t, err := r.templates()
	if err != nil {
		r.logTemplateError(page, err)
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, page, data); err != nil {
		r.logTemplateError(page, err)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Error("failed to write rendered template",
			slog.String("template", page),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// RenderError renders the error page, falling back to plain text when the template fails.
func (r *TemplateRenderer) RenderError(w http.ResponseWriter, status int, notice string) {
	data := PageData{Title: http.StatusText(status), Notice: notice}
	if err := r.Render(w, status, PageError, data); err != nil {
		http.Error(w, notice, status)
	}
}

func (r *TemplateRenderer) logTemplateError(templateName string, err error) {
	r.logger.Error("template execution failed",
		slog.String("template", templateName),
		slog.Any("error", err),
	)
}
