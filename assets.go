// Package momoino provides embedded assets for production builds.
package momoino

import "embed"

// In dev mode assets are read from disk so edits show up without a rebuild.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
