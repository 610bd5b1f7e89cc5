//go:build tools

// Package tools documents development tool dependencies.
// These tools are installed with `go install` or run through `go run`, and are not
// imported by the module.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks from internal/ports
//   Run: go generate ./internal/mocks (uses go.uber.org/mock/mockgen@v0.6.0)
//
// Air - live reload of the console while editing templates and assets (DEV=true)
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
