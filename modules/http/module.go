// Package http fetches remote documents over HTTP.
package http

import (
	"github.com/vk/fluxflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("open-http", "Fetches each incoming URL and passes on a reader for the response body.", newOpenHTTP)
}
