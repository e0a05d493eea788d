// Package text turns byte streams into lines and edits them.
package text

import (
	"github.com/vk/fluxflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("as-lines", "Splits a reader into lines.", newAsLines)
	r.RegisterStage("as-text", "Reads a reader completely into one string.", newAsText)
	r.RegisterStage("match", "Keeps lines matching a regular expression, optionally rewriting them.", newMatch)
	r.RegisterStage("trim", "Strips leading and trailing whitespace or the given characters.", newTrim)
}
