// Package files reads and writes local files.
package files

import (
	"github.com/vk/fluxflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("open-file", "Opens each incoming path and passes on a reader for its content.", newOpenFile)
	r.RegisterStage("write", "Writes each incoming string as a line to a file, or to stdout for '-'.", newWrite)
}
