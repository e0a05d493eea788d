// Package socketio sends flow values to a socket.io server.
package socketio

import (
	"github.com/vk/fluxflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the module's components with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("emit-socketio", "Emits every value as a socket.io event.", newEmit)
}
