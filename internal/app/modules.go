package app

import (
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/modules/core"
	"github.com/vk/fluxflow/modules/env"
	"github.com/vk/fluxflow/modules/files"
	fluxhttp "github.com/vk/fluxflow/modules/http"
	"github.com/vk/fluxflow/modules/print"
	"github.com/vk/fluxflow/modules/records"
	"github.com/vk/fluxflow/modules/socketio"
	"github.com/vk/fluxflow/modules/text"
)

// coreModules is the definitive list of all modules that are compiled into
// the flux binary.
var coreModules = []registry.Module{
	&core.Module{},
	&env.Module{},
	&files.Module{},
	&fluxhttp.Module{},
	&print.Module{},
	&records.Module{},
	&socketio.Module{},
	&text.Module{},
}
