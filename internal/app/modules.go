package app

import (
	"github.com/vk/countergrid/internal/registry"
	"github.com/vk/countergrid/modules/counter"
	"github.com/vk/countergrid/modules/countercall"
)

// coreModules is the definitive list of all modules that are compiled into
// the countergrid binary.
var coreModules = []registry.Module{
	&counter.Module{},
	&countercall.Module{},
}
