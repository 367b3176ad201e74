package app

import (
	"github.com/nodeloom/nodeloom/internal/registry"
	"github.com/nodeloom/nodeloom/modules/controlstep"
	"github.com/nodeloom/nodeloom/modules/httpstep"
	"github.com/nodeloom/nodeloom/modules/joinstep"
	"github.com/nodeloom/nodeloom/modules/notify"
	"github.com/nodeloom/nodeloom/modules/templatestep"
)

// coreModules are the builtin step kinds registered when the caller does not
// supply its own module list.
var coreModules = []registry.Module{
	&controlstep.Module{},
	&httpstep.Module{},
	&templatestep.Module{},
	&joinstep.Module{},
	&notify.Module{},
}
