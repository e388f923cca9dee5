package app

import (
	"io"

	"github.com/vk/taskgrid/internal/handlers"
	"github.com/vk/taskgrid/modules/env_vars"
	"github.com/vk/taskgrid/modules/fail"
	"github.com/vk/taskgrid/modules/http_request"
	"github.com/vk/taskgrid/modules/print"
	"github.com/vk/taskgrid/modules/sleep"
	"github.com/vk/taskgrid/modules/socketio"
)

// CoreModules is the definitive list of all modules that are compiled into
// the taskgrid binary. The print runner writes to outW.
func CoreModules(outW io.Writer) []handlers.Module {
	return []handlers.Module{
		&env_vars.Module{},
		&fail.Module{},
		&http_request.Module{Client: http_request.NewClient()},
		&print.Module{Out: outW},
		&sleep.Module{},
		&socketio.Module{},
	}
}
