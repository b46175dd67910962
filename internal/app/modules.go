package app

import (
	"io"

	"github.com/vk/flowgrid/internal/registry"
	"github.com/vk/flowgrid/modules/env_vars"
	"github.com/vk/flowgrid/modules/http_request"
	"github.com/vk/flowgrid/modules/input"
	"github.com/vk/flowgrid/modules/output"
	"github.com/vk/flowgrid/modules/print"
	"github.com/vk/flowgrid/modules/s3"
	"github.com/vk/flowgrid/modules/socketio"
	"github.com/vk/flowgrid/modules/template"
)

// CoreModules returns the modules compiled into the flowgrid binary. A fresh
// set is built per App because modules hold per-instance clients. The print
// module writes to printW so that it never interleaves with the result.
func CoreModules(printW io.Writer) []registry.Module {
	return []registry.Module{
		&input.Module{},
		&output.Module{},
		&template.Module{},
		&print.Module{Out: printW},
		&env_vars.Module{},
		&http_request.Module{},
		&s3.Module{},
		&socketio.Module{},
	}
}
