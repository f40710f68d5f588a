package cli

import (
	"io"

	"github.com/marcelocantos/boxlog/internal/mcpserver"
)

// RunMCP serves the log query tools over stdio until the client
// disconnects.
func RunMCP(errW io.Writer, opts mcpserver.Options) int {
	if err := mcpserver.Serve(opts); err != nil {
		return fail(errW, "mcp", err)
	}
	return 0
}
