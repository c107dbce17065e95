//go:build wasip1

// Command code-highlighter is a preview plugin that renders source code as
// highlighted HTML.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o code-highlighter.wasm ./cmd/code-highlighter
package main

import (
	"context"
	"log/slog"

	"github.com/neon-files/preview-sdk/application/plugin"
	"github.com/neon-files/preview-sdk/domain/ports"
	"github.com/neon-files/preview-sdk/highlight"
)

var (
	module   = plugin.NewGuestModule()
	renderer ports.Renderer
)

func init() {
	r, err := highlight.New()
	if err != nil {
		// Serve reports a nil renderer as a failed render.
		slog.Error("code-highlighter: renderer unavailable", "error", err)
		return
	}
	renderer = r
}

// main is unused; the host drives the plugin through its exports.
func main() {}

//go:wasmexport init
func initExport() int32 {
	return module.Init()
}

//go:wasmexport highlight_code
func highlightCode(dataPtr, dataLen, auxPtr, auxLen int32) int32 {
	return module.Serve(context.Background(), renderer, dataPtr, dataLen, auxPtr, auxLen)
}

//go:wasmexport preview_file
func previewFile(dataPtr, dataLen, auxPtr, auxLen int32) int32 {
	return highlightCode(dataPtr, dataLen, auxPtr, auxLen)
}
