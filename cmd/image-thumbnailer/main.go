//go:build wasip1

// Command image-thumbnailer is a preview plugin that renders JPEG thumbnails
// and reports image metadata as JSON.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o image-thumbnailer.wasm ./cmd/image-thumbnailer
package main

import (
	"context"
	"log/slog"

	"github.com/neon-files/preview-sdk/application/plugin"
	"github.com/neon-files/preview-sdk/domain/ports"
	"github.com/neon-files/preview-sdk/thumbnail"
)

var (
	module    = plugin.NewGuestModule()
	thumbs    ports.Renderer
	extractor ports.Renderer
)

func init() {
	t, err := thumbnail.NewThumbnailer()
	if err != nil {
		slog.Error("image-thumbnailer: renderer unavailable", "error", err)
		return
	}
	thumbs = t

	m, err := thumbnail.NewMetadataExtractor()
	if err != nil {
		slog.Error("image-thumbnailer: metadata extractor unavailable", "error", err)
		return
	}
	extractor = m
}

func main() {}

//go:wasmexport init
func initExport() int32 {
	return module.Init()
}

//go:wasmexport preview_file
func previewFile(dataPtr, dataLen, auxPtr, auxLen int32) int32 {
	return module.Serve(context.Background(), thumbs, dataPtr, dataLen, auxPtr, auxLen)
}

//go:wasmexport extract_metadata
func extractMetadata(dataPtr, dataLen, auxPtr, auxLen int32) int32 {
	return module.Serve(context.Background(), extractor, dataPtr, dataLen, auxPtr, auxLen)
}
