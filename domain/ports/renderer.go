package ports

import (
	"context"

	"github.com/neon-files/preview-sdk/domain/entities"
)

// Renderer turns plugin input into a preview. Implementations report failures
// through the returned RenderResult and never panic on malformed input.
type Renderer interface {
	// Render converts input. hint is an optional, already decoded auxiliary
	// string such as a file extension.
	Render(ctx context.Context, input []byte, hint string) entities.RenderResult

	// FallbackMIME is the MIME type reported when rendering fails before a
	// result could be produced.
	FallbackMIME() string
}
