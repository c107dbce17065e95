package thumbnail

import (
	"context"
	"encoding/json"

	"github.com/neon-files/preview-sdk/application/schema"
	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/domain/errors"
)

// MetadataExtractor implements extract_metadata. The image is fully decoded,
// so corrupt pixel data behind a valid header is rejected.
type MetadataExtractor struct {
	cfg rendererConfig
}

// NewMetadataExtractor creates a MetadataExtractor. Only WithMaxPixels
// affects it.
func NewMetadataExtractor(opts ...Option) (*MetadataExtractor, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return &MetadataExtractor{cfg: cfg}, nil
}

// FallbackMIME implements ports.Renderer.
func (m *MetadataExtractor) FallbackMIME() string {
	return entities.MIMEJSON
}

// Render reports the dimensions and pixel layout of input as JSON.
func (m *MetadataExtractor) Render(ctx context.Context, input []byte, _ string) entities.RenderResult {
	if len(input) == 0 {
		return entities.Empty(m.FallbackMIME())
	}
	if err := ctx.Err(); err != nil {
		return entities.Failed(errors.ToErrorDetail(err), m.FallbackMIME())
	}

	meta, err := m.Inspect(input)
	if err != nil {
		return entities.Failed(errors.ToErrorDetail(err), m.FallbackMIME())
	}

	payload, err := json.Marshal(meta)
	if err != nil {
		return entities.Failed(errors.ToErrorDetail(&errors.EncodeError{Format: "json", Err: err}), m.FallbackMIME())
	}
	return entities.Rendered(payload, entities.MIMEJSON)
}

// Inspect decodes input and returns its stored dimensions and pixel layout.
func (m *MetadataExtractor) Inspect(input []byte) (entities.ImageMetadata, error) {
	img, codec, err := decodeStored(input, m.cfg.MaxPixels)
	if err != nil {
		return entities.ImageMetadata{}, err
	}
	bounds := img.Bounds()
	return entities.ImageMetadata{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: pixelFormat(img, codec, input),
		Codec:  codec,
	}, nil
}

// MetadataSchema returns the JSON Schema of the extract_metadata payload.
func MetadataSchema() ([]byte, error) {
	return schema.GenerateSchema(entities.ImageMetadata{})
}

// MetadataValidator compiles MetadataSchema for checking payloads.
func MetadataValidator() (*schema.Validator, error) {
	return schema.ValidatorFor("image_metadata", entities.ImageMetadata{})
}
