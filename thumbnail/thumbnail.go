// Package thumbnail renders image previews: downscaled JPEG thumbnails and
// JSON metadata.
package thumbnail

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"

	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/domain/errors"
)

// Thumbnailer implements preview_file for images.
type Thumbnailer struct {
	cfg rendererConfig
}

// NewThumbnailer creates a Thumbnailer.
func NewThumbnailer(opts ...Option) (*Thumbnailer, error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Thumbnailer{cfg: cfg}, nil
}

// FallbackMIME implements ports.Renderer.
func (t *Thumbnailer) FallbackMIME() string {
	return entities.MIMEOctetStream
}

// Render decodes input, fits it within the configured bounds with Lanczos
// resampling and encodes the result as JPEG. The hint is ignored; the format
// is sniffed from the bytes.
func (t *Thumbnailer) Render(ctx context.Context, input []byte, _ string) entities.RenderResult {
	if len(input) == 0 {
		return entities.Empty(t.FallbackMIME())
	}

	img, _, err := decode(input, t.cfg.MaxPixels)
	if err != nil {
		return t.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return t.fail(err)
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), t.cfg.MaxWidth, t.cfg.MaxHeight)
	var thumb *image.NRGBA
	if width == bounds.Dx() && height == bounds.Dy() {
		thumb = imaging.Clone(img)
	} else {
		thumb = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	dropAlpha(thumb)

	var out bytes.Buffer
	if err := imaging.Encode(&out, thumb, imaging.JPEG, imaging.JPEGQuality(t.cfg.JPEGQuality)); err != nil {
		return t.fail(&errors.EncodeError{Format: "jpeg", Err: err})
	}
	return entities.Rendered(out.Bytes(), entities.MIMEJPEG)
}

func (t *Thumbnailer) fail(err error) entities.RenderResult {
	return entities.Failed(errors.ToErrorDetail(err), t.FallbackMIME())
}

// dropAlpha makes every pixel opaque while keeping its colour channels, so
// transparent regions keep their stored colour instead of turning black.
func dropAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
