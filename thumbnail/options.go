package thumbnail

import (
	"github.com/neon-files/preview-sdk/application/validation"
)

// Defaults for preview_file.
const (
	DefaultMaxWidth    = 300
	DefaultMaxHeight   = 300
	DefaultJPEGQuality = 85
	DefaultMaxPixels   = 64 * 1024 * 1024
)

// Option configures a Thumbnailer or MetadataExtractor.
type Option func(*rendererConfig)

type rendererConfig struct {
	MaxWidth    int `validate:"min=1,max=8192"`
	MaxHeight   int `validate:"min=1,max=8192"`
	JPEGQuality int `validate:"min=1,max=100"`
	MaxPixels   int `validate:"min=1"`
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		MaxWidth:    DefaultMaxWidth,
		MaxHeight:   DefaultMaxHeight,
		JPEGQuality: DefaultJPEGQuality,
		MaxPixels:   DefaultMaxPixels,
	}
}

// WithBounds sets the box thumbnails are fitted into.
func WithBounds(maxWidth, maxHeight int) Option {
	return func(c *rendererConfig) {
		c.MaxWidth = maxWidth
		c.MaxHeight = maxHeight
	}
}

// WithJPEGQuality sets the JPEG encoder quality (1..100).
func WithJPEGQuality(quality int) Option {
	return func(c *rendererConfig) {
		c.JPEGQuality = quality
	}
}

// WithMaxPixels bounds width*height of images that will be fully decoded.
func WithMaxPixels(n int) Option {
	return func(c *rendererConfig) {
		c.MaxPixels = n
	}
}

func buildConfig(opts []Option) (rendererConfig, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validation.Struct(cfg); err != nil {
		return rendererConfig{}, err
	}
	return cfg, nil
}
