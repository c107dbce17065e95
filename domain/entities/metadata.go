package entities

// Pixel layouts reported in ImageMetadata.Format.
const (
	FormatL8     = "L8"
	FormatL16    = "L16"
	FormatLa8    = "La8"
	FormatLa16   = "La16"
	FormatRgb8   = "Rgb8"
	FormatRgba8  = "Rgba8"
	FormatRgb16  = "Rgb16"
	FormatRgba16 = "Rgba16"
)

// ImageMetadata is the payload returned by extract_metadata.
type ImageMetadata struct {
	// Format names the decoded pixel layout.
	Format string `json:"format" jsonschema:"enum=L8,enum=L16,enum=La8,enum=La16,enum=Rgb8,enum=Rgba8,enum=Rgb16,enum=Rgba16" validate:"required"`

	// Codec is the name of the decoder that recognised the image.
	Codec string `json:"codec,omitempty" jsonschema:"example=png"`

	// Width in pixels.
	Width int `json:"width" jsonschema:"minimum=1" validate:"gt=0"`

	// Height in pixels.
	Height int `json:"height" jsonschema:"minimum=1" validate:"gt=0"`
}
