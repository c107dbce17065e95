package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"math"

	// Registered decoders. The codec name reported in metadata is the name
	// each package registers under.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/domain/errors"
)

// readHeader decodes only the image header.
func readHeader(input []byte) (image.Config, string, error) {
	cfg, codec, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		return image.Config{}, "", &errors.DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, "", &errors.DecodeError{Codec: codec, Err: image.ErrFormat}
	}
	return cfg, codec, nil
}

// checkHeader reads the header of input and rejects images above maxPixels before any
// pixel data is decoded.
func checkHeader(input []byte, maxPixels int) (string, error) {
	cfg, codec, err := readHeader(input)
	if err != nil {
		return "", err
	}
	if exceedsPixels(cfg.Width, cfg.Height, maxPixels) {
		return codec, &errors.LimitError{Width: cfg.Width, Height: cfg.Height, MaxPixels: maxPixels}
	}
	return codec, nil
}

// decode fully decodes input after checking the header against maxPixels.
// EXIF orientation is applied so thumbnails come out upright.
func decode(input []byte, maxPixels int) (image.Image, string, error) {
	codec, err := checkHeader(input, maxPixels)
	if err != nil {
		return nil, codec, err
	}

	img, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		return nil, codec, &errors.DecodeError{Codec: codec, Err: err}
	}
	return img, codec, nil
}

// decodeStored fully decodes input as stored, without applying EXIF
// orientation. Truncated or corrupt pixel data fails here even when the
// header is intact.
func decodeStored(input []byte, maxPixels int) (image.Image, string, error) {
	codec, err := checkHeader(input, maxPixels)
	if err != nil {
		return nil, codec, err
	}

	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, codec, &errors.DecodeError{Codec: codec, Err: err}
	}
	return img, codec, nil
}

func exceedsPixels(width, height, maxPixels int) bool {
	return int64(width)*int64(height) > int64(maxPixels)
}

// fitWithin scales (width, height) down to fit (maxWidth, maxHeight) keeping
// the aspect ratio. Dimensions already within bounds are returned unchanged.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}
	ratio := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))
	return max(w, 1), max(h, 1)
}

// pixelFormat names the pixel layout of a decoded image.
//
// Two layouts are not recoverable from the decoded model alone. PNG
// gray+alpha decodes to NRGBA, so the IHDR colour type is consulted. GIF
// frames are always reported as Rgba8 since the format carries a transparency
// index and readers expand it to four channels.
func pixelFormat(img image.Image, codec string, input []byte) string {
	if codec == "gif" {
		return entities.FormatRgba8
	}
	if codec == "png" {
		if depth, ok := pngGrayAlpha(input); ok {
			if depth == 16 {
				return entities.FormatLa16
			}
			return entities.FormatLa8
		}
	}

	model := img.ColorModel()
	if palette, ok := model.(color.Palette); ok {
		for _, c := range palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return entities.FormatRgba8
			}
		}
		return entities.FormatRgb8
	}

	switch model {
	case color.GrayModel, color.AlphaModel:
		return entities.FormatL8
	case color.Gray16Model, color.Alpha16Model:
		return entities.FormatL16
	case color.RGBAModel, color.YCbCrModel, color.CMYKModel:
		return entities.FormatRgb8
	case color.NRGBAModel, color.NYCbCrAModel:
		return entities.FormatRgba8
	case color.RGBA64Model:
		return entities.FormatRgb16
	case color.NRGBA64Model:
		return entities.FormatRgba16
	}
	return entities.FormatRgba8
}

const (
	pngSignature     = "\x89PNG\r\n\x1a\n"
	pngColorGrayA    = 4
	pngBitDepthIndex = 24
	pngColorIndex    = 25
)

// pngGrayAlpha reports the bit depth of a PNG whose IHDR declares gray+alpha.
func pngGrayAlpha(input []byte) (int, bool) {
	if len(input) <= pngColorIndex || string(input[:len(pngSignature)]) != pngSignature ||
		string(input[12:16]) != "IHDR" {
		return 0, false
	}
	if input[pngColorIndex] != pngColorGrayA {
		return 0, false
	}
	return int(input[pngBitDepthIndex]), true
}
