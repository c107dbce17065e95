package thumbnail_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/testing/plugintest"
	"github.com/neon-files/preview-sdk/thumbnail"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func TestPreviewFile_ThroughHost(t *testing.T) {
	th, err := thumbnail.NewThumbnailer()
	require.NoError(t, err)

	plugintest.RunRendererTests(t, th, []plugintest.TestCase{
		{
			Name:  "png",
			Input: pngBytes(t, 640, 480),
			Hint:  "png",
			Validate: func(t *testing.T, r plugintest.Result) {
				plugintest.AssertRendered(t, r, entities.MIMEJPEG)
				assert.Equal(t, []byte{0xff, 0xd8}, r.Data[:2])
			},
		},
		{
			Name:  "corrupt",
			Input: []byte("not an image at all"),
			Validate: func(t *testing.T, r plugintest.Result) {
				plugintest.AssertEmpty(t, r)
				plugintest.AssertMIME(t, r, entities.MIMEOctetStream)
			},
		},
		{
			Name: "empty",
			Validate: func(t *testing.T, r plugintest.Result) {
				plugintest.AssertEmpty(t, r)
				plugintest.AssertMIME(t, r, entities.MIMEOctetStream)
			},
		},
	})
}

func TestExtractMetadata_ThroughHost(t *testing.T) {
	extractor, err := thumbnail.NewMetadataExtractor()
	require.NoError(t, err)

	plugintest.RunRendererTests(t, extractor, []plugintest.TestCase{
		{
			Name:  "png",
			Input: pngBytes(t, 12, 34),
			Validate: func(t *testing.T, r plugintest.Result) {
				plugintest.AssertRendered(t, r, entities.MIMEJSON)
				assert.JSONEq(t, `{"width":12,"height":34,"format":"L8","codec":"png"}`, string(r.Data))
			},
		},
		{
			Name:  "corrupt",
			Input: []byte{0xde, 0xad, 0xbe, 0xef},
			Validate: func(t *testing.T, r plugintest.Result) {
				plugintest.AssertEmpty(t, r)
				plugintest.AssertMIME(t, r, entities.MIMEJSON)
			},
		},
		{
			Name:  "truncated png",
			Input: pngBytes(t, 64, 64)[:40],
			Validate: func(t *testing.T, r plugintest.Result) {
				plugintest.AssertEmpty(t, r)
				plugintest.AssertMIME(t, r, entities.MIMEJSON)
			},
		},
	})
}

func TestExports_AgreeOnTruncatedImage(t *testing.T) {
	input := pngBytes(t, 64, 64)[:40]

	th, err := thumbnail.NewThumbnailer()
	require.NoError(t, err)
	extractor, err := thumbnail.NewMetadataExtractor()
	require.NoError(t, err)

	thumbResult, err := plugintest.NewHost().Serve(context.Background(), th, input, "png")
	require.NoError(t, err)
	metaResult, err := plugintest.NewHost().Serve(context.Background(), extractor, input, "png")
	require.NoError(t, err)

	assert.True(t, thumbResult.IsEmpty())
	assert.Equal(t, entities.MIMEOctetStream, thumbResult.MIMEType)
	assert.True(t, metaResult.IsEmpty(), "metadata payload: %s", metaResult.Data)
	assert.Equal(t, entities.MIMEJSON, metaResult.MIMEType)
}
