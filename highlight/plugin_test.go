package highlight_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/highlight"
	"github.com/neon-files/preview-sdk/testing/plugintest"
)

func TestHighlighter_ThroughHost(t *testing.T) {
	r, err := highlight.New()
	require.NoError(t, err)

	plugintest.RunRendererTests(t, r, []plugintest.TestCase{
		{
			Name:  "python source",
			Input: []byte("abc"),
			Hint:  "py",
			Validate: func(t *testing.T, res plugintest.Result) {
				plugintest.AssertRendered(t, res, entities.MIMEHTML)
				assert.Contains(t, string(res.Data), "<style>")
				assert.Contains(t, string(res.Data), `<pre class="neon-code chroma">`)
			},
		},
		{
			Name: "no input no hint",
			Validate: func(t *testing.T, res plugintest.Result) {
				plugintest.AssertRendered(t, res, entities.MIMEHTML)
				assert.True(t, strings.HasSuffix(string(res.Data), "</pre>"))
			},
		},
		{
			Name:  "binary garbage",
			Input: []byte{0x00, 0xff, 0xfe, 0x80},
			Hint:  "bin",
			Validate: func(t *testing.T, res plugintest.Result) {
				plugintest.AssertRendered(t, res, entities.MIMEHTML)
			},
		},
	})
}
