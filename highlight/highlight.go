// Package highlight renders source code as self-contained HTML with chroma.
package highlight

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/neon-files/preview-sdk/application/validation"
	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/domain/errors"
	"github.com/neon-files/preview-sdk/internal/abi"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// DefaultTabWidth is the tab width used when none is configured.
const DefaultTabWidth = 4

// Renderer highlights source code. It is safe for sequential reuse; the
// stylesheet is generated once in New.
type Renderer struct {
	formatter *html.Formatter
	style     *chroma.Style
	preClass  string
	css       []byte
}

// Option configures a Renderer.
type Option func(*rendererConfig)

type rendererConfig struct {
	Style       string `validate:"required"`
	ClassPrefix string `validate:"omitempty,max=32,printascii,excludesall=<>&"`
	TabWidth    int    `validate:"min=1,max=16"`
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{
		Style:    DefaultStyle,
		TabWidth: DefaultTabWidth,
	}
}

// WithStyle selects a chroma style by name.
func WithStyle(name string) Option {
	return func(c *rendererConfig) {
		c.Style = strings.ToLower(strings.TrimSpace(name))
	}
}

// WithTabWidth sets the rendered tab width (1..16).
func WithTabWidth(n int) Option {
	return func(c *rendererConfig) {
		c.TabWidth = n
	}
}

// WithClassPrefix prefixes every CSS class chroma emits.
func WithClassPrefix(prefix string) Option {
	return func(c *rendererConfig) {
		c.ClassPrefix = prefix
	}
}

// New creates a Renderer. Unknown styles and out-of-range options are
// reported as *errors.ConfigError.
func New(opts ...Option) (*Renderer, error) {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validation.Struct(cfg); err != nil {
		return nil, err
	}

	style, ok := styles.Registry[cfg.Style]
	if !ok {
		return nil, &errors.ConfigError{Field: "Style", Err: fmt.Errorf("unknown chroma style %q", cfg.Style)}
	}

	formatter := html.New(
		html.WithClasses(true),
		html.PreventSurroundingPre(true),
		html.TabWidth(cfg.TabWidth),
		html.ClassPrefix(cfg.ClassPrefix),
	)

	var css bytes.Buffer
	if err := formatter.WriteCSS(&css, style); err != nil {
		return nil, &errors.EncodeError{Format: "css", Err: err}
	}

	return &Renderer{
		formatter: formatter,
		style:     style,
		preClass:  "neon-code " + cfg.ClassPrefix + "chroma",
		css:       css.Bytes(),
	}, nil
}

// FallbackMIME implements ports.Renderer.
func (r *Renderer) FallbackMIME() string {
	return entities.MIMEOctetStream
}

// Language returns the name of the lexer chosen for hint.
func (r *Renderer) Language(hint string) string {
	return lexerFor(hint).Config().Name
}

// Render implements ports.Renderer. input is decoded as lossy UTF-8 and hint
// is a file extension with or without a leading dot. Empty input still
// produces the wrapper document.
func (r *Renderer) Render(ctx context.Context, input []byte, hint string) entities.RenderResult {
	if err := ctx.Err(); err != nil {
		return entities.Failed(errors.ToErrorDetail(err), r.FallbackMIME())
	}

	lexer := chroma.Coalesce(lexerFor(hint))
	iterator, err := lexer.Tokenise(nil, abi.DecodeBytes(input))
	if err != nil {
		return entities.Failed(errors.ToErrorDetail(&errors.DecodeError{Codec: lexer.Config().Name, Err: err}), r.FallbackMIME())
	}

	var body bytes.Buffer
	if err := r.formatter.Format(&body, r.style, iterator); err != nil {
		return entities.Failed(errors.ToErrorDetail(&errors.EncodeError{Format: "html", Err: err}), r.FallbackMIME())
	}

	var doc bytes.Buffer
	doc.Grow(len(r.css) + body.Len() + 64)
	doc.WriteString("<style>")
	doc.Write(r.css)
	doc.WriteString(`</style><pre class="`)
	doc.WriteString(r.preClass)
	doc.WriteString(`">`)
	doc.Write(body.Bytes())
	doc.WriteString("</pre>")

	return entities.Rendered(doc.Bytes(), entities.MIMEHTML)
}

// plaintext is the lexer used when a hint names no known language.
var plaintext = func() chroma.Lexer {
	if lexer := lexers.Get("plaintext"); lexer != nil {
		return lexer
	}
	return lexers.Fallback
}()

// lexerFor resolves an extension hint: first as a filename glob, then as a
// lexer name or alias, falling back to plain text.
func lexerFor(hint string) chroma.Lexer {
	ext := strings.Trim(strings.TrimSpace(hint), ".")
	if ext == "" {
		return plaintext
	}
	if lexer := lexers.Match("file." + ext); lexer != nil {
		return lexer
	}
	if lexer := lexers.Get(ext); lexer != nil {
		return lexer
	}
	return plaintext
}
