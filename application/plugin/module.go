// Package plugin implements the export boundary of a preview plugin: it turns
// raw (address, length) arguments into renderer input, runs the renderer with
// panic recovery and hands the flattened result to the host.
package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/domain/errors"
	"github.com/neon-files/preview-sdk/domain/ports"
	"github.com/neon-files/preview-sdk/internal/abi"
)

// StatusOK is the only status an export returns. Failures travel in the
// result, never in the status.
const StatusOK int32 = 0

// Module dispatches export calls to renderers.
type Module struct {
	mem     abi.Memory
	emitter *abi.Emitter
	opts    moduleConfig
}

// Option configures a Module.
type Option func(*moduleConfig)

type moduleConfig struct {
	logger  *slog.Logger
	onPanic func()
}

func defaultModuleConfig() moduleConfig {
	return moduleConfig{
		logger:  slog.Default(),
		onPanic: func() {},
	}
}

// WithLogger sets the logger used to report failed renders.
func WithLogger(logger *slog.Logger) Option {
	return func(c *moduleConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPanicHook registers a function run after a renderer panic is recovered.
func WithPanicHook(fn func()) Option {
	return func(c *moduleConfig) {
		if fn != nil {
			c.onPanic = fn
		}
	}
}

// NewModule binds a memory view and a result emitter.
func NewModule(mem abi.Memory, emitter *abi.Emitter, opts ...Option) *Module {
	cfg := defaultModuleConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Module{mem: mem, emitter: emitter, opts: cfg}
}

// Init is the readiness check behind the init export.
func (m *Module) Init() int32 {
	return StatusOK
}

// Serve handles one export call. dataPtr/dataLen locate the input bytes and
// auxPtr/auxLen an optional UTF-8 hint. The result is delivered through the
// host callback exactly once and Serve always returns StatusOK.
func (m *Module) Serve(ctx context.Context, renderer ports.Renderer, dataPtr, dataLen, auxPtr, auxLen int32) int32 {
	input := abi.ViewBuffer(m.mem, dataPtr, dataLen)
	hint := abi.DecodeString(m.mem, auxPtr, auxLen)

	result := m.render(ctx, renderer, input.Bytes(), hint)
	if result.IsFailed() {
		m.logFailure(result, hint)
	}

	payload, mime := result.Flatten()
	if status := m.emitter.Emit(payload, mime); status != StatusOK {
		m.opts.logger.Warn("plugin: host rejected result", "status", status, "mime", mime)
	}
	return StatusOK
}

// render runs the renderer and converts a panic into a failed result.
func (m *Module) render(ctx context.Context, renderer ports.Renderer, input []byte, hint string) (result entities.RenderResult) {
	if renderer == nil {
		return entities.Failed(entities.NewErrorDetail(entities.ErrorInternal, "no renderer bound to export"), entities.MIMEOctetStream)
	}

	defer func() {
		if r := recover(); r != nil {
			m.opts.onPanic()
			perr := &errors.PanicError{Value: r, Stack: debug.Stack()}
			m.opts.logger.Error("plugin: renderer panic recovered", "error", perr.Error())
			result = entities.Failed(perr.ToErrorDetail(), renderer.FallbackMIME())
		}
	}()

	return renderer.Render(ctx, input, hint)
}

func (m *Module) logFailure(result entities.RenderResult, hint string) {
	detail := result.Error
	if detail == nil {
		detail = entities.NewErrorDetail(entities.ErrorInternal, fmt.Sprintf("render failed without detail (mime %s)", result.MIME))
	}
	m.opts.logger.Warn("plugin: render failed",
		"type", detail.Type,
		"error", detail.Error(),
		"hint", hint,
		"fallback_mime", result.MIME,
	)
}
