// Package plugintest provides an in-process fake host for preview plugins. It
// drives a plugin.Module the way a WASM host does: inputs are written into a
// flat linear memory, the export receives raw addresses, and results are read
// back from the addresses passed to the result callback.
package plugintest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/neon-files/preview-sdk/application/plugin"
	"github.com/neon-files/preview-sdk/domain/entities"
	"github.com/neon-files/preview-sdk/domain/ports"
	"github.com/neon-files/preview-sdk/internal/abi"
)

// DefaultMemorySize is the size of the fake linear memory.
const DefaultMemorySize = 16 * 1024 * 1024

// Result is one invocation of the result callback as the host observed it.
type Result struct {
	MIMEType   string
	Data       []byte
	DataPtr    uint32
	DataLen    uint32
	MIMEPtr    uint32
	HostStatus int32
}

// IsEmpty reports whether the payload was empty.
func (r Result) IsEmpty() bool {
	return len(r.Data) == 0
}

// Host is a fake host bound to a single Module.
type Host struct {
	arena   *abi.Arena
	module  *plugin.Module
	results []Result
	opts    hostConfig
}

// Option configures a Host.
type Option func(*hostConfig)

type hostConfig struct {
	logger         *slog.Logger
	memorySize     int
	callbackStatus int32
}

func defaultHostConfig() hostConfig {
	return hostConfig{memorySize: DefaultMemorySize}
}

// WithMemorySize sets the size of the fake linear memory.
func WithMemorySize(size int) Option {
	return func(c *hostConfig) {
		if size > 0 {
			c.memorySize = size
		}
	}
}

// WithCallbackStatus makes the result callback return status.
func WithCallbackStatus(status int32) Option {
	return func(c *hostConfig) {
		c.callbackStatus = status
	}
}

// WithLogger sets the logger handed to the Module.
func WithLogger(logger *slog.Logger) Option {
	return func(c *hostConfig) {
		c.logger = logger
	}
}

// NewHost creates a fake host and the Module it drives.
func NewHost(opts ...Option) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Host{arena: abi.NewArena(cfg.memorySize), opts: cfg}
	var moduleOpts []plugin.Option
	if cfg.logger != nil {
		moduleOpts = append(moduleOpts, plugin.WithLogger(cfg.logger))
	}
	h.module = plugin.NewModule(h.arena, abi.NewEmitter(h.arena, h.callback), moduleOpts...)
	return h
}

// Module returns the Module under test.
func (h *Host) Module() *plugin.Module {
	return h.module
}

// Memory returns the fake linear memory.
func (h *Host) Memory() *abi.Arena {
	return h.arena
}

// Results returns every callback observed since the last Reset.
func (h *Host) Results() []Result {
	return h.results
}

// Reset clears memory and recorded results.
func (h *Host) Reset() {
	h.arena.Reset()
	h.results = nil
}

func (h *Host) callback(resultPtr, resultLen, mimePtr uint32) int32 {
	res := Result{
		DataPtr:    resultPtr,
		DataLen:    resultLen,
		MIMEPtr:    mimePtr,
		HostStatus: h.opts.callbackStatus,
	}
	if resultPtr != 0 && resultLen > 0 {
		if data, ok := h.arena.Read(resultPtr, resultLen); ok {
			res.Data = bytes.Clone(data)
		}
	}
	res.MIMEType = abi.ReadCString(h.arena, mimePtr, abi.MaxMIMELength)
	h.results = append(h.results, res)
	return h.opts.callbackStatus
}

// ServeRaw calls Serve with raw arguments and returns the export status and
// the callbacks it produced.
func (h *Host) ServeRaw(ctx context.Context, r ports.Renderer, dataPtr, dataLen, auxPtr, auxLen int32) (int32, []Result) {
	before := len(h.results)
	status := h.module.Serve(ctx, r, dataPtr, dataLen, auxPtr, auxLen)
	return status, h.results[before:]
}

// Serve writes data and hint into memory, calls the export and returns the
// single result it delivered. Empty inputs are passed as (0, 0).
func (h *Host) Serve(ctx context.Context, r ports.Renderer, data []byte, hint string) (Result, error) {
	dataPtr, err := h.arena.Put(data)
	if err != nil {
		return Result{}, fmt.Errorf("plugintest: write input: %w", err)
	}
	hintPtr, err := h.arena.Put([]byte(hint))
	if err != nil {
		return Result{}, fmt.Errorf("plugintest: write hint: %w", err)
	}

	//nolint:gosec // G115: arena offsets fit in int32
	status, results := h.ServeRaw(ctx, r, int32(dataPtr), int32(len(data)), int32(hintPtr), int32(len(hint)))
	if status != plugin.StatusOK {
		return Result{}, fmt.Errorf("plugintest: export returned status %d", status)
	}
	if len(results) != 1 {
		return Result{}, fmt.Errorf("plugintest: expected exactly one result callback, got %d", len(results))
	}
	return results[0], nil
}

// TestCase defines a table entry for RunRendererTests.
type TestCase struct {
	Validate func(t *testing.T, r Result)
	Name     string
	Hint     string
	Input    []byte
}

// RunRendererTests serves each case through a fresh Host.
func RunRendererTests(t *testing.T, r ports.Renderer, tests []TestCase) {
	t.Helper()

	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			host := NewHost()
			result, err := host.Serve(context.Background(), r, tc.Input, tc.Hint)
			if err != nil {
				t.Fatalf("serve: %v", err)
			}
			if tc.Validate != nil {
				tc.Validate(t, result)
			}
		})
	}
}

// AssertMIME asserts the result MIME type.
func AssertMIME(t *testing.T, r Result, expected string) {
	t.Helper()
	if r.MIMEType != expected {
		t.Errorf("expected MIME %q, got %q", expected, r.MIMEType)
	}
}

// AssertEmpty asserts the payload is empty and was passed as (0, 0).
func AssertEmpty(t *testing.T, r Result) {
	t.Helper()
	if !r.IsEmpty() || r.DataPtr != 0 || r.DataLen != 0 {
		t.Errorf("expected empty payload at (0, 0), got %d bytes at (%d, %d)", len(r.Data), r.DataPtr, r.DataLen)
	}
}

// AssertRendered asserts the payload is non-empty and has the given MIME type.
func AssertRendered(t *testing.T, r Result, mime string) {
	t.Helper()
	if r.IsEmpty() {
		t.Errorf("expected a payload, got none (MIME %q)", r.MIMEType)
	}
	AssertMIME(t, r, mime)
}

// AssertFallback asserts the result is what a failed render flattens to.
func AssertFallback(t *testing.T, r Result) {
	t.Helper()
	AssertEmpty(t, r)
	if r.MIMEType != entities.MIMEOctetStream && r.MIMEType != entities.MIMEJSON {
		t.Errorf("unexpected fallback MIME %q", r.MIMEType)
	}
}
