package wazero

import (
	"bytes"
	"context"
	"math/rand/v2"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/neon-files/preview-sdk/internal/abi"
)

// Import names exposed to plugins.
const (
	FuncReturnResult = "host_return_result"
	FuncLog          = "host_log"
	FuncGetTime      = "host_get_time"
	FuncRandom       = "host_random"
)

// Status codes returned by host_return_result and host_log.
const (
	StatusOK            int32 = 0
	StatusNoActiveCall  int32 = 1
	StatusInvalidMemory int32 = 2
	StatusTooLarge      int32 = 3
)

// DefaultMaxResultSize bounds the payload copied out of guest memory.
const DefaultMaxResultSize = 64 * 1024 * 1024

// Delivery is a result read out of guest memory.
type Delivery struct {
	Plugin string
	MIME   string
	Data   []byte
}

// Handlers implement the host side of the imports. Nil fields get defaults:
// results are stored in the context's CallState, logs are dropped, the clock
// is time.Now and random values come from math/rand/v2.
type Handlers struct {
	ReturnResult func(ctx context.Context, res Delivery) int32
	Log          func(ctx context.Context, plugin string, level int32, msg string)
	Now          func() time.Time
	Random       func() int64
}

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "env").
	ModuleName string

	// MaxResultSize limits the payload a guest may hand to host_return_result.
	MaxResultSize uint32

	// MaxLogSize limits a single log line; longer lines are truncated.
	MaxLogSize uint32

	// CustomHandlers adds further imports to the same host module.
	CustomHandlers []CustomHandler
}

// CustomHandler represents an additional host function.
type CustomHandler struct {
	// Handler is the wazero GoModuleFunc implementation.
	Handler api.GoModuleFunc

	// Name is the exported function name.
	Name string

	// ParamTypes are the WASM parameter types.
	ParamTypes []api.ValueType

	// ResultTypes are the WASM result types.
	ResultTypes []api.ValueType
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name.
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// WithMaxResultSize sets the maximum result payload size.
func WithMaxResultSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxResultSize = size
	}
}

// WithMaxLogSize sets the maximum log line size.
func WithMaxLogSize(size uint32) AdapterOption {
	return func(c *AdapterConfig) {
		c.MaxLogSize = size
	}
}

// WithCustomHandler adds a custom wazero handler.
func WithCustomHandler(h CustomHandler) AdapterOption {
	return func(c *AdapterConfig) {
		c.CustomHandlers = append(c.CustomHandlers, h)
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName:    "env",
		MaxResultSize: DefaultMaxResultSize,
		MaxLogSize:    16 * 1024,
	}
}

func (h Handlers) withDefaults() Handlers {
	if h.ReturnResult == nil {
		h.ReturnResult = StoreInCallState
	}
	if h.Log == nil {
		h.Log = func(context.Context, string, int32, string) {}
	}
	if h.Now == nil {
		h.Now = time.Now
	}
	if h.Random == nil {
		h.Random = rand.Int64
	}
	return h
}

// StoreInCallState records a delivery in the context's CallState. It returns
// StatusNoActiveCall when the guest calls back outside an export call.
func StoreInCallState(ctx context.Context, res Delivery) int32 {
	state, ok := CallStateFromContext(ctx)
	if !ok {
		return StatusNoActiveCall
	}
	state.Deliver(res.Data, res.MIME)
	return StatusOK
}

var (
	i32x3 = []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}
	i32   = []api.ValueType{api.ValueTypeI32}
	i64   = []api.ValueType{api.ValueTypeI64}
)

// RegisterWithRuntime instantiates the host module plugins import from.
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, handlers Handlers, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	h := handlers.withDefaults()

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(handleReturnResult(ctx, mod, stack, h, cfg.MaxResultSize))
		}), i32x3, i32).
		WithParameterNames("result_ptr", "result_len", "mime_ptr").
		Export(FuncReturnResult)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = api.EncodeI32(handleLog(ctx, mod, stack, h, cfg.MaxLogSize))
		}), i32x3, i32).
		WithParameterNames("level", "msg_ptr", "msg_len").
		Export(FuncLog)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI64(h.Now().UnixMilli())
		}), nil, i64).
		Export(FuncGetTime)

	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = api.EncodeI64(h.Random())
		}), nil, i64).
		Export(FuncRandom)

	for _, ch := range cfg.CustomHandlers {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(ch.Handler, ch.ParamTypes, ch.ResultTypes).
			Export(ch.Name)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// handleReturnResult copies the payload and MIME string out of guest memory
// before the guest releases them.
func handleReturnResult(ctx context.Context, mod api.Module, stack []uint64, h Handlers, maxSize uint32) int32 {
	ptr := api.DecodeU32(stack[0])
	length := api.DecodeU32(stack[1])
	mimePtr := api.DecodeU32(stack[2])

	if length > maxSize {
		return StatusTooLarge
	}

	var data []byte
	if ptr != 0 && length > 0 {
		raw, ok := mod.Memory().Read(ptr, length)
		if !ok {
			return StatusInvalidMemory
		}
		data = bytes.Clone(raw)
	}

	return h.ReturnResult(ctx, Delivery{
		Plugin: GetPluginName(ctx, mod),
		MIME:   abi.ReadCString(mod.Memory(), mimePtr, abi.MaxMIMELength),
		Data:   data,
	})
}

func handleLog(ctx context.Context, mod api.Module, stack []uint64, h Handlers, maxSize uint32) int32 {
	level := api.DecodeI32(stack[0])
	ptr := api.DecodeU32(stack[1])
	length := min(api.DecodeU32(stack[2]), maxSize)

	mem := mod.Memory()
	msg := abi.DecodeString(mem, int32(ptr), int32(length)) //nolint:gosec // G115: reinterpreted as in the guest ABI
	if msg == "" && ptr != 0 && length > 0 {
		return StatusInvalidMemory
	}

	h.Log(ctx, GetPluginName(ctx, mod), level, msg)
	return StatusOK
}
