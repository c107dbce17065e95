package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	adapter "github.com/neon-files/preview-sdk/infrastructure/wazero"
)

// PluginInstance is one instantiated plugin. Calls are serialized.
type PluginInstance struct {
	module     api.Module
	compiled   wazero.CompiledModule
	allocate   api.Function
	deallocate api.Function
	logger     *zap.Logger
	heap       *bumpHeap
	name       string
	timeout    time.Duration
	mu         sync.Mutex
	closed     bool
}

func newPluginInstance(name string, mod api.Module, compiled wazero.CompiledModule, logger *zap.Logger, timeout time.Duration) *PluginInstance {
	p := &PluginInstance{
		name:       name,
		module:     mod,
		compiled:   compiled,
		logger:     logger,
		timeout:    timeout,
		allocate:   mod.ExportedFunction("allocate"),
		deallocate: mod.ExportedFunction("deallocate"),
	}
	if p.allocate == nil {
		p.heap = newBumpHeap(mod.Memory())
	}
	return p
}

// Name returns the name the plugin was loaded under.
func (p *PluginInstance) Name() string {
	return p.name
}

// HasExport reports whether the plugin exports the named function.
func (p *PluginInstance) HasExport(name string) bool {
	return p.module.ExportedFunction(name) != nil
}

// Init calls the plugin's init export.
func (p *PluginInstance) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	fn := p.module.ExportedFunction(ExportInit)
	if fn == nil {
		return &FunctionNotFoundError{Plugin: p.name, Function: ExportInit}
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	results, err := fn.Call(adapter.WithPluginName(ctx, p.name))
	if err != nil {
		return p.callError(ctx, ExportInit, err)
	}
	if status := statusOf(results); status != 0 {
		return &StatusError{Plugin: p.name, Export: ExportInit, Status: status}
	}
	return nil
}

// Call invokes a (data_ptr, data_len, aux_ptr, aux_len) -> status export with
// data and hint copied into guest memory, and returns the delivered result.
func (p *PluginInstance) Call(ctx context.Context, export string, data []byte, hint string) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	fn := p.module.ExportedFunction(export)
	if fn == nil {
		return nil, &FunctionNotFoundError{Plugin: p.name, Function: export}
	}

	start := time.Now()
	emitCallStart(ctx, p.name, export, len(data))
	res, err := p.call(ctx, fn, export, data, hint)
	duration := time.Since(start)
	emitCallComplete(ctx, p.name, export, res, duration, err)

	if err != nil {
		p.logger.Warn("plugin call failed",
			zap.String("export", export),
			zap.Int("size", len(data)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	p.logger.Debug("plugin call complete",
		zap.String("export", export),
		zap.Int("size", len(data)),
		zap.String("mime", res.MIMEType),
		zap.Int("result_size", len(res.Data)),
		zap.Duration("duration", duration),
	)
	return res, nil
}

func (p *PluginInstance) call(ctx context.Context, fn api.Function, export string, data []byte, hint string) (*Result, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	state := adapter.NewCallState()
	callCtx := adapter.WithCallState(adapter.WithPluginName(ctx, p.name), state)

	if p.heap != nil {
		p.heap.reset(p.module.Memory())
	}

	input, err := p.place(callCtx, data)
	if err != nil {
		return nil, err
	}
	defer input.release(callCtx)

	aux, err := p.place(callCtx, []byte(hint))
	if err != nil {
		return nil, err
	}
	defer aux.release(callCtx)

	results, err := fn.Call(callCtx,
		api.EncodeU32(input.ptr), api.EncodeU32(input.size),
		api.EncodeU32(aux.ptr), api.EncodeU32(aux.size),
	)
	if err != nil {
		return nil, p.callError(ctx, export, err)
	}

	status := statusOf(results)
	if status != 0 {
		return nil, &StatusError{Plugin: p.name, Export: export, Status: status}
	}

	payload, mime, ok := state.Result()
	if !ok {
		return nil, fmt.Errorf("plugin '%s' export '%s': %w", p.name, export, ErrNoResult)
	}
	return &Result{Data: payload, MIMEType: mime, Status: status}, nil
}

// place copies data into guest memory. Empty inputs are passed as (0, 0).
func (p *PluginInstance) place(ctx context.Context, data []byte) (guestBuffer, error) {
	if len(data) == 0 {
		return guestBuffer{}, nil
	}
	size := uint32(len(data)) //nolint:gosec // G115: inputs above 4 GiB cannot be placed anyway
	mem := p.module.Memory()

	if p.allocate == nil {
		ptr, err := p.heap.place(mem, data)
		if err != nil {
			return guestBuffer{}, err
		}
		return guestBuffer{ptr: ptr, size: size}, nil
	}

	results, err := p.allocate.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return guestBuffer{}, &MemoryAccessError{Operation: "allocate", Length: size, Err: err}
	}
	ptr := api.DecodeU32(results[0])
	if ptr == 0 {
		return guestBuffer{}, &MemoryAccessError{Operation: "allocate", Length: size, Err: errors.New("allocator returned null")}
	}

	buf := guestBuffer{ptr: ptr, size: size}
	if p.deallocate != nil {
		buf.free = func(ctx context.Context) {
			if _, err := p.deallocate.Call(ctx, api.EncodeU32(ptr), api.EncodeU32(size)); err != nil {
				p.logger.Debug("deallocate failed", zap.Uint32("ptr", ptr), zap.Error(err))
			}
		}
	}

	if !mem.Write(ptr, data) {
		buf.release(ctx)
		return guestBuffer{}, &MemoryAccessError{Operation: "write", Address: ptr, Length: size, Err: errors.New("out of range")}
	}
	return buf, nil
}

func (p *PluginInstance) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

// callError classifies a failed call. A cancelled or expired context closes
// the module, so the instance is unusable afterwards.
func (p *PluginInstance) callError(ctx context.Context, export string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		p.closed = true
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &TimeoutError{Plugin: p.name, Export: export, Timeout: p.timeout, Err: ctxErr}
		}
		return &ExecutionError{Plugin: p.name, Export: export, Err: ctxErr}
	}
	return &ExecutionError{Plugin: p.name, Export: export, Err: err}
}

// Close releases the plugin's module.
func (p *PluginInstance) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	err := p.module.Close(ctx)
	if cerr := p.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

func statusOf(results []uint64) int32 {
	if len(results) == 0 {
		return 0
	}
	return api.DecodeI32(results[0])
}
