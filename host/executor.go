package host

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	adapter "github.com/neon-files/preview-sdk/infrastructure/wazero"
)

// Guest log levels forwarded through host_log.
const (
	guestLevelInfo  int32 = 0
	guestLevelWarn  int32 = 1
	guestLevelError int32 = 2
)

// Executor manages the runtime preview plugins are loaded into.
type Executor struct {
	runtime wazero.Runtime
	logger  *zap.Logger
	cfg     executorConfig
	seq     atomic.Uint64
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	e := &Executor{
		logger: cfg.logger.With(zap.String("component", "preview-host")),
		cfg:    cfg,
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	e.runtime = rt

	var adapterOpts []adapter.AdapterOption
	if cfg.maxResultSize > 0 {
		adapterOpts = append(adapterOpts, adapter.WithMaxResultSize(cfg.maxResultSize))
	}
	handlers := adapter.Handlers{
		ReturnResult: e.returnResult,
		Log:          e.guestLog,
		Now:          cfg.clock,
		Random:       cfg.random,
	}
	if err := adapter.RegisterWithRuntime(ctx, rt, handlers, adapterOpts...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases the runtime and every plugin loaded into it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// LoadPlugin compiles and instantiates a plugin. The same name may be loaded
// more than once; each instance gets its own module and memory.
func (e *Executor) LoadPlugin(ctx context.Context, name string, wasmBytes []byte) (*PluginInstance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, &CompilationError{Plugin: name, Err: err}
	}

	moduleName := fmt.Sprintf("%s-%d", name, e.seq.Add(1))
	modConfig := wazero.NewModuleConfig().
		WithName(moduleName).
		WithStartFunctions().
		WithSysWalltime().
		WithSysNanotime()

	pluginCtx := adapter.WithPluginName(ctx, name)
	mod, err := e.runtime.InstantiateModule(pluginCtx, compiled, modConfig)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, &InstantiationError{Plugin: name, ModuleName: moduleName, Err: err}
	}

	if initialize := mod.ExportedFunction("_initialize"); initialize != nil {
		if _, err := initialize.Call(pluginCtx); err != nil {
			_ = mod.Close(ctx)
			return nil, &InstantiationError{Plugin: name, ModuleName: moduleName, Err: fmt.Errorf("_initialize: %w", err)}
		}
	}

	p := newPluginInstance(name, mod, compiled, e.logger.With(zap.String("plugin", name)), e.cfg.callTimeout)
	e.logger.Debug("plugin loaded",
		zap.String("plugin", name),
		zap.String("module", moduleName),
		zap.Bool("allocator", p.allocate != nil),
	)
	emitPluginLoaded(ctx, name, len(wasmBytes))
	return p, nil
}

// returnResult stores a delivery in the in-flight call. With several
// deliveries in one call the last one wins.
func (e *Executor) returnResult(ctx context.Context, res adapter.Delivery) int32 {
	state, ok := adapter.CallStateFromContext(ctx)
	if !ok {
		e.logger.Warn("result delivered outside of a call",
			zap.String("plugin", res.Plugin),
			zap.String("mime", res.MIME),
		)
		return adapter.StatusNoActiveCall
	}
	if state.Deliveries() > 0 {
		e.logger.Warn("plugin delivered more than one result, keeping the last",
			zap.String("plugin", res.Plugin),
			zap.Int("deliveries", state.Deliveries()+1),
		)
	}
	state.Deliver(res.Data, res.MIME)
	return adapter.StatusOK
}

func (e *Executor) guestLog(_ context.Context, plugin string, level int32, msg string) {
	fields := []zap.Field{zap.String("plugin", plugin), zap.String("source", "guest")}
	switch level {
	case guestLevelWarn:
		e.logger.Warn(msg, fields...)
	case guestLevelError:
		e.logger.Error(msg, fields...)
	case guestLevelInfo:
		e.logger.Info(msg, fields...)
	default:
		e.logger.Info(msg, append(fields, zap.Int32("level", level))...)
	}
}
