// Package host runs preview plugins inside a wazero runtime.
//
// An Executor owns the runtime and the "env" host module plugins import from.
// LoadPlugin compiles and instantiates a plugin as a reactor, calling
// _initialize when the module exports it. Each PluginInstance serializes its
// calls: inputs are copied into guest memory, the export is invoked, and the
// result the plugin hands to host_return_result is returned to the caller.
//
//	exec, err := host.NewExecutor(ctx, host.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer exec.Close(ctx)
//
//	plugin, err := exec.LoadPlugin(ctx, "code-highlighter", wasmBytes)
//	if err != nil {
//	    return err
//	}
//	if err := plugin.Init(ctx); err != nil {
//	    return err
//	}
//	res, err := plugin.Call(ctx, host.ExportPreviewFile, source, "go")
package host
