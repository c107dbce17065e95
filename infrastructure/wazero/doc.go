// Package wazero registers the preview host imports with a wazero runtime.
//
// Preview plugins import four functions from the "env" module:
//
//   - host_return_result(ptr, len, mime_ptr i32) i32 delivers a result. The
//     payload is (ptr, len); the MIME type is a NUL-terminated string at
//     mime_ptr of at most 128 bytes.
//   - host_log(level, ptr, len i32) i32 forwards one log line (0 info,
//     1 warn, 2 error).
//   - host_get_time() i64 returns the host clock in Unix milliseconds.
//   - host_random() i64 returns a random value.
//
// # Basic Usage
//
//	runtime := wazero.NewRuntime(ctx)
//	err := adapter.RegisterWithRuntime(ctx, runtime, adapter.Handlers{
//	    ReturnResult: func(ctx context.Context, res adapter.Delivery) int32 { ... },
//	    Log:          func(ctx context.Context, plugin string, level int32, msg string) { ... },
//	})
//
// Results are routed to the call that is in flight through a CallState
// attached to the context passed to the export:
//
//	state := adapter.NewCallState()
//	fn.Call(adapter.WithCallState(ctx, state), ...)
//	data, mime, ok := state.Result()
package wazero
