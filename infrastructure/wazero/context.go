package wazero

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero/api"
)

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var (
	pluginNameKey = &contextKey{name: "plugin_name"}
	callStateKey  = &contextKey{name: "call_state"}
)

// WithPluginName adds the plugin name to the context.
func WithPluginName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, pluginNameKey, name)
}

// PluginNameFromContext retrieves the plugin name from the context.
func PluginNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(pluginNameKey).(string)
	return name, ok
}

// GetPluginName extracts the plugin name from context, falling back to the module name.
func GetPluginName(ctx context.Context, mod api.Module) string {
	if name, ok := PluginNameFromContext(ctx); ok {
		return name
	}
	return mod.Name()
}

// CallState collects the result a guest delivers during one export call.
type CallState struct {
	mu         sync.Mutex
	data       []byte
	mime       string
	deliveries int
}

// NewCallState returns an empty CallState.
func NewCallState() *CallState {
	return &CallState{}
}

// Deliver records a result. A later delivery replaces an earlier one.
func (s *CallState) Deliver(data []byte, mime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.mime = mime
	s.deliveries++
}

// Result returns the last delivered result and whether there was one.
func (s *CallState) Result() (data []byte, mime string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data, s.mime, s.deliveries > 0
}

// Deliveries returns how many times the guest called back.
func (s *CallState) Deliveries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveries
}

// WithCallState attaches state to ctx.
func WithCallState(ctx context.Context, state *CallState) context.Context {
	return context.WithValue(ctx, callStateKey, state)
}

// CallStateFromContext retrieves the CallState attached to ctx.
func CallStateFromContext(ctx context.Context) (*CallState, bool) {
	state, ok := ctx.Value(callStateKey).(*CallState)
	return state, ok && state != nil
}
