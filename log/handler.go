// Package log provides structured logging (slog) for preview plugins. Records
// are flattened to a single text line and forwarded to the host's host_log
// import, or written to a local writer outside WASM.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"slices"
)

// Host log levels understood by host_log.
const (
	HostLevelInfo  int32 = 0
	HostLevelWarn  int32 = 1
	HostLevelError int32 = 2
)

// Handler implements slog.Handler on top of the host logging import.
type Handler struct {
	opts   handlerConfig
	attrs  []slog.Attr
	groups []string
}

// HandlerOption configures the Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	writer    io.Writer
	level     slog.Level
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level:  slog.LevelInfo,
		writer: os.Stderr,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are filtered on the guest side.
func WithLevel(level slog.Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithWriter sets where records go when not running inside WASM.
func WithWriter(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		if w != nil {
			c.writer = w
		}
	}
}

// NewHandler creates a new Handler with the given options.
func NewHandler(opts ...HandlerOption) *Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level
}

// WithAttrs returns a new Handler that includes the given attributes.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	for _, attr := range attrs {
		clone.attrs = append(clone.attrs, qualify(clone.groups, attr))
	}
	return clone
}

// WithGroup returns a new Handler that qualifies later attributes with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (h *Handler) clone() *Handler {
	return &Handler{
		opts:   h.opts,
		attrs:  slices.Clip(h.attrs),
		groups: slices.Clip(h.groups),
	}
}

// HostLevel maps a slog level onto the three levels host_log accepts.
func HostLevel(level slog.Level) int32 {
	switch {
	case level >= slog.LevelError:
		return HostLevelError
	case level >= slog.LevelWarn:
		return HostLevelWarn
	default:
		return HostLevelInfo
	}
}

func init() {
	slog.SetDefault(slog.New(NewHandler()))
}
