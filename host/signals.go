package host

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signal definitions for host events.
var (
	SignalPluginLoaded = capitan.NewSignal("preview.plugin.loaded", "Plugin instantiated")
	SignalCallStart    = capitan.NewSignal("preview.call.start", "Export call beginning")
	SignalCallComplete = capitan.NewSignal("preview.call.complete", "Export call finished")
)

// Field keys for host events.
var (
	KeyPlugin   = capitan.NewStringKey("plugin")
	KeyExport   = capitan.NewStringKey("export")
	KeyMIME     = capitan.NewStringKey("mime")
	KeySize     = capitan.NewIntKey("size")
	KeyDuration = capitan.NewDurationKey("duration")
	KeyError    = capitan.NewErrorKey("error")
)

func emitPluginLoaded(ctx context.Context, plugin string, size int) {
	capitan.Emit(ctx, SignalPluginLoaded,
		KeyPlugin.Field(plugin),
		KeySize.Field(size),
	)
}

func emitCallStart(ctx context.Context, plugin, export string, size int) {
	capitan.Emit(ctx, SignalCallStart,
		KeyPlugin.Field(plugin),
		KeyExport.Field(export),
		KeySize.Field(size),
	)
}

func emitCallComplete(ctx context.Context, plugin, export string, res *Result, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyPlugin.Field(plugin),
		KeyExport.Field(export),
		KeyDuration.Field(duration),
	}
	if res != nil {
		fields = append(fields, KeyMIME.Field(res.MIMEType), KeySize.Field(len(res.Data)))
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalCallComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalCallComplete, fields...)
}
