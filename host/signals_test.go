package host

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/capitan"
	capitantesting "github.com/zoobzio/capitan/testing"
)

// hookSignal captures every event emitted on signal for the duration of t.
func hookSignal(t *testing.T, signal capitan.Signal) *capitantesting.EventCapture {
	t.Helper()
	capture := capitantesting.NewEventCapture()
	listener := capitan.Hook(signal, capture.Handler())
	t.Cleanup(listener.Close)
	return capture
}

// eventsFor keeps the captured events of one plugin and export. Other tests
// in the package emit on the same signals.
func eventsFor(capture *capitantesting.EventCapture, plugin, export string) []capitantesting.CapturedEvent {
	var out []capitantesting.CapturedEvent
	for _, e := range capture.Events() {
		if KeyPlugin.ExtractFromFields(e.Fields) != plugin {
			continue
		}
		if export != "" && KeyExport.ExtractFromFields(e.Fields) != export {
			continue
		}
		out = append(out, e)
	}
	return out
}

func TestSignals_PluginLifecycle(t *testing.T) {
	loaded := hookSignal(t, SignalPluginLoaded)
	started := hookSignal(t, SignalCallStart)
	completed := hookSignal(t, SignalCallComplete)

	ctx := context.Background()
	e := newTestExecutor(t)
	wasm := buildFixture(false)
	p, err := e.LoadPlugin(ctx, "signals", wasm)
	require.NoError(t, err)

	_, err = p.Call(ctx, "preview_file", []byte("hello"), "")
	require.NoError(t, err)
	_, err = p.Call(ctx, "no_result", []byte("abc"), "")
	require.ErrorIs(t, err, ErrNoResult)

	require.Eventually(t, func() bool {
		return len(eventsFor(loaded, "signals", "")) == 1 &&
			len(eventsFor(started, "signals", "")) == 2 &&
			len(eventsFor(completed, "signals", "")) == 2
	}, 2*time.Second, 10*time.Millisecond)

	load := eventsFor(loaded, "signals", "")[0]
	assert.Equal(t, len(wasm), KeySize.ExtractFromFields(load.Fields))

	start := eventsFor(started, "signals", "no_result")
	require.Len(t, start, 1)
	assert.Equal(t, 3, KeySize.ExtractFromFields(start[0].Fields))

	ok := eventsFor(completed, "signals", "preview_file")
	require.Len(t, ok, 1)
	assert.NotEqual(t, capitan.SeverityError, ok[0].Severity)
	assert.Equal(t, "text/plain", KeyMIME.ExtractFromFields(ok[0].Fields))
	assert.Equal(t, 5, KeySize.ExtractFromFields(ok[0].Fields))
	assert.NoError(t, KeyError.ExtractFromFields(ok[0].Fields))

	failed := eventsFor(completed, "signals", "no_result")
	require.Len(t, failed, 1)
	assert.Equal(t, capitan.SeverityError, failed[0].Severity)
	assert.Empty(t, KeyMIME.ExtractFromFields(failed[0].Fields))
	assert.True(t, errors.Is(KeyError.ExtractFromFields(failed[0].Fields), ErrNoResult))
}
