//go:build !wasip1

package log

import (
	"context"
	"fmt"
	"log/slog"
)

// Handle writes the record to the configured writer. Used by host-side tests
// and by renderers running outside WASM.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	_, err := fmt.Fprintf(h.opts.writer, "[%s] %s\n", record.Level, h.formatRecord(record))
	return err
}
