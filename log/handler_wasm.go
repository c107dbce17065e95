//go:build wasip1

package log

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/neon-files/preview-sdk/internal/abi"
)

// host_log forwards one formatted line to the host. level is 0 info, 1 warn,
// 2 error.
//
//go:wasmimport env host_log
//nolint:revive // intentional snake_case to match WASM import convention
func host_log(level, msgPtr, msgLen uint32) int32

// Handle formats the record and sends it to the host.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	line := []byte(h.formatRecord(record))
	if len(line) == 0 {
		return nil
	}

	ptr, release := abi.GuestPinner().Pin(line)
	defer release()

	//nolint:gosec // G115: HostLevel only returns 0..2
	host_log(uint32(HostLevel(record.Level)), ptr, uint32(len(line)))
	runtime.KeepAlive(line)
	return nil
}
