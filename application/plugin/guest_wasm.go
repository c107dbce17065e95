//go:build wasip1

package plugin

import (
	"github.com/neon-files/preview-sdk/internal/abi"
	_ "github.com/neon-files/preview-sdk/log" // route slog through host_log
)

// NewGuestModule returns a Module over the plugin's own linear memory that
// delivers results through host_return_result. Tracked allocations are
// dropped after a recovered panic.
func NewGuestModule(opts ...Option) *Module {
	opts = append([]Option{WithPanicHook(abi.FreeAllTracked)}, opts...)
	return NewModule(abi.GuestMemory(), abi.GuestEmitter(), opts...)
}
