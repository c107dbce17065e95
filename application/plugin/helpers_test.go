package plugin_test

import (
	"github.com/neon-files/preview-sdk/internal/abi"
)

func newRecordingEmitter(arena *abi.Arena, mimes *[]string) *abi.Emitter {
	return abi.NewEmitter(arena, func(_, _, mimePtr uint32) int32 {
		*mimes = append(*mimes, abi.ReadCString(arena, mimePtr, abi.MaxMIMELength))
		return 0
	})
}
