//go:build wasip1

package abi

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"
)

// DefaultMaxTotalAllocations bounds the memory the host may reserve through
// allocate at any one time.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// memoryManager keeps a reference to every slice handed out by allocate so the
// Go GC does not collect it while the host still writes into it.
var memoryManager = struct {
	sync.Mutex
	ptrs           map[uint32][]byte
	totalAllocated int
	limit          int
}{
	ptrs:  make(map[uint32][]byte),
	limit: DefaultMaxTotalAllocations,
}

// Option configures the guest allocator.
type Option func(*allocatorConfig)

type allocatorConfig struct {
	maxTotalAllocations int
}

// WithMaxTotalAllocations sets the allocation limit. Non-positive values are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(c *allocatorConfig) {
		if limit > 0 {
			c.maxTotalAllocations = limit
		}
	}
}

// Configure applies allocator options.
func Configure(opts ...Option) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	cfg := allocatorConfig{maxTotalAllocations: memoryManager.limit}
	for _, opt := range opts {
		opt(&cfg)
	}
	memoryManager.limit = cfg.maxTotalAllocations
}

// allocate reserves size bytes for the host to write an input buffer into.
// Panics if the allocation would exceed the configured limit.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	if size == 0 {
		return 0
	}

	memoryManager.Lock()
	defer memoryManager.Unlock()

	if memoryManager.totalAllocated+int(size) > memoryManager.limit {
		panic(fmt.Sprintf("abi: memory allocation limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			size, memoryManager.totalAllocated, memoryManager.limit))
	}

	buf := make([]byte, size)
	//nolint:gosec // G103: wasm32 addresses fit in uint32
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	memoryManager.ptrs[ptr] = buf
	memoryManager.totalAllocated += int(size)

	return ptr
}

// deallocate releases a buffer returned by allocate. Unknown pointers are
// ignored, so double frees are harmless. Accounting uses the stored length,
// not the caller's size.
//
//go:wasmexport deallocate
func deallocate(ptr uint32, _ uint32) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	stored, exists := memoryManager.ptrs[ptr]
	if !exists {
		return
	}

	delete(memoryManager.ptrs, ptr)
	memoryManager.totalAllocated -= len(stored)
	if memoryManager.totalAllocated < 0 {
		memoryManager.totalAllocated = 0
	}
}

// FreeAllTracked drops every tracked allocation. Used during panic recovery.
func FreeAllTracked() {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	clear(memoryManager.ptrs)
	memoryManager.totalAllocated = 0
}

// Stats returns the number of live allocations and their total size.
func Stats() (count, totalBytes int) {
	memoryManager.Lock()
	defer memoryManager.Unlock()

	return len(memoryManager.ptrs), memoryManager.totalAllocated
}

//go:wasmimport env host_return_result
//nolint:revive // snake_case matches the host import name
func host_return_result(resultPtr, resultLen, mimePtr uint32) int32

// linearMemory is the module's own linear memory.
type linearMemory struct{}

// Read returns the bytes at offset without bounds checks: the host is trusted
// to pass ranges inside memory it wrote.
func (linearMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	//nolint:gosec // G103: linear memory offsets are addresses in wasm32
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), byteCount), true
}

// Pin returns the address of data itself. The Go GC does not move heap
// objects, so keeping data reachable until release is sufficient.
func (linearMemory) Pin(data []byte) (uint32, func()) {
	if len(data) == 0 {
		return 0, func() {}
	}
	//nolint:gosec // G103: wasm32 addresses fit in uint32
	ptr := uint32(uintptr(unsafe.Pointer(&data[0])))
	return ptr, func() { runtime.KeepAlive(data) }
}

// GuestMemory returns the module's linear memory.
func GuestMemory() Memory {
	return linearMemory{}
}

// GuestEmitter returns an Emitter that delivers results through the
// host_return_result import.
func GuestEmitter() *Emitter {
	return NewEmitter(linearMemory{}, host_return_result)
}

// GuestPinner returns a Pinner over the module's linear memory.
func GuestPinner() Pinner {
	return linearMemory{}
}
