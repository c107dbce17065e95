package abi

import (
	"fmt"
	"sync"
)

// DefaultArenaBase is the first address an Arena hands out. Addresses below it
// are never allocated, which keeps 0 free to mean "no buffer".
const DefaultArenaBase = 8

// Arena is a flat byte-slice linear memory with a bump allocator.
// Tests use it as a stand-in for the guest memory; the reference host uses the
// same model for guests that do not export an allocator.
type Arena struct {
	mu   sync.Mutex
	mem  []byte
	base uint32
	next uint32
}

// NewArena returns an Arena of size bytes that allocates from DefaultArenaBase.
func NewArena(size int) *Arena {
	return NewArenaAt(size, DefaultArenaBase)
}

// NewArenaAt returns an Arena of size bytes that allocates from base.
// A zero base is bumped to DefaultArenaBase.
func NewArenaAt(size int, base uint32) *Arena {
	if base == 0 {
		base = DefaultArenaBase
	}
	return &Arena{mem: make([]byte, size), base: base, next: base}
}

// Read implements Memory with bounds checking.
func (a *Arena) Read(offset, byteCount uint32) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	end := uint64(offset) + uint64(byteCount)
	if end > uint64(len(a.mem)) {
		return nil, false
	}
	return a.mem[offset:end], true
}

// Write copies data to offset. It reports false if the range does not fit.
func (a *Arena) Write(offset uint32, data []byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(a.mem)) {
		return false
	}
	copy(a.mem[offset:end], data)
	return true
}

// Alloc reserves size bytes and returns their address. A zero size returns 0.
func (a *Arena) Alloc(size uint32) (uint32, error) {
	if size == 0 {
		return 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := a.next
	end := uint64(ptr) + uint64(size)
	if end > uint64(len(a.mem)) {
		return 0, fmt.Errorf("abi: arena exhausted (requested: %d bytes, free: %d bytes)", size, uint64(len(a.mem))-uint64(ptr))
	}
	a.next = uint32(end)
	return ptr, nil
}

// Put allocates len(data) bytes, copies data into them and returns the address.
// Empty data is placed at address 0.
func (a *Arena) Put(data []byte) (uint32, error) {
	ptr, err := a.Alloc(uint32(len(data)))
	if err != nil || ptr == 0 {
		return ptr, err
	}
	a.Write(ptr, data)
	return ptr, nil
}

// Pin implements Pinner by copying data into the arena. Arena allocations are
// only reclaimed by Reset, so release is a no-op. Pin panics when the arena is
// exhausted, mirroring the guest allocator limit.
func (a *Arena) Pin(data []byte) (uint32, func()) {
	ptr, err := a.Put(data)
	if err != nil {
		panic(err)
	}
	return ptr, func() {}
}

// Reset discards every allocation and zeroes the memory.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.mem)
	a.next = a.base
}

// Used returns the number of bytes allocated since the last Reset.
func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return int(a.next - a.base)
}

// Size returns the total size of the arena in bytes.
func (a *Arena) Size() int {
	return len(a.mem)
}
