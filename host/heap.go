package host

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

const (
	wasmPageSize = 65536
	heapAlign    = 8
)

// guestBuffer is an input placed in guest memory for one call.
type guestBuffer struct {
	free func(ctx context.Context)
	ptr  uint32
	size uint32
}

func (b guestBuffer) release(ctx context.Context) {
	if b.free != nil {
		b.free(ctx)
	}
}

// bumpHeap places inputs past the end of guest memory when the plugin
// exports no allocator. It is rewound at the start of every call.
//
// limit is the memory size as the host last left it. Any other size at reset
// means the guest grew memory itself and may own everything up to the new
// end, so the heap moves past it.
type bumpHeap struct {
	base  uint32
	next  uint32
	limit uint32
}

func newBumpHeap(mem api.Memory) *bumpHeap {
	h := &bumpHeap{}
	h.rebase(mem.Size())
	return h
}

func (h *bumpHeap) rebase(size uint32) {
	h.base = alignUp(size, heapAlign)
	h.next = h.base
	h.limit = size
}

func (h *bumpHeap) reset(mem api.Memory) {
	if size := mem.Size(); size != h.limit {
		h.rebase(size)
		return
	}
	h.next = h.base
}

func (h *bumpHeap) place(mem api.Memory, data []byte) (uint32, error) {
	size := uint32(len(data)) //nolint:gosec // G115: inputs are bounded by guest memory
	ptr := alignUp(h.next, heapAlign)
	end := uint64(ptr) + uint64(size)
	if end >= 1<<32 {
		return 0, &MemoryAccessError{Operation: "grow", Address: ptr, Length: size, Err: errors.New("address space exhausted")}
	}

	if current := uint64(mem.Size()); end > current {
		pages := uint32((end - current + wasmPageSize - 1) / wasmPageSize) //nolint:gosec // G115: bounded by the check above
		if _, ok := mem.Grow(pages); !ok {
			return 0, &MemoryAccessError{
				Operation: "grow",
				Address:   ptr,
				Length:    size,
				Err:       fmt.Errorf("cannot grow memory by %d pages", pages),
			}
		}
		h.limit = mem.Size()
	}

	if !mem.Write(ptr, data) {
		return 0, &MemoryAccessError{Operation: "write", Address: ptr, Length: size, Err: errors.New("out of range")}
	}
	h.next = uint32(end)
	return ptr, nil
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
