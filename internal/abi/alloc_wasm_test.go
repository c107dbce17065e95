//go:build wasip1

package abi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateDeallocate(t *testing.T) {
	FreeAllTracked()

	size := uint32(1024)
	ptr := allocate(size)
	require.NotZero(t, ptr, "allocate returned 0")

	count, total := Stats()
	assert.Equal(t, 1, count)
	assert.Equal(t, int(size), total)

	view := ViewBuffer(GuestMemory(), int32(ptr), int32(size))
	assert.Equal(t, int(size), view.Len())

	deallocate(ptr, size)

	count, total = Stats()
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, total)
}

func TestAllocate_ZeroSize(t *testing.T) {
	assert.Zero(t, allocate(0))
}

func TestDeallocate_Idempotent(t *testing.T) {
	FreeAllTracked()

	ptr := allocate(100)
	deallocate(ptr, 100)
	deallocate(ptr, 100)

	_, total := Stats()
	assert.Equal(t, 0, total)
}

func TestGuestMemory_PinReadBack(t *testing.T) {
	data := []byte("pinned bytes")
	ptr, release := GuestMemory().(linearMemory).Pin(data)
	defer release()

	got := DecodeString(GuestMemory(), int32(ptr), int32(len(data)))
	assert.Equal(t, "pinned bytes", got)
}

func TestAllocate_Concurrency(t *testing.T) {
	FreeAllTracked()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ptr := allocate(64)
			deallocate(ptr, 64)
		}()
	}
	wg.Wait()

	count, _ := Stats()
	assert.Equal(t, 0, count)
}

func TestConfigure_WithMaxTotalAllocations(t *testing.T) {
	FreeAllTracked()
	Configure(WithMaxTotalAllocations(1024))
	defer Configure(WithMaxTotalAllocations(DefaultMaxTotalAllocations))

	ptr := allocate(512)
	require.NotZero(t, ptr)
	deallocate(ptr, 512)

	assert.Panics(t, func() {
		allocate(2048)
	}, "expected panic when exceeding allocation limit")
}

func TestConfigure_InvalidLimit(t *testing.T) {
	FreeAllTracked()

	Configure(WithMaxTotalAllocations(0))
	Configure(WithMaxTotalAllocations(-100))

	ptr := allocate(1024)
	require.NotZero(t, ptr)
	deallocate(ptr, 1024)
}
