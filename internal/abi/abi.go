// Package abi implements the guest side of the host/plugin memory contract.
//
// The host talks to a plugin only through 32-bit addresses into linear memory
// and byte lengths. ViewBuffer is the single place where such a pair is turned
// into something the plugin can read; every other package receives a View or
// an owned copy and never handles raw addresses.
package abi

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// Memory is a flat, byte-addressable region shared with the host.
// Read returns the bytes in [offset, offset+byteCount) and false if the range
// is outside the region. The guest linear memory never reports false: the host
// is trusted to pass addresses inside its own allocation.
type Memory interface {
	Read(offset, byteCount uint32) ([]byte, bool)
}

// Pinner makes a guest buffer addressable by the host. The returned address
// stays valid until release is called.
type Pinner interface {
	Pin(data []byte) (ptr uint32, release func())
}

// View is a read-only, non-owning reference to a range of linear memory.
// It is valid only for the duration of the export call that produced it.
// The zero View is the empty buffer.
type View struct {
	data    []byte
	address uint32
}

// ViewBuffer converts a host-supplied (address, length) pair into a View.
// Address 0 or a non-positive length denote "no buffer" and yield the empty
// View without touching memory. Addresses are reinterpreted as unsigned
// offsets, so values above 2 GiB that arrive as negative int32 still resolve.
func ViewBuffer(mem Memory, address, length int32) View {
	if address == 0 || length <= 0 || mem == nil {
		return View{}
	}
	data, ok := mem.Read(uint32(address), uint32(length))
	if !ok {
		return View{}
	}
	return View{address: uint32(address), data: data}
}

// Address returns the linear-memory offset of the first byte, or 0 when empty.
func (v View) Address() uint32 {
	return v.address
}

// Len returns the number of bytes in the view.
func (v View) Len() int {
	return len(v.data)
}

// IsEmpty reports whether the view denotes the empty buffer.
func (v View) IsEmpty() bool {
	return len(v.data) == 0
}

// Bytes returns an owned copy of the viewed bytes. The copy outlives the call.
func (v View) Bytes() []byte {
	if len(v.data) == 0 {
		return nil
	}
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out
}

// Reader returns a reader over the viewed bytes without copying them.
func (v View) Reader() *bytes.Reader {
	return bytes.NewReader(v.data)
}

// String decodes the viewed bytes as lossy UTF-8.
func (v View) String() string {
	return DecodeBytes(v.data)
}

// DecodeString reads (address, length) with the same rules as ViewBuffer and
// decodes the bytes as UTF-8, replacing every invalid byte with U+FFFD.
// It never fails; a null reference and an empty buffer both yield "".
func DecodeString(mem Memory, address, length int32) string {
	return ViewBuffer(mem, address, length).String()
}

// DecodeBytes is the lossy UTF-8 decode behind View.String.
func DecodeBytes(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(decoded)
}
