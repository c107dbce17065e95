package abi

import (
	"bytes"
	"runtime"
)

// MaxMIMELength is the longest MIME string, terminator excluded, that a host
// reads from the address passed to the result callback.
const MaxMIMELength = 128

// HostCallback delivers a result to the host. It receives the payload address
// and length and the address of a NUL-terminated MIME string. The host must
// copy both before returning; the guest releases them afterwards.
type HostCallback func(resultPtr, resultLen, mimePtr uint32) int32

// Emitter hands result payloads to the host through a HostCallback.
type Emitter struct {
	pinner   Pinner
	callback HostCallback
}

// NewEmitter binds a pinner and the host callback.
func NewEmitter(pinner Pinner, callback HostCallback) *Emitter {
	return &Emitter{pinner: pinner, callback: callback}
}

// Emit invokes the host callback with (payload address, payload length, MIME
// address) and returns its status. An empty payload is passed as (0, 0). The
// MIME string is written with a trailing NUL since the callback carries no
// MIME length. Both buffers stay pinned until the callback returns.
func (e *Emitter) Emit(payload []byte, mime string) int32 {
	var payloadPtr uint32
	if len(payload) > 0 {
		ptr, release := e.pinner.Pin(payload)
		defer release()
		payloadPtr = ptr
	}

	mimeBytes := CString(mime)
	mimePtr, releaseMIME := e.pinner.Pin(mimeBytes)
	defer releaseMIME()

	status := e.callback(payloadPtr, uint32(len(payload)), mimePtr)
	runtime.KeepAlive(payload)
	runtime.KeepAlive(mimeBytes)
	return status
}

// CString returns s as bytes followed by a NUL terminator. Anything after an
// embedded NUL is dropped, since the host would stop reading there anyway.
func CString(s string) []byte {
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		s = s[:i]
	}
	out := make([]byte, len(s)+1)
	copy(out, s)
	return out
}

// ReadCString reads a NUL-terminated string of at most maxLen bytes starting at
// ptr. Reading stops at the terminator, at maxLen, or at the end of memory.
// A zero ptr yields "".
func ReadCString(mem Memory, ptr uint32, maxLen uint32) string {
	if ptr == 0 || maxLen == 0 {
		return ""
	}
	for n := maxLen; n > 0; n-- {
		buf, ok := mem.Read(ptr, n)
		if !ok {
			continue
		}
		if i := bytes.IndexByte(buf, 0); i >= 0 {
			buf = buf[:i]
		}
		return DecodeBytes(buf)
	}
	return ""
}
