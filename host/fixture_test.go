package host

// A hand-assembled plugin used to exercise the executor without a Go
// toolchain for wasip1. It imports the env functions, exports one page of
// memory and a handful of (data_ptr, data_len, aux_ptr, aux_len) -> status
// functions. "text/plain\0" lives at 100 and "hello" at 200.

const (
	valI32 = 0x7f
	valI64 = 0x7e

	opUnreachable = 0x00
	opLoop        = 0x03
	opEnd         = 0x0b
	opBr          = 0x0c
	opCall        = 0x10
	opDrop        = 0x1a
	opLocalGet    = 0x20
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Const    = 0x41
	opI32Add      = 0x6a
	opI32WrapI64  = 0xa7
	blockEmpty    = 0x40

	fixtureMIMEAddr  = 100
	fixtureHelloAddr = 200
	fixtureHeapStart = 1024
)

// Type indices.
const (
	typeCallback = iota // (i32, i32, i32) -> i32
	typeInit            // () -> i32
	typeExport          // (i32, i32, i32, i32) -> i32
	typeAlloc           // (i32) -> i32
	typeDealloc         // (i32, i32) -> ()
	typeClock           // () -> i64
)

// Imported function indices.
const (
	importReturnResult = iota
	importLog
	importGetTime
	importRandom
	importCount
)

type fixtureFunc struct {
	name string
	body []byte
	typ  byte
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func wasmName(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func wasmVec(items ...[]byte) []byte {
	out := uleb(uint64(len(items)))
	for _, item := range items {
		out = append(out, item...)
	}
	return out
}

func section(id byte, content []byte) []byte {
	out := append([]byte{id}, uleb(uint64(len(content)))...)
	return append(out, content...)
}

func funcType(params, results []byte) []byte {
	out := append([]byte{0x60}, uleb(uint64(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb(uint64(len(results)))...)
	return append(out, results...)
}

func i32Const(v int32) []byte {
	return append([]byte{opI32Const}, sleb(int64(v))...)
}

func code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return append(out, opEnd)
}

func op(b ...byte) []byte { return b }

func returnStatus(v int32) []byte { return i32Const(v) }

func fixtureFuncs() []fixtureFunc {
	deliver := func(ptr, length []byte) []byte {
		out := append([]byte{}, ptr...)
		out = append(out, length...)
		out = append(out, i32Const(fixtureMIMEAddr)...)
		return append(out, opCall, importReturnResult, opDrop)
	}
	dataArgs := deliver(op(opLocalGet, 0), op(opLocalGet, 1))
	hintArgs := deliver(op(opLocalGet, 2), op(opLocalGet, 3))
	hello := deliver(i32Const(fixtureHelloAddr), i32Const(5))

	return []fixtureFunc{
		{name: "init", typ: typeInit, body: code(returnStatus(0))},
		{name: "preview_file", typ: typeExport, body: code(dataArgs, returnStatus(0))},
		{name: "echo_hint", typ: typeExport, body: code(hintArgs, returnStatus(0))},
		{name: "no_result", typ: typeExport, body: code(returnStatus(0))},
		{name: "fail_status", typ: typeExport, body: code(dataArgs, returnStatus(7))},
		{name: "double_result", typ: typeExport, body: code(hello, dataArgs, returnStatus(0))},
		{name: "log_and_echo", typ: typeExport, body: code(
			i32Const(1), i32Const(fixtureHelloAddr), i32Const(5), op(opCall, importLog, opDrop),
			dataArgs, returnStatus(0),
		)},
		{name: "clock", typ: typeExport, body: code(op(opCall, importGetTime, opI32WrapI64))},
		{name: "random", typ: typeExport, body: code(op(opCall, importRandom, opI32WrapI64))},
		{name: "spin", typ: typeExport, body: code(op(opLoop, blockEmpty, opBr, 0, opEnd), returnStatus(0))},
		{name: "trap", typ: typeExport, body: code(op(opUnreachable))},
	}
}

// allocatorFuncs bump-allocate from global 0 and count frees in global 1.
func allocatorFuncs() []fixtureFunc {
	return []fixtureFunc{
		{name: "allocate", typ: typeAlloc, body: code(
			op(opGlobalGet, 0),
			op(opGlobalGet, 0, opLocalGet, 0, opI32Add, opGlobalSet, 0),
		)},
		{name: "deallocate", typ: typeDealloc, body: code(
			op(opGlobalGet, 1), i32Const(1), op(opI32Add, opGlobalSet, 1),
		)},
	}
}

// buildFixture assembles the fixture module. With an allocator it also
// exports allocate, deallocate and a mutable "freed" global.
func buildFixture(withAllocator bool) []byte {
	funcs := fixtureFuncs()
	if withAllocator {
		funcs = append(funcs, allocatorFuncs()...)
	}

	types := wasmVec(
		funcType([]byte{valI32, valI32, valI32}, []byte{valI32}),
		funcType(nil, []byte{valI32}),
		funcType([]byte{valI32, valI32, valI32, valI32}, []byte{valI32}),
		funcType([]byte{valI32}, []byte{valI32}),
		funcType([]byte{valI32, valI32}, nil),
		funcType(nil, []byte{valI64}),
	)

	imports := wasmVec(
		append(append(wasmName("env"), wasmName("host_return_result")...), 0x00, typeCallback),
		append(append(wasmName("env"), wasmName("host_log")...), 0x00, typeCallback),
		append(append(wasmName("env"), wasmName("host_get_time")...), 0x00, typeClock),
		append(append(wasmName("env"), wasmName("host_random")...), 0x00, typeClock),
	)

	var funcTypes, exports, bodies [][]byte
	for i, f := range funcs {
		funcTypes = append(funcTypes, []byte{f.typ})
		idx := uleb(uint64(importCount + i))
		exports = append(exports, append(append(wasmName(f.name), 0x00), idx...))
		body := append([]byte{0x00}, f.body...) // no locals
		bodies = append(bodies, append(uleb(uint64(len(body))), body...))
	}
	exports = append(exports, append(wasmName("memory"), 0x02, 0x00))

	var globals []byte
	if withAllocator {
		exports = append(exports, append(wasmName("freed"), 0x03, 0x01))
		globals = section(6, wasmVec(
			append([]byte{valI32, 0x01}, code(i32Const(fixtureHeapStart))...),
			append([]byte{valI32, 0x01}, code(i32Const(0))...),
		))
	}

	memory := wasmVec([]byte{0x00, 0x01}) // min 1 page, no max

	data := wasmVec(
		append(append([]byte{0x00}, code(i32Const(fixtureMIMEAddr))...), wasmName("text/plain\x00")...),
		append(append([]byte{0x00}, code(i32Const(fixtureHelloAddr))...), wasmName("hello")...),
	)

	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
	out = append(out, section(1, types)...)
	out = append(out, section(2, imports)...)
	out = append(out, section(3, wasmVec(funcTypes...))...)
	out = append(out, section(5, memory)...)
	out = append(out, globals...)
	out = append(out, section(7, wasmVec(exports...))...)
	out = append(out, section(10, wasmVec(bodies...))...)
	out = append(out, section(11, data)...)
	return out
}
