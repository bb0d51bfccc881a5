package wasmbuild

// Value types
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
	F32 byte = 0x7d
	F64 byte = 0x7c
)

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secExport   = 7
	secCode     = 10
	secData     = 11

	typeFunc   = 0x60
	extFunc    = 0x00
	extMemory  = 0x02
	opI32Const = 0x41
	opEnd      = 0x0b
)

type funcType struct {
	params  []byte
	results []byte
}

type importFunc struct {
	module  string
	name    string
	typeIdx uint32
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type dataSeg struct {
	offset int32
	data   []byte
}

// Module builds a wasm binary. All imports must be added before the first
// function, since imported functions take the low function indices.
type Module struct {
	types   []funcType
	imports []importFunc
	funcs   []uint32
	codes   [][]byte
	exports []export
	data    []dataSeg

	hasMemory bool
	memMin    uint32
	memMax    uint32
}

// typeIdx registers a function type and returns its index, deduplicating.
func (m *Module) typeIdx(params, results []byte) uint32 {
	for i, t := range m.types {
		if string(t.params) == string(params) && string(t.results) == string(results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

// Import adds an imported function and returns its function index.
func (m *Module) Import(module, name string, params, results []byte) uint32 {
	if len(m.funcs) > 0 {
		panic("wasmbuild: import added after a function")
	}
	m.imports = append(m.imports, importFunc{module: module, name: name, typeIdx: m.typeIdx(params, results)})
	return uint32(len(m.imports) - 1)
}

// Func adds a function with the given extra locals and body (without the
// trailing end) and returns its function index.
func (m *Module) Func(params, results, locals []byte, body *Asm) uint32 {
	m.funcs = append(m.funcs, m.typeIdx(params, results))

	var code []byte
	code = appendULEB128(code, uint32(len(locals)))
	for _, t := range locals {
		code = appendULEB128(code, 1)
		code = append(code, t)
	}
	code = append(code, body.Bytes()...)
	code = append(code, opEnd)
	m.codes = append(m.codes, code)

	return uint32(len(m.imports) + len(m.funcs) - 1)
}

// Memory declares the module's memory. max of 0 means no maximum.
func (m *Module) Memory(min, max uint32) {
	m.hasMemory = true
	m.memMin = min
	m.memMax = max
}

// ExportFunc exports function idx as name.
func (m *Module) ExportFunc(name string, idx uint32) {
	m.exports = append(m.exports, export{name: name, kind: extFunc, idx: idx})
}

// ExportMemory exports memory 0 as name.
func (m *Module) ExportMemory(name string) {
	m.exports = append(m.exports, export{name: name, kind: extMemory})
}

// Data places b at offset when the module is instantiated.
func (m *Module) Data(offset int32, b []byte) {
	m.data = append(m.data, dataSeg{offset: offset, data: b})
}

// Encode produces the complete .wasm binary.
func (m *Module) Encode() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	if len(m.types) > 0 {
		out = section(out, secType, m.typeSection())
	}
	if len(m.imports) > 0 {
		out = section(out, secImport, m.importSection())
	}
	if len(m.funcs) > 0 {
		out = section(out, secFunction, m.funcSection())
	}
	if m.hasMemory {
		out = section(out, secMemory, m.memorySection())
	}
	if len(m.exports) > 0 {
		out = section(out, secExport, m.exportSection())
	}
	if len(m.codes) > 0 {
		out = section(out, secCode, m.codeSection())
	}
	if len(m.data) > 0 {
		out = section(out, secData, m.dataSection())
	}
	return out
}

func section(out []byte, id byte, payload []byte) []byte {
	out = append(out, id)
	out = appendULEB128(out, uint32(len(payload)))
	return append(out, payload...)
}

func appendName(buf []byte, s string) []byte {
	buf = appendULEB128(buf, uint32(len(s)))
	return append(buf, s...)
}

func (m *Module) typeSection() []byte {
	buf := appendULEB128(nil, uint32(len(m.types)))
	for _, t := range m.types {
		buf = append(buf, typeFunc)
		buf = appendULEB128(buf, uint32(len(t.params)))
		buf = append(buf, t.params...)
		buf = appendULEB128(buf, uint32(len(t.results)))
		buf = append(buf, t.results...)
	}
	return buf
}

func (m *Module) importSection() []byte {
	buf := appendULEB128(nil, uint32(len(m.imports)))
	for _, imp := range m.imports {
		buf = appendName(buf, imp.module)
		buf = appendName(buf, imp.name)
		buf = append(buf, extFunc)
		buf = appendULEB128(buf, imp.typeIdx)
	}
	return buf
}

func (m *Module) funcSection() []byte {
	buf := appendULEB128(nil, uint32(len(m.funcs)))
	for _, tidx := range m.funcs {
		buf = appendULEB128(buf, tidx)
	}
	return buf
}

func (m *Module) memorySection() []byte {
	buf := appendULEB128(nil, 1)
	if m.memMax > 0 {
		buf = append(buf, 0x01)
		buf = appendULEB128(buf, m.memMin)
		buf = appendULEB128(buf, m.memMax)
	} else {
		buf = append(buf, 0x00)
		buf = appendULEB128(buf, m.memMin)
	}
	return buf
}

func (m *Module) exportSection() []byte {
	buf := appendULEB128(nil, uint32(len(m.exports)))
	for _, exp := range m.exports {
		buf = appendName(buf, exp.name)
		buf = append(buf, exp.kind)
		buf = appendULEB128(buf, exp.idx)
	}
	return buf
}

func (m *Module) codeSection() []byte {
	buf := appendULEB128(nil, uint32(len(m.codes)))
	for _, body := range m.codes {
		buf = appendULEB128(buf, uint32(len(body)))
		buf = append(buf, body...)
	}
	return buf
}

func (m *Module) dataSection() []byte {
	buf := appendULEB128(nil, uint32(len(m.data)))
	for _, seg := range m.data {
		buf = append(buf, 0x00) // active, memory 0
		buf = append(buf, opI32Const)
		buf = appendSLEB128(buf, seg.offset)
		buf = append(buf, opEnd)
		buf = appendULEB128(buf, uint32(len(seg.data)))
		buf = append(buf, seg.data...)
	}
	return buf
}

func appendULEB128(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

func appendSLEB128(buf []byte, v int32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(buf, b)
		}
		buf = append(buf, b|0x80)
	}
}
