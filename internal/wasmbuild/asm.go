package wasmbuild

import (
	"encoding/binary"
	"math"
)

// Asm appends instructions to a function body.
type Asm struct {
	buf []byte
}

// Bytes returns the encoded instructions.
func (a *Asm) Bytes() []byte {
	return a.buf
}

func (a *Asm) op(b ...byte) *Asm {
	a.buf = append(a.buf, b...)
	return a
}

func (a *Asm) Unreachable() *Asm { return a.op(0x00) }
func (a *Asm) Drop() *Asm        { return a.op(0x1a) }
func (a *Asm) Return() *Asm      { return a.op(0x0f) }
func (a *Asm) End() *Asm         { return a.op(opEnd) }

// Block, Loop and If open a structured block with an empty result type.
func (a *Asm) Block() *Asm { return a.op(0x02, 0x40) }
func (a *Asm) Loop() *Asm  { return a.op(0x03, 0x40) }
func (a *Asm) If() *Asm    { return a.op(0x04, 0x40) }

func (a *Asm) Br(depth uint32) *Asm   { return a.idx(0x0c, depth) }
func (a *Asm) BrIf(depth uint32) *Asm { return a.idx(0x0d, depth) }
func (a *Asm) Call(fn uint32) *Asm    { return a.idx(0x10, fn) }

func (a *Asm) LocalGet(i uint32) *Asm { return a.idx(0x20, i) }
func (a *Asm) LocalSet(i uint32) *Asm { return a.idx(0x21, i) }
func (a *Asm) LocalTee(i uint32) *Asm { return a.idx(0x22, i) }

// I32Load, I32Store and I32Store8 take a static offset; alignment is natural.
func (a *Asm) I32Load(offset uint32) *Asm   { return a.mem(0x28, 2, offset) }
func (a *Asm) I32Store(offset uint32) *Asm  { return a.mem(0x36, 2, offset) }
func (a *Asm) I32Store8(offset uint32) *Asm { return a.mem(0x3a, 0, offset) }
func (a *Asm) F64Store(offset uint32) *Asm  { return a.mem(0x39, 3, offset) }

func (a *Asm) I32Const(v int32) *Asm {
	a.buf = append(a.buf, opI32Const)
	a.buf = appendSLEB128(a.buf, v)
	return a
}

func (a *Asm) F64Const(v float64) *Asm {
	a.buf = append(a.buf, 0x44)
	a.buf = binary.LittleEndian.AppendUint64(a.buf, math.Float64bits(v))
	return a
}

func (a *Asm) I32Eqz() *Asm { return a.op(0x45) }
func (a *Asm) I32Eq() *Asm  { return a.op(0x46) }
func (a *Asm) I32Add() *Asm { return a.op(0x6a) }
func (a *Asm) I32Mul() *Asm { return a.op(0x6c) }

func (a *Asm) idx(op byte, i uint32) *Asm {
	a.buf = append(a.buf, op)
	a.buf = appendULEB128(a.buf, i)
	return a
}

func (a *Asm) mem(op byte, align, offset uint32) *Asm {
	a.buf = append(a.buf, op)
	a.buf = appendULEB128(a.buf, align)
	a.buf = appendULEB128(a.buf, offset)
	return a
}
