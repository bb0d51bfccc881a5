package encodevorbis

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/aperturerobotics/go-encodevorbis-wasm/internal/wasmbuild"
)

const (
	guestHeaderAddr  = 16 // "OggS" data segment
	guestCopyAddr    = 24 // header copy made by the constructors
	guestCtorAddr    = 8  // constructor call counter
	guestQualityAddr = 12 // scratch byte holding the quality
)

// guestOptions shapes a synthesized stand-in for the EncodeVorbis module.
//
// Its constructors copy "OggS" with memmove and count their calls. Encoding
// allocates a buffer pair with sbrk, writes the header and the quality byte,
// then pulls chunks through the feed and writes each chunk's left floats
// followed by its right floats, until the feed returns 0.
type guestOptions struct {
	chunk         int32
	trapQuality   int32 // runs unreachable at this quality
	exitQuality   int32 // calls exit(3) at this quality
	nullDestQual  int32 // calls memcpy(0, ...) at this quality
	loopQuality   int32 // never returns at this quality
	skipEncodeFn  bool
	badSbrkImport bool // declares sbrk as (i64)->(i64) with an empty EncodeVorbis
}

func defaultGuest() guestOptions {
	return guestOptions{chunk: 3, trapQuality: -1, exitQuality: -1, nullDestQual: -1, loopQuality: -1}
}

func buildGuest(o guestOptions) []byte {
	var (
		i32 = wasmbuild.I32
		f64 = wasmbuild.F64
		m   wasmbuild.Module
	)

	exit := m.Import(ImportModuleEnv, ImportExit, []byte{i32}, nil)
	var sbrk uint32
	if o.badSbrkImport {
		sbrk = m.Import(ImportModuleEnv, ImportSbrk, []byte{wasmbuild.I64}, []byte{wasmbuild.I64})
	} else {
		sbrk = m.Import(ImportModuleEnv, ImportSbrk, []byte{i32}, []byte{i32})
	}
	memcpy := m.Import(ImportModuleEnv, ImportMemcpy, []byte{i32, i32, i32}, []byte{i32})
	memmove := m.Import(ImportModuleEnv, ImportMemmove, []byte{i32, i32, i32}, []byte{i32})
	memset := m.Import(ImportModuleEnv, ImportMemset, []byte{i32, i32, i32}, []byte{i32})
	output := m.Import(ImportModuleEnv, ImportOutput, []byte{i32, i32}, nil)
	feed := m.Import(ImportModuleEnv, ImportFeedSamples, []byte{i32, i32}, []byte{i32})
	m.Import(ImportModuleEnv, ImportLdexp, []byte{f64, i32}, []byte{f64})
	m.Import(ImportModuleEnv, "log", []byte{f64}, []byte{f64})
	m.Import(ImportModuleEnv, ImportPow, []byte{f64, f64}, []byte{f64})

	m.Memory(1, 0)
	m.ExportMemory(ExportMemory)
	m.Data(guestHeaderAddr, []byte("OggS"))

	ctors := m.Func(nil, nil, nil, new(wasmbuild.Asm).
		I32Const(guestCtorAddr).
		I32Const(guestCtorAddr).I32Load(0).I32Const(1).I32Add().
		I32Store(0).
		I32Const(guestCopyAddr).I32Const(guestHeaderAddr).I32Const(4).Call(memmove).Drop())
	m.ExportFunc(ExportCallCtors, ctors)

	if o.skipEncodeFn {
		return m.Encode()
	}
	if o.badSbrkImport {
		// sbrk is declared with the wrong type and never called, so the
		// module still compiles and only linking can reject it.
		m.ExportFunc(ExportEncodeVorbis, m.Func([]byte{i32}, nil, nil, new(wasmbuild.Asm)))
		return m.Encode()
	}

	const (
		quality = 0
		pair    = 1
		left    = 2
		right   = 3
		n       = 4
	)
	bufBytes := o.chunk * 4
	a := new(wasmbuild.Asm)
	a.LocalGet(quality).I32Const(o.trapQuality).I32Eq().If().Unreachable().End()
	a.LocalGet(quality).I32Const(o.exitQuality).I32Eq().If().I32Const(3).Call(exit).End()
	a.LocalGet(quality).I32Const(o.loopQuality).I32Eq().If().Loop().Br(0).End().End()
	a.LocalGet(quality).I32Const(o.nullDestQual).I32Eq().If().
		I32Const(0).I32Const(guestHeaderAddr).I32Const(4).Call(memcpy).Drop().
		End()

	a.I32Const(8).Call(sbrk).LocalSet(pair)
	a.I32Const(bufBytes).Call(sbrk).LocalSet(left)
	a.I32Const(bufBytes).Call(sbrk).LocalSet(right)
	a.LocalGet(pair).LocalGet(left).I32Store(0)
	a.LocalGet(pair).LocalGet(right).I32Store(4)

	a.I32Const(guestCopyAddr).I32Const(4).Call(output)
	a.I32Const(guestQualityAddr).LocalGet(quality).I32Store8(0)
	a.I32Const(guestQualityAddr).I32Const(1).Call(output)

	a.Block().Loop()
	a.LocalGet(left).I32Const(0).I32Const(bufBytes).Call(memset).Drop()
	a.LocalGet(pair).I32Const(o.chunk).Call(feed).LocalTee(n).I32Eqz().BrIf(1)
	a.LocalGet(left).LocalGet(n).I32Const(4).I32Mul().Call(output)
	a.LocalGet(right).LocalGet(n).I32Const(4).I32Mul().Call(output)
	a.Br(0)
	a.End().End()

	encode := m.Func([]byte{i32}, nil, []byte{i32, i32, i32, i32}, a)
	m.ExportFunc(ExportEncodeVorbis, encode)

	return m.Encode()
}

// expectedArtifact is what buildGuest's module writes for samples at quality.
func expectedArtifact(samples []int16, quality int, chunk int) []byte {
	var out bytes.Buffer
	out.WriteString("OggS")
	out.WriteByte(byte(quality))

	put := func(s int16) {
		_ = binary.Write(&out, binary.LittleEndian, math.Float32bits(float32(float64(s)/32768.0)))
	}
	frames := len(samples) / 2
	for start := 0; start < frames; start += chunk {
		end := min(start+chunk, frames)
		for i := start; i < end; i++ {
			put(samples[2*i])
		}
		for i := start; i < end; i++ {
			put(samples[2*i+1])
		}
	}
	return out.Bytes()
}
