// Package encodevorbis hosts a freestanding EncodeVorbis WASM module with
// wazero and drives it through batches of encode runs.
package encodevorbis

import "strconv"

// EncodeVorbis guest exports
const (
	// ExportMemory is the guest's growable linear memory.
	ExportMemory = "memory"

	// ExportCallCtors runs the guest's static constructors.
	// Must be called exactly once after instantiation.
	// Signature: __wasm_call_ctors() -> void
	ExportCallCtors = "__wasm_call_ctors"

	// ExportEncodeVorbis encodes the whole sample feed at one quality level.
	// Output is pushed through ImportOutput, input pulled through
	// ImportFeedSamples, both during the call.
	// Signature: EncodeVorbis(quality: i32) -> void
	ExportEncodeVorbis = "EncodeVorbis"
)

// ImportModuleEnv is the import module name the guest is linked against.
const ImportModuleEnv = "env"

// Host imports provided in ImportModuleEnv
const (
	// ImportExit aborts the guest. Signature: exit(code: i32) -> void
	ImportExit = "exit"
	// ImportSbrk grows the heap. Signature: sbrk(increment: i32) -> i32
	ImportSbrk = "sbrk"
	// ImportMemcpy signature: memcpy(dest, src, count: i32) -> i32
	ImportMemcpy = "memcpy"
	// ImportMemmove signature: memmove(dest, src, count: i32) -> i32
	ImportMemmove = "memmove"
	// ImportMemset signature: memset(dest, ch, count: i32) -> i32
	ImportMemset = "memset"
	// ImportPow signature: pow(x, y: f64) -> f64
	ImportPow = "pow"
	// ImportLdexp signature: ldexp(mantissa: f64, exponent: i32) -> f64
	ImportLdexp = "ldexp"

	// ImportOutput receives encoded bytes.
	// Signature: EncodeVorbisOutput(ptr, len: i32) -> void
	ImportOutput = "EncodeVorbisOutput"
	// ImportFeedSamples fills the guest's left/right float buffers.
	// buffer_pair points at two little-endian u32 addresses (left, right).
	// Signature: EncodeVorbisFeedSamples(buffer_pair, num: i32) -> i32
	ImportFeedSamples = "EncodeVorbisFeedSamples"
)

// Quality range accepted by ExportEncodeVorbis.
const (
	MinQuality = 0
	MaxQuality = 10
)

// Artifact naming defaults.
const (
	DefaultArtifactBase = "test"
	DefaultArtifactExt  = ".ogg"
)

// ArtifactName returns base + quality + ext, e.g. "test7.ogg".
func ArtifactName(base string, quality int, ext string) string {
	return base + strconv.Itoa(quality) + ext
}
