package encodevorbis

import (
	"encoding/binary"
	"math"
)

// sampleScale maps int16 samples onto [-1, 1).
const sampleScale = 32768.0

// PCMSource is an immutable interleaved 16-bit stereo sample buffer with a
// read cursor counted in raw samples.
type PCMSource struct {
	samples []int16
	cursor  int
}

// ParsePCM decodes raw little-endian signed 16-bit interleaved stereo.
// A trailing odd byte is ignored.
func ParsePCM(data []byte) *PCMSource {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return &PCMSource{samples: samples}
}

// LoadPCM reads the entire sample file at path into memory.
func LoadPCM(path string) (*PCMSource, error) {
	data, err := readSource(path, "sample")
	if err != nil {
		return nil, err
	}
	return ParsePCM(data), nil
}

// Len returns the total number of raw samples (two per frame).
func (p *PCMSource) Len() int {
	return len(p.samples)
}

// Frames returns the number of stereo frames not yet fed.
func (p *PCMSource) Frames() uint32 {
	return uint32((len(p.samples) - p.cursor) / 2)
}

// Reset rewinds the cursor to the first frame.
func (p *PCMSource) Reset() {
	p.cursor = 0
}

// Feed writes up to n frames as little-endian float32 to the left and right
// channel buffers at the given guest addresses, advances the cursor and
// returns the number of frames written. Zero means the source is exhausted.
func (p *PCMSource) Feed(mem Memory, left, right, n uint32) (uint32, error) {
	if avail := p.Frames(); n > avail {
		n = avail
	}
	if n == 0 {
		return 0, nil
	}

	l, ok := mem.Read(left, n*4)
	if !ok {
		return 0, invalidAddress(ImportFeedSamples, "left buffer [%#x, +%d) out of bounds", left, n*4)
	}
	r, ok := mem.Read(right, n*4)
	if !ok {
		return 0, invalidAddress(ImportFeedSamples, "right buffer [%#x, +%d) out of bounds", right, n*4)
	}

	src := p.samples[p.cursor : p.cursor+int(n)*2]
	for i := 0; i < int(n); i++ {
		binary.LittleEndian.PutUint32(l[i*4:], math.Float32bits(float32(float64(src[2*i])/sampleScale)))
		binary.LittleEndian.PutUint32(r[i*4:], math.Float32bits(float32(float64(src[2*i+1])/sampleScale)))
	}
	p.cursor += int(n) * 2
	return n, nil
}

// FeedInto reads the (left, right) pointer pair stored at pair and feeds
// into those buffers.
func (p *PCMSource) FeedInto(mem Memory, pair, n uint32) (uint32, error) {
	left, ok := mem.ReadUint32Le(pair)
	if !ok {
		return 0, invalidAddress(ImportFeedSamples, "buffer pair %#x out of bounds", pair)
	}
	right, ok := mem.ReadUint32Le(pair + 4)
	if !ok {
		return 0, invalidAddress(ImportFeedSamples, "buffer pair %#x out of bounds", pair)
	}
	return p.Feed(mem, left, right, n)
}
