// Example encodes a short synthetic tone in memory with go-encodevorbis-wasm.
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"os"

	encodevorbis "github.com/aperturerobotics/go-encodevorbis-wasm"
	"github.com/tetratelabs/wazero"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s EncodeVorbis.wasm", os.Args[0])
	}
	wasm, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Create wazero runtime
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	enc, err := encodevorbis.NewEncoder(ctx, r, wasm, &encodevorbis.Config{
		Source: encodevorbis.ParsePCM(tone(440, 44100, 44100)),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer enc.Close(ctx)

	if err := enc.Init(ctx); err != nil {
		log.Fatal(err)
	}

	for _, q := range []int{0, 5, 10} {
		var out bytes.Buffer
		n, err := enc.Encode(ctx, q, &out)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("quality %2d: %d bytes\n", q, n)
	}
}

// tone returns frames of a stereo sine wave as 16-bit little-endian PCM.
func tone(freq, rate float64, frames int) []byte {
	buf := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		s := int16(math.Sin(2*math.Pi*freq*float64(i)/rate) * 16000)
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(s))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(s))
	}
	return buf
}
