package encodevorbis

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct {
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	return 0, errors.New("disk full")
}

func TestOutputSinkAppendsInOrder(t *testing.T) {
	mem := newSliceMemory(1)
	copy(mem.buf[100:], "OggS")
	copy(mem.buf[200:], "body")

	var s OutputSink
	var buf bytes.Buffer
	s.Open(&buf)
	s.Write(mem, 100, 4)
	s.Write(mem, 200, 4)
	s.Write(mem, 100, 0)
	s.Write(mem, 101, 3)

	n, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "OggSbodyggS", buf.String())
	assert.False(t, s.IsOpen())
}

func TestOutputSinkClosedIsNoop(t *testing.T) {
	mem := newSliceMemory(1)
	var s OutputSink
	s.Write(mem, 0, 16)
	s.Write(mem, PageSize, 16)
	assert.NoError(t, s.Err())

	var buf bytes.Buffer
	s.Open(&buf)
	s.Close()
	s.Write(mem, 0, 16)
	assert.Zero(t, buf.Len())
}

func TestOutputSinkKeepsFirstError(t *testing.T) {
	mem := newSliceMemory(1)
	w := &failingWriter{}

	var s OutputSink
	s.Open(w)
	s.Write(mem, 0, 4)
	s.Write(mem, 0, 4)
	assert.Equal(t, 1, w.calls, "writes stop after the first failure")

	_, err := s.Close()
	require.EqualError(t, err, "disk full")

	// A fresh artifact starts clean.
	var buf bytes.Buffer
	s.Open(&buf)
	s.Write(mem, PageSize-2, 4)
	_, err = s.Close()
	require.ErrorIs(t, err, ErrInvalidAddress)
}
