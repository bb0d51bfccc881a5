package encodevorbis

import "io"

// OutputSink appends guest output to the currently open artifact.
//
// Failures never reach the guest; the first one is kept and reported when
// the artifact is closed.
type OutputSink struct {
	w   io.Writer
	n   int64
	err error
}

// Open directs subsequent writes to w and clears the previous state.
func (s *OutputSink) Open(w io.Writer) {
	s.w = w
	s.n = 0
	s.err = nil
}

// IsOpen reports whether an artifact is open.
func (s *OutputSink) IsOpen() bool {
	return s.w != nil
}

// Write appends length bytes at ptr in mem to the open artifact.
// It does nothing when no artifact is open or an earlier write failed.
func (s *OutputSink) Write(mem Memory, ptr, length uint32) {
	if s.w == nil || s.err != nil {
		return
	}
	data, ok := mem.Read(ptr, length)
	if !ok {
		s.err = invalidAddress(ImportOutput, "range [%#x, +%d) out of bounds", ptr, length)
		return
	}
	n, err := s.w.Write(data)
	s.n += int64(n)
	if err != nil {
		s.err = err
	}
}

// Err returns the first failure since Open.
func (s *OutputSink) Err() error {
	return s.err
}

// Close detaches the artifact and returns the bytes written and the first
// failure since Open.
func (s *OutputSink) Close() (int64, error) {
	n, err := s.n, s.err
	s.w = nil
	return n, err
}
