package audio

import (
	"encoding/binary"
	"io"
	"sync"
)

// FrameBytes is the size of one stereo 16-bit frame.
const FrameBytes = 4

// FrameSource produces packed stereo frames (low half left, high half right).
// Render returns fewer than len(dst) frames only at the end of the stream.
type FrameSource interface {
	Render(dst []uint32) int
}

// StreamReader exposes a FrameSource as little endian 16-bit PCM bytes.
type StreamReader struct {
	mu     sync.Mutex
	source FrameSource
	buf    []uint32
	done   bool
}

func NewStreamReader(source FrameSource) *StreamReader {
	return &StreamReader{source: source}
}

// Read fills p with whole frames. Trailing bytes that do not make up a frame are left untouched.
func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return 0, io.EOF
	}
	frames := len(p) / FrameBytes
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buf) < frames {
		r.buf = make([]uint32, frames)
	}
	r.buf = r.buf[:frames]
	got := r.source.Render(r.buf)
	for i, f := range r.buf[:got] {
		binary.LittleEndian.PutUint32(p[i*FrameBytes:], f)
	}
	n := got * FrameBytes
	if got < frames {
		r.done = true
		return n, io.EOF
	}
	return n, nil
}

func (r *StreamReader) Close() error { return nil }
