package voice

import (
	"fmt"

	"github.com/cbegin/organya-go/internal/wavetable"
)

// InfiniteLoops disables the loop counter.
const InfiniteLoops = -1

const (
	MinVolume = -10000
	MaxVolume = 0
	MinPan    = -10000
	MaxPan    = 10000
)

// Buffer is a playback cursor over a shared, read-only waveform.
//
// Position is relative to BasePos; the active region is Data[BasePos:BasePos+Len].
type Buffer struct {
	Position  float64
	Frequency uint32
	Volume    int32
	Pan       int32
	Data      []byte
	Playing   bool
	Looping   bool
	BasePos   int
	Len       int
	// Loops counts remaining passes. 1 means this is the last one.
	Loops int32
}

// New creates a stopped buffer that plays data at its native sample rate.
func New(data []byte, sampleRate uint32) Buffer {
	return Buffer{
		Frequency: sampleRate,
		Data:      data,
		Len:       len(data),
		Loops:     InfiniteLoops,
	}
}

// SelectOctave points the buffer at the region of an expanded wavetable for octave.
// When envelope is set on a buffer that is not already sounding, the note is
// limited to (octave+1)*4 passes over the region.
func (b *Buffer) SelectOctave(octave int, envelope bool) {
	b.BasePos = wavetable.RegionOffsets[octave]
	b.Len = wavetable.RegionSizes[octave]
	if envelope && !b.Playing {
		b.Loops = int32((octave + 1) * 4)
	}
}

func (b *Buffer) SetFrequency(hz uint32) {
	b.Frequency = hz
}

func (b *Buffer) SetVolume(cb int32) {
	if cb < MinVolume || cb > MaxVolume {
		panic(fmt.Sprintf("voice: volume %d out of range [%d, %d]", cb, MinVolume, MaxVolume))
	}
	b.Volume = cb
}

func (b *Buffer) SetPan(cb int32) {
	if cb < MinPan || cb > MaxPan {
		panic(fmt.Sprintf("voice: pan %d out of range [%d, %d]", cb, MinPan, MaxPan))
	}
	b.Pan = cb
}

// SetPosition moves the cursor to sample i of the active region.
func (b *Buffer) SetPosition(i int) {
	if i < 0 || i >= b.Len {
		panic(fmt.Sprintf("voice: position %d outside a %d sample region", i, b.Len))
	}
	b.Position = float64(i)
}

// Start marks the buffer as sounding and looping.
func (b *Buffer) Start() {
	b.Playing = true
	b.Looping = true
}

// Release lets the buffer run out at the end of its current pass.
// Envelope notes keep looping and decay through their loop counter instead.
func (b *Buffer) Release(envelope bool) {
	if !envelope {
		b.Looping = false
	}
}
