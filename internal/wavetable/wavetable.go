package wavetable

import (
	"fmt"

	"github.com/cbegin/organya-go/soundbank"
)

// SourceSize is the length of a melodic waveform before expansion.
const SourceSize = 256

// ExpandedSize is the length of an expanded table (0x378).
const ExpandedSize = 888

// One region per octave band. Higher octaves play from shorter regions.
var (
	RegionOffsets = [8]int{0x000, 0x100, 0x200, 0x280, 0x300, 0x340, 0x360, 0x370}
	RegionSizes   = [8]int{256, 256, 128, 128, 64, 32, 16, 8}
)

// Expand builds the multi-resolution table for an unsigned 8-bit waveform.
//
// Each region is decimated straight from the 256-sample source, and the read index
// wraps modulo 256 rather than modulo the region size.
func Expand(src []byte) []byte {
	if len(src) != SourceSize {
		panic(fmt.Sprintf("wavetable: source wave has %d samples, want %d", len(src), SourceSize))
	}
	out := make([]byte, 0, ExpandedSize)
	for _, size := range RegionSizes {
		step := SourceSize / size
		acc := 0
		for i := 0; i < size; i++ {
			out = append(out, src[acc])
			acc += step
			if acc >= SourceSize {
				acc = 0
			}
		}
	}
	return out
}

// FromSigned flips the sign bit of every sample so that 128 is silence.
func FromSigned(wave []int8) []byte {
	out := make([]byte, len(wave))
	for i, v := range wave {
		out[i] = byte(v) ^ 0x80
	}
	return out
}

// FromSample converts a drum sample to unsigned 8-bit mono.
// Only the first channel of multi-channel data is kept.
func FromSample(s *soundbank.Sample) []byte {
	channels := s.Channels
	if channels <= 0 {
		channels = 1
	}
	switch s.BitDepth {
	case 8:
		out := make([]byte, 0, len(s.Data)/channels)
		for i := 0; i < len(s.Data); i += channels {
			out = append(out, s.Data[i])
		}
		return out
	case 16:
		frame := 2 * channels
		out := make([]byte, 0, len(s.Data)/frame)
		for i := 0; i+1 < len(s.Data); i += frame {
			// High byte of the little endian word.
			out = append(out, s.Data[i+1]^0x80)
		}
		return out
	default:
		panic(fmt.Sprintf("wavetable: unsupported drum bit depth %d", s.BitDepth))
	}
}
