package mixer

import (
	"math"

	"github.com/cbegin/organya-go/internal/tables"
	"github.com/cbegin/organya-go/internal/voice"
)

// Kernel radius of the interpolator.
const lanczosRadius = 3

const epsilon = 1.1920929e-07

// sinc evaluates sin in float64 and narrows, so it may differ from a float32 sin in the last bit.
func sinc(x float32) float32 {
	if abs(x) <= epsilon {
		return 1
	}
	y := x * math.Pi
	return float32(math.Sin(float64(y))) / y
}

// Lanczos evaluates the windowed sinc kernel of radius a at x.
func Lanczos(x, a float32) float32 {
	if abs(x) >= a {
		return 0
	}
	return sinc(x) * sinc(x/a)
}

// Interpolate6 resamples between s1 and s2 at fractional offset r.
// sp2/sp1 are the two samples before s1, s1..s4 the current and three ahead.
func Interpolate6(sp2, sp1, s1, s2, s3, s4, r float32) float32 {
	return sp2*Lanczos(r+2, lanczosRadius) +
		sp1*Lanczos(r+1, lanczosRadius) +
		s1*Lanczos(r, lanczosRadius) +
		s2*Lanczos(r-1, lanczosRadius) +
		s3*Lanczos(r-2, lanczosRadius) +
		s4*Lanczos(r-3, lanczosRadius)
}

// Pack stores a stereo frame as one word, left in the low half.
func Pack(l, r int16) uint32 {
	return uint32(uint16(l)) | uint32(uint16(r))<<16
}

// Unpack splits a frame word into its left and right samples.
func Unpack(frame uint32) (l, r int16) {
	return int16(frame & 0xffff), int16(frame >> 16)
}

// SaturatingAdd adds v, truncated toward zero, to acc without wrapping.
func SaturatingAdd(acc int16, v float32) int16 {
	sum := int32(acc) + int32(toInt16(v))
	return int16(clamp(sum, math.MinInt16, math.MaxInt16))
}

func toInt16(v float32) int16 {
	if v != v {
		return 0
	}
	if v >= math.MaxInt16 {
		return math.MaxInt16
	}
	if v <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Mix adds one output frame of every playing buffer onto frame.
// Buffers are advanced by one sample at sampleRate.
func Mix(frame *uint32, sampleRate float64, buffers []voice.Buffer) {
	l, r := Unpack(*frame)
	for i := range buffers {
		b := &buffers[i]
		if !b.Playing {
			continue
		}
		sl, sr, ok := next(b, sampleRate)
		if !ok {
			continue
		}
		l = SaturatingAdd(l, sl)
		r = SaturatingAdd(r, sr)
	}
	*frame = Pack(l, r)
}

// next renders one sample of b and advances it. ok is false when the buffer
// ran out during this sample, in which case nothing should be added.
func next(b *voice.Buffer, sampleRate float64) (sl, sr float32, ok bool) {
	advance := float64(b.Frequency) / sampleRate
	vol := tables.CentibelToScale(b.Volume)

	panL, panR := float32(1), float32(1)
	switch {
	case b.Pan > 0:
		panL = tables.CentibelToScale(-b.Pan)
	case b.Pan < 0:
		panR = tables.CentibelToScale(b.Pan)
	}

	lo := b.BasePos
	hi := b.BasePos + b.Len - 1
	pos := int(b.Position) + b.BasePos

	sample := func(i int) float32 {
		i = clamp(i, lo, hi)
		return (float32(b.Data[i]) - 128) / 128
	}
	s := Interpolate6(
		sample(pos-2), sample(pos-1),
		sample(pos), sample(pos+1), sample(pos+2), sample(pos+3),
		float32(b.Position-math.Floor(b.Position)),
	)

	sl = s * panL * vol * 32768
	sr = s * panR * vol * 32768

	b.Position += advance
	if int(b.Position) >= b.Len {
		if b.Looping && b.Loops != 1 {
			b.Position = math.Mod(b.Position, float64(b.Len))
			if b.Loops != voice.InfiniteLoops {
				b.Loops--
			}
		} else {
			b.Position = 0
			b.Playing = false
			return 0, 0, false
		}
	}
	return sl, sr, true
}

type numeric interface {
	int | int32 | float32
}

func clamp[T numeric](v, min, max T) T {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
