package wavetable

import (
	"bytes"
	"testing"

	"github.com/cbegin/organya-go/soundbank"
)

func rampWave() []byte {
	src := make([]byte, SourceSize)
	for i := range src {
		src[i] = byte(i)
	}
	return src
}

func TestExpandLayout(t *testing.T) {
	out := Expand(rampWave())
	if len(out) != ExpandedSize {
		t.Fatalf("expected %d bytes, got %d", ExpandedSize, len(out))
	}
	total := 0
	for i, size := range RegionSizes {
		if RegionOffsets[i] != total {
			t.Fatalf("region %d offset = %d, want %d", i, RegionOffsets[i], total)
		}
		total += size
	}
	if total != ExpandedSize {
		t.Fatalf("region sizes sum to %d, want %d", total, ExpandedSize)
	}
}

func TestExpandDecimatesFromSource(t *testing.T) {
	src := rampWave()
	out := Expand(src)
	if !bytes.Equal(out[0:256], src) || !bytes.Equal(out[256:512], src) {
		t.Fatalf("expected the first two regions to copy the source")
	}
	for n, size := range RegionSizes {
		step := SourceSize / size
		region := out[RegionOffsets[n] : RegionOffsets[n]+size]
		for i, got := range region {
			want := byte((i * step) % SourceSize)
			if got != want {
				t.Fatalf("region %d sample %d = %d, want %d", n, i, got, want)
			}
		}
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	src := make([]byte, SourceSize)
	for i := range src {
		src[i] = byte(i*37 + 11)
	}
	a := Expand(src)
	b := Expand(src)
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical tables across builds")
	}
	if src[0] != 11 {
		t.Fatalf("expected source to be left untouched")
	}
}

func TestFromSigned(t *testing.T) {
	got := FromSigned([]int8{0, -128, 127, -1})
	want := []byte{128, 0, 255, 127}
	if !bytes.Equal(got, want) {
		t.Fatalf("FromSigned = %v, want %v", got, want)
	}
}

func TestFromSample(t *testing.T) {
	t.Run("8-bit stereo", func(t *testing.T) {
		s := &soundbank.Sample{BitDepth: 8, Channels: 2, Data: []byte{10, 20, 30, 40}}
		if got := FromSample(s); !bytes.Equal(got, []byte{10, 30}) {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("16-bit mono", func(t *testing.T) {
		// 0x0000, 0x7f00, 0x8000 (most negative)
		s := &soundbank.Sample{BitDepth: 16, Channels: 1, Data: []byte{0x00, 0x00, 0x00, 0x7f, 0x00, 0x80}}
		if got := FromSample(s); !bytes.Equal(got, []byte{0x80, 0xff, 0x00}) {
			t.Fatalf("got %v", got)
		}
	})
	t.Run("unsupported", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic for 24-bit data")
			}
		}()
		FromSample(&soundbank.Sample{BitDepth: 24, Channels: 1, Data: make([]byte, 6)})
	})
}
