// Package soundbank holds the decoded instrument data an Organya song plays from.
//
// A bank is made of 100 single-cycle melodic waveforms (256 signed 8-bit samples each)
// and a table of one-shot drum samples, each with its own sample rate and bit depth.
package soundbank

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"

	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

const (
	NumWaves = 100
	WaveSize = 256
)

// WaveTableFile and DrumDir are the names Load looks for inside a bank directory.
const (
	WaveTableFile = "wave100.dat"
	DrumDir       = "drums"
)

type Bank struct {
	Waves [NumWaves][WaveSize]int8
	Drums []Sample
}

// Sample is a drum recording.
//
// 8-bit data follows the WAV convention (unsigned, 128 = silence).
// 16-bit data is signed little endian.
// Multi-channel data is interleaved.
type Sample struct {
	SampleRate int
	BitDepth   int
	Channels   int
	Data       []byte
}

// Frames reports the number of sample frames in s.
func (s *Sample) Frames() int {
	frameSize := s.Channels * s.BitDepth / 8
	if frameSize == 0 {
		return 0
	}
	return len(s.Data) / frameSize
}

// Wave returns the melodic waveform at index i.
func (b *Bank) Wave(i int) []int8 {
	if i < 0 || i >= NumWaves {
		panic(fmt.Sprintf("soundbank: wave index %d out of range [0, %d)", i, NumWaves))
	}
	return b.Waves[i][:]
}

// Drum returns the drum sample at index i.
func (b *Bank) Drum(i int) *Sample {
	if i < 0 || i >= len(b.Drums) {
		panic(fmt.Sprintf("soundbank: drum index %d out of range [0, %d)", i, len(b.Drums)))
	}
	return &b.Drums[i]
}

// ParseWaves decodes the raw melodic wave table: 100 consecutive waves of 256 signed bytes.
func ParseWaves(data []byte) ([NumWaves][WaveSize]int8, error) {
	var waves [NumWaves][WaveSize]int8
	if len(data) != NumWaves*WaveSize {
		return waves, fmt.Errorf("wave table: expected %d bytes, got %d", NumWaves*WaveSize, len(data))
	}
	for i := range waves {
		for j := range waves[i] {
			waves[i][j] = int8(data[i*WaveSize+j])
		}
	}
	return waves, nil
}

// DecodeDrum reads a WAV file into a mono 16-bit drum sample at the file's own sample rate.
func DecodeDrum(r io.Reader) (Sample, error) {
	stream, err := wav.DecodeWithoutResampling(r)
	if err != nil {
		return Sample{}, fmt.Errorf("decode wav: %w", err)
	}
	// The decoder always yields 16-bit little endian stereo.
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return Sample{}, fmt.Errorf("read wav data: %w", err)
	}
	if len(pcm) < 4 {
		return Sample{}, errors.New("wav has no sample data")
	}
	mono := make([]byte, 0, len(pcm)/2)
	for i := 0; i+3 < len(pcm); i += 4 {
		mono = append(mono, pcm[i], pcm[i+1])
	}
	return Sample{
		SampleRate: stream.SampleRate(),
		BitDepth:   16,
		Channels:   1,
		Data:       mono,
	}, nil
}

// Load reads a bank directory: the raw wave table plus every drums/*.wav in name order.
func Load(fsys fs.FS) (*Bank, error) {
	raw, err := fs.ReadFile(fsys, WaveTableFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", WaveTableFile, err)
	}
	waves, err := ParseWaves(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", WaveTableFile, err)
	}
	b := &Bank{Waves: waves}

	names, err := fs.Glob(fsys, path.Join(DrumDir, "*.wav"))
	if err != nil {
		return nil, fmt.Errorf("list drums: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		s, err := DecodeDrum(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		b.Drums = append(b.Drums, s)
	}
	return b, nil
}
