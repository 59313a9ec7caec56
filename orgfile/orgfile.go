package orgfile

import (
	"errors"
	"fmt"
	"io"
)

// Version is the format revision taken from the file magic ("Org-0N").
type Version uint8

const (
	// VersionBeta files have no envelope flag in practice.
	VersionBeta Version = '1'
	VersionMain Version = '2'
	// VersionExtended is the OrgMaker 2.05 extended drums revision.
	VersionExtended Version = '3'
)

func (v Version) String() string {
	switch v {
	case VersionBeta, VersionMain, VersionExtended:
		return "Org-0" + string(rune(v))
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

const (
	NumTracks        = 16
	NumMelodicTracks = 8
)

// NoChange in a note's key, volume or pan keeps the track's current value.
const NoChange = 255

// Song is a decoded Organya module.
type Song struct {
	Version Version `yaml:"version"`

	// Wait is the tick duration in milliseconds.
	Wait uint16 `yaml:"wait"`

	// Display-only grid settings.
	Beats uint8 `yaml:"beats,omitempty"`
	Steps uint8 `yaml:"steps,omitempty"`

	LoopStart int32 `yaml:"loop_start"` // inclusive
	LoopEnd   int32 `yaml:"loop_end"`   // exclusive

	Tracks [NumTracks]Track `yaml:"-"`
}

type Track struct {
	Instrument Instrument `yaml:"instrument"`
	Notes      []Note     `yaml:"notes,flow"`
}

type Instrument struct {
	// Freq detunes the track; 1000 plays at the table pitch.
	Freq uint16 `yaml:"freq"`
	// Sample indexes the melodic wave table for tracks 0-7 and the drum table for 8-15.
	Sample uint8 `yaml:"sample"`
	// Pipi enables the decaying loop envelope when nonzero.
	Pipi     uint8  `yaml:"pipi,omitempty"`
	NumNotes uint16 `yaml:"-"`
}

type Note struct {
	Pos int32 `yaml:"pos"`
	Key uint8 `yaml:"key"`
	Len uint8 `yaml:"len"`
	Vol uint8 `yaml:"vol"`
	Pan uint8 `yaml:"pan"`
}

// IsDrum reports whether track index i is a drum channel.
func IsDrum(i int) bool {
	return i >= NumMelodicTracks
}

// ErrInvalidSong is wrapped by every Validate failure.
var ErrInvalidSong = errors.New("invalid song")

// Validate checks the value ranges the playback engine relies on.
func (s *Song) Validate() error {
	if s.Wait == 0 {
		return fmt.Errorf("%w: zero wait time", ErrInvalidSong)
	}
	if s.LoopStart < 0 || s.LoopEnd <= s.LoopStart {
		return fmt.Errorf("%w: bad loop range [%d, %d)", ErrInvalidSong, s.LoopStart, s.LoopEnd)
	}
	for i := range s.Tracks {
		for j, n := range s.Tracks[i].Notes {
			if !IsDrum(i) && n.Key != NoChange && n.Key >= 96 {
				return fmt.Errorf("%w: track %d note %d: key %d above the last octave", ErrInvalidSong, i, j, n.Key)
			}
			if n.Pan != NoChange && n.Pan > 12 {
				return fmt.Errorf("%w: track %d note %d: pan %d out of range", ErrInvalidSong, i, j, n.Pan)
			}
		}
	}
	return nil
}

// Parse reads a binary Organya file.
//
// A non-nil error is usually a *ParseError object.
func Parse(r io.Reader) (*Song, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes is like Parse but decodes an in-memory file.
func ParseBytes(data []byte) (*Song, error) {
	p := &parser{data: data}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return &p.song, nil
}
