package orgfile

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrTooManyTracks is returned when a YAML song lists more than NumTracks tracks.
var ErrTooManyTracks = errors.New("too many tracks")

// yamlSong is the text form of Song. Tracks may be omitted from the end.
type yamlSong struct {
	Song   `yaml:",inline"`
	Tracks []Track `yaml:"tracks"`
}

func (v Version) MarshalYAML() (interface{}, error) {
	if v < VersionBeta || v > VersionExtended {
		return nil, fmt.Errorf("unknown version %d", uint8(v))
	}
	return int(v - '0'), nil
}

func (v *Version) UnmarshalYAML(value *yaml.Node) error {
	var n int
	if err := value.Decode(&n); err != nil {
		return err
	}
	if n < 1 || n > 3 {
		return fmt.Errorf("line %d: unknown version %d", value.Line, n)
	}
	*v = Version('0' + n)
	return nil
}

// UnmarshalYAML defaults the instrument frequency to 1000 (no detune).
func (t *Track) UnmarshalYAML(value *yaml.Node) error {
	type plain Track
	raw := plain{Instrument: Instrument{Freq: 1000}}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*t = Track(raw)
	return nil
}

// DecodeYAML reads a song description. Instrument note counts are derived from the note lists.
func DecodeYAML(data []byte) (*Song, error) {
	var ys yamlSong
	ys.Version = VersionMain
	if err := yaml.Unmarshal(data, &ys); err != nil {
		return nil, fmt.Errorf("decode yaml song: %w", err)
	}
	if len(ys.Tracks) > NumTracks {
		return nil, fmt.Errorf("decode yaml song: %w (%d)", ErrTooManyTracks, len(ys.Tracks))
	}
	song := ys.Song
	for i := range song.Tracks {
		song.Tracks[i].Instrument.Freq = 1000
	}
	for i, tr := range ys.Tracks {
		tr.Instrument.NumNotes = uint16(len(tr.Notes))
		song.Tracks[i] = tr
	}
	return &song, nil
}

// EncodeYAML writes s in the form DecodeYAML reads. Trailing empty tracks are dropped.
func EncodeYAML(s *Song) ([]byte, error) {
	n := len(s.Tracks)
	for n > 0 && len(s.Tracks[n-1].Notes) == 0 {
		n--
	}
	ys := yamlSong{
		Song:   *s,
		Tracks: s.Tracks[:n],
	}
	out, err := yaml.Marshal(&ys)
	if err != nil {
		return nil, fmt.Errorf("encode yaml song: %w", err)
	}
	return out, nil
}
