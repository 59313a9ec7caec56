package orgfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// buildOrg encodes a song the way OrgMaker stores it.
func buildOrg(magic string, s *Song) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString(magic)
	binary.Write(&buf, le, s.Wait)
	buf.WriteByte(s.Beats)
	buf.WriteByte(s.Steps)
	binary.Write(&buf, le, s.LoopStart)
	binary.Write(&buf, le, s.LoopEnd)
	for _, tr := range s.Tracks {
		binary.Write(&buf, le, tr.Instrument.Freq)
		buf.WriteByte(tr.Instrument.Sample)
		buf.WriteByte(tr.Instrument.Pipi)
		binary.Write(&buf, le, uint16(len(tr.Notes)))
	}
	for _, tr := range s.Tracks {
		for _, n := range tr.Notes {
			binary.Write(&buf, le, n.Pos)
		}
		for _, n := range tr.Notes {
			buf.WriteByte(n.Key)
		}
		for _, n := range tr.Notes {
			buf.WriteByte(n.Len)
		}
		for _, n := range tr.Notes {
			buf.WriteByte(n.Vol)
		}
		for _, n := range tr.Notes {
			buf.WriteByte(n.Pan)
		}
	}
	return buf.Bytes()
}

func sampleSong() *Song {
	s := &Song{
		Wait:      120,
		Beats:     4,
		Steps:     4,
		LoopStart: 16,
		LoopEnd:   64,
	}
	for i := range s.Tracks {
		s.Tracks[i].Instrument = Instrument{Freq: 1000, Sample: uint8(i)}
	}
	s.Tracks[0].Instrument.Pipi = 1
	s.Tracks[0].Notes = []Note{
		{Pos: 0, Key: 48, Len: 4, Vol: 200, Pan: 6},
		{Pos: 8, Key: NoChange, Len: 1, Vol: 100, Pan: NoChange},
	}
	s.Tracks[9].Notes = []Note{
		{Pos: 4, Key: 30, Len: 1, Vol: 255, Pan: 0},
	}
	return s
}

func TestParseDecodesColumns(t *testing.T) {
	want := sampleSong()
	song, err := ParseBytes(buildOrg("Org-02", want))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if song.Version != VersionMain {
		t.Fatalf("version = %v, want %v", song.Version, VersionMain)
	}
	if song.Wait != 120 || song.LoopStart != 16 || song.LoopEnd != 64 || song.Beats != 4 || song.Steps != 4 {
		t.Fatalf("unexpected header: %+v", song)
	}
	if song.Tracks[0].Instrument.Pipi != 1 || song.Tracks[0].Instrument.NumNotes != 2 {
		t.Fatalf("unexpected instrument: %+v", song.Tracks[0].Instrument)
	}
	for i, n := range want.Tracks[0].Notes {
		if song.Tracks[0].Notes[i] != n {
			t.Fatalf("note %d = %+v, want %+v", i, song.Tracks[0].Notes[i], n)
		}
	}
	if got := song.Tracks[9].Notes[0]; got != want.Tracks[9].Notes[0] {
		t.Fatalf("drum note = %+v", got)
	}
	if song.Tracks[5].Notes != nil || song.Tracks[5].Instrument.Sample != 5 {
		t.Fatalf("unexpected empty track: %+v", song.Tracks[5])
	}
}

func TestParseVersions(t *testing.T) {
	for magic, want := range map[string]Version{
		"Org-01": VersionBeta,
		"Org-02": VersionMain,
		"Org-03": VersionExtended,
	} {
		song, err := Parse(bytes.NewReader(buildOrg(magic, sampleSong())))
		if err != nil {
			t.Fatalf("%s: parse failed: %v", magic, err)
		}
		if song.Version != want {
			t.Fatalf("%s: version = %v", magic, song.Version)
		}
		if song.Version.String() != magic {
			t.Fatalf("%s: String() = %q", magic, song.Version.String())
		}
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := ParseBytes(buildOrg("Org-09", sampleSong()))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if parseErr.Offset != 0 || !strings.Contains(parseErr.Message, "magic") {
		t.Fatalf("unexpected error: %v", parseErr)
	}
}

func TestParseReportsTruncation(t *testing.T) {
	data := buildOrg("Org-02", sampleSong())
	_, err := ParseBytes(data[:len(data)-3])
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if !strings.HasPrefix(parseErr.Message, "notes[9]") {
		t.Fatalf("expected the error to name the drum track, got %q", parseErr.Message)
	}
}

func TestValidate(t *testing.T) {
	if err := sampleSong().Validate(); err != nil {
		t.Fatalf("expected a valid song, got %v", err)
	}
	cases := map[string]func(s *Song){
		"zero wait":     func(s *Song) { s.Wait = 0 },
		"empty loop":    func(s *Song) { s.LoopEnd = s.LoopStart },
		"high key":      func(s *Song) { s.Tracks[0].Notes[0].Key = 96 },
		"pan too large": func(s *Song) { s.Tracks[9].Notes[0].Pan = 13 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := sampleSong()
			mutate(s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSong) {
				t.Fatalf("expected ErrInvalidSong, got %v", err)
			}
		})
	}
}

const yamlSongText = `
version: 2
wait: 50
loop_start: 0
loop_end: 8
tracks:
  - instrument: {sample: 0}
    notes: [{pos: 0, key: 60, len: 4, vol: 0, pan: 0}]
  - instrument: {freq: 990, sample: 3, pipi: 1}
    notes:
      - {pos: 2, key: 50, len: 2, vol: 128, pan: 6}
      - {pos: 3, key: 255, len: 0, vol: 64, pan: 255}
`

func TestDecodeYAML(t *testing.T) {
	song, err := DecodeYAML([]byte(yamlSongText))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if song.Version != VersionMain || song.Wait != 50 || song.LoopEnd != 8 {
		t.Fatalf("unexpected header: %+v", song)
	}
	if song.Tracks[0].Instrument.Freq != 1000 {
		t.Fatalf("expected default freq 1000, got %d", song.Tracks[0].Instrument.Freq)
	}
	inst := song.Tracks[1].Instrument
	if inst.Freq != 990 || inst.Sample != 3 || inst.Pipi != 1 || inst.NumNotes != 2 {
		t.Fatalf("unexpected instrument: %+v", inst)
	}
	if got := song.Tracks[1].Notes[1]; got != (Note{Pos: 3, Key: NoChange, Vol: 64, Pan: NoChange}) {
		t.Fatalf("unexpected note: %+v", got)
	}
	if len(song.Tracks[15].Notes) != 0 || song.Tracks[15].Instrument.Freq != 1000 {
		t.Fatalf("expected omitted tracks to be empty")
	}
	if err := song.Validate(); err != nil {
		t.Fatalf("expected a valid song, got %v", err)
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	if _, err := DecodeYAML([]byte("version: 7\nwait: 1\n")); err == nil {
		t.Fatalf("expected unknown version error")
	}
	var b strings.Builder
	b.WriteString("wait: 1\ntracks:\n")
	for i := 0; i < NumTracks+1; i++ {
		b.WriteString("  - {instrument: {sample: 0}}\n")
	}
	if _, err := DecodeYAML([]byte(b.String())); !errors.Is(err, ErrTooManyTracks) {
		t.Fatalf("expected ErrTooManyTracks, got %v", err)
	}
}

func TestEncodeYAMLReadsBack(t *testing.T) {
	want := sampleSong()
	want.Version = VersionExtended
	out, err := EncodeYAML(want)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	got, err := DecodeYAML(out)
	if err != nil {
		t.Fatalf("decode failed: %v\n%s", err, out)
	}
	if got.Version != VersionExtended || got.LoopStart != want.LoopStart {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.Tracks[9].Notes) != 1 || got.Tracks[9].Notes[0] != want.Tracks[9].Notes[0] {
		t.Fatalf("drum track lost: %+v", got.Tracks[9])
	}
	if got.Tracks[12].Instrument.Sample != 0 {
		t.Fatalf("expected trailing empty tracks to be dropped, got %+v", got.Tracks[12].Instrument)
	}
}
