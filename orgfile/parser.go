package orgfile

import (
	"encoding/binary"
	"fmt"
	"strings"
)

type ParseError struct {
	Message string

	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (offset=%d)", e.Message, e.Offset)
}

type parser struct {
	data   []byte
	offset int

	song Song

	// Used for error reporting.
	stage      string
	stageIndex int
}

func (p *parser) startStage(name string) {
	p.stage = name
	p.stageIndex = -1
}

func (p *parser) formatStage() string {
	var b strings.Builder
	b.WriteString(p.stage)
	if p.stageIndex >= 0 {
		fmt.Fprintf(&b, "[%d]", p.stageIndex)
	}
	return b.String()
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	text := fmt.Sprintf(format, args...)
	if tag := p.formatStage(); tag != "" {
		text = tag + ": " + text
	}
	return &ParseError{
		Message: text,
		Offset:  p.offset,
	}
}

func (p *parser) need(l int, what string) {
	if len(p.data)-p.offset < l {
		panic(p.errorf("unexpected EOF while reading %s", what))
	}
}

func (p *parser) read(l int, what string) []byte {
	p.need(l, what)
	b := p.data[p.offset : p.offset+l]
	p.offset += l
	return b
}

func (p *parser) readDword(what string) int32 {
	p.need(4, what)
	v := binary.LittleEndian.Uint32(p.data[p.offset:])
	p.offset += 4
	return int32(v)
}

func (p *parser) readWord(what string) uint16 {
	p.need(2, what)
	v := binary.LittleEndian.Uint16(p.data[p.offset:])
	p.offset += 2
	return v
}

func (p *parser) readByte(what string) uint8 {
	p.need(1, what)
	b := p.data[p.offset]
	p.offset++
	return b
}

func (p *parser) parse() (err error) {
	defer func() {
		rv := recover()
		if rv != nil {
			if parseErr, ok := rv.(*ParseError); ok {
				err = parseErr
			} else {
				panic(rv)
			}
		}
	}()

	p.parseSong()

	return err
}

func (p *parser) parseSong() {
	p.startStage("header")
	p.parseHeader()

	p.startStage("instrument")
	for i := range p.song.Tracks {
		p.stageIndex = i
		p.song.Tracks[i].Instrument = p.parseInstrument()
	}

	p.startStage("notes")
	for i := range p.song.Tracks {
		p.stageIndex = i
		tr := &p.song.Tracks[i]
		tr.Notes = p.parseNotes(int(tr.Instrument.NumNotes))
	}
}

func (p *parser) parseHeader() {
	magic := string(p.read(6, "magic"))
	switch magic {
	case "Org-01":
		p.song.Version = VersionBeta
	case "Org-02":
		p.song.Version = VersionMain
	case "Org-03":
		p.song.Version = VersionExtended
	default:
		p.offset = 0
		panic(p.errorf("invalid magic number %q", magic))
	}

	p.song.Wait = p.readWord("wait")
	p.song.Beats = p.readByte("beats")
	p.song.Steps = p.readByte("steps")
	p.song.LoopStart = p.readDword("loop start")
	p.song.LoopEnd = p.readDword("loop end")
}

func (p *parser) parseInstrument() Instrument {
	return Instrument{
		Freq:     p.readWord("frequency"),
		Sample:   p.readByte("sample"),
		Pipi:     p.readByte("pipi"),
		NumNotes: p.readWord("number of notes"),
	}
}

// Note fields are stored column by column.
func (p *parser) parseNotes(count int) []Note {
	if count == 0 {
		return nil
	}
	p.need(count*8, "note data")
	notes := make([]Note, count)
	for i := range notes {
		notes[i].Pos = p.readDword("note position")
	}
	for i := range notes {
		notes[i].Key = p.readByte("note key")
	}
	for i := range notes {
		notes[i].Len = p.readByte("note length")
	}
	for i := range notes {
		notes[i].Vol = p.readByte("note volume")
	}
	for i := range notes {
		notes[i].Pan = p.readByte("note pan")
	}
	return notes
}
