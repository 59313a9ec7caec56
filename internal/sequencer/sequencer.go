package sequencer

import (
	"fmt"

	"github.com/cbegin/organya-go/internal/mixer"
	"github.com/cbegin/organya-go/internal/tables"
	"github.com/cbegin/organya-go/internal/voice"
	"github.com/cbegin/organya-go/internal/wavetable"
	"github.com/cbegin/organya-go/orgfile"
	"github.com/cbegin/organya-go/soundbank"
)

const (
	OutputRate = 44100
	// WaveRate is the native rate of the melodic wave tables.
	WaveRate = 22050
)

const (
	melodicTracks = orgfile.NumMelodicTracks
	// NumBuffers covers 8 tracks x 8 octaves x 2 swap banks plus 8 drums.
	NumBuffers = melodicTracks*tables.NumOctaves*2 + orgfile.NumTracks - melodicTracks
	swapBank   = 64
	drumBase   = 120
	idle       = tables.NoChange
)

// EventKind identifies sequencer lifecycle events.
type EventKind int

const (
	// EventLoopCompleted fires each time the play position wraps back to the loop start.
	EventLoopCompleted EventKind = iota
	// EventPlaybackEnded fires once, after the last frame.
	EventPlaybackEnded
)

type Options struct {
	// Loops is the number of extra passes over the loop range after the first.
	Loops        int
	ExtraSeconds int
	StartTick    int32
	Mute         [orgfile.NumTracks]bool
	OnEvent      func(EventKind)
}

func DefaultOptions() Options {
	return Options{Loops: 1}
}

// Slot names one melodic voice buffer.
type Slot struct {
	Track  int
	Octave int
	// Swap is 0 or 64.
	Swap int
}

func (s Slot) Index() int {
	return s.Octave*8 + s.Track + s.Swap
}

// DrumIndex returns the buffer index of drum track (8-15).
func DrumIndex(track int) int {
	return drumBase + track
}

type Engine struct {
	song    *orgfile.Song
	buffers [NumBuffers]voice.Buffer
	// First note index per position, per track.
	noteAt [orgfile.NumTracks]map[int32]int

	lengths [melodicTracks]uint8
	swaps   [melodicTracks]int
	keys    [melodicTracks]uint8

	playPos        int32
	framesThisTick int
	framesPerTick  int
	framesDone     int
	ended          bool

	loops        int
	extraSeconds int
	mute         [orgfile.NumTracks]bool
	onEvent      func(EventKind)
}

func New(song *orgfile.Song, bank *soundbank.Bank) *Engine {
	return NewWithOptions(song, bank, DefaultOptions())
}

// NewWithOptions prepares the voice buffers for song.
// It panics if an instrument refers to a wave or drum the bank does not have.
func NewWithOptions(song *orgfile.Song, bank *soundbank.Bank, opts Options) *Engine {
	e := &Engine{
		song:          song,
		framesPerTick: int(float32(44.1) * float32(song.Wait)),
		playPos:       opts.StartTick,
		loops:         opts.Loops,
		extraSeconds:  opts.ExtraSeconds,
		mute:          opts.Mute,
		onEvent:       opts.OnEvent,
	}
	for i := range e.keys {
		e.keys[i] = idle
	}

	for track := 0; track < melodicTracks; track++ {
		inst := int(song.Tracks[track].Instrument.Sample)
		table := wavetable.Expand(wavetable.FromSigned(bank.Wave(inst)))
		for octave := 0; octave < tables.NumOctaves; octave++ {
			for _, swap := range []int{0, swapBank} {
				e.buffers[Slot{track, octave, swap}.Index()] = voice.New(table, WaveRate)
			}
		}
	}
	for track := melodicTracks; track < orgfile.NumTracks; track++ {
		s := bank.Drum(int(song.Tracks[track].Instrument.Sample))
		e.buffers[DrumIndex(track)] = voice.New(wavetable.FromSample(s), uint32(s.SampleRate))
	}

	for i := range song.Tracks {
		idx := make(map[int32]int, len(song.Tracks[i].Notes))
		for j, n := range song.Tracks[i].Notes {
			if _, ok := idx[n.Pos]; !ok {
				idx[n.Pos] = j
			}
		}
		e.noteAt[i] = idx
	}
	return e
}

func (e *Engine) FramesPerTick() int {
	return e.framesPerTick
}

// TotalFrames is the stream length: intro, one pass of the loop, the extra loops and the tail.
func (e *Engine) TotalFrames() int {
	intro := int(e.song.LoopStart)
	loopLen := int(e.song.LoopEnd - e.song.LoopStart)
	ticks := intro + loopLen + loopLen*e.loops
	return e.framesPerTick*ticks + e.extraSeconds*OutputRate
}

func (e *Engine) FramesDone() int {
	return e.framesDone
}

// SetPosition moves the play position. Call before rendering.
func (e *Engine) SetPosition(tick int32) {
	e.playPos = tick
}

func (e *Engine) SetLoops(n int) {
	e.loops = n
}

func (e *Engine) SetExtraSeconds(n int) {
	e.extraSeconds = n
}

func (e *Engine) SetMute(track int, muted bool) {
	if track < 0 || track >= orgfile.NumTracks {
		panic(fmt.Sprintf("sequencer: track %d out of range", track))
	}
	e.mute[track] = muted
}

// Render fills dst with stereo frames and returns how many were produced.
// It returns fewer than len(dst) only at the end of the stream.
func (e *Engine) Render(dst []uint32) int {
	total := e.TotalFrames()
	for i := range dst {
		if e.framesDone >= total {
			e.finish()
			return i
		}
		if e.framesThisTick == 0 {
			e.updatePlayState()
		}

		dst[i] = 0
		mixer.Mix(&dst[i], OutputRate, e.buffers[:])

		e.framesDone++
		e.framesThisTick++
		if e.framesThisTick == e.framesPerTick {
			e.playPos++
			if e.playPos == e.song.LoopEnd {
				e.playPos = e.song.LoopStart
				e.emit(EventLoopCompleted)
			}
			e.framesThisTick = 0
		}

		if e.framesDone >= total {
			e.finish()
			return i + 1
		}
	}
	return len(dst)
}

func (e *Engine) finish() {
	if e.ended {
		return
	}
	e.ended = true
	e.emit(EventPlaybackEnded)
}

func (e *Engine) emit(kind EventKind) {
	if e.onEvent != nil {
		e.onEvent(kind)
	}
}

func (e *Engine) noteAtPos(track int) (orgfile.Note, bool) {
	j, ok := e.noteAt[track][e.playPos]
	if !ok {
		return orgfile.Note{}, false
	}
	return e.song.Tracks[track].Notes[j], true
}

func (e *Engine) activeBuffer(track int) *voice.Buffer {
	octave, _ := tables.KeyToOctavePitch(e.keys[track])
	return &e.buffers[Slot{track, octave, e.swaps[track]}.Index()]
}

func (e *Engine) sounding(track int) bool {
	return e.keys[track] != idle
}

func (e *Engine) updatePlayState() {
	for track := 0; track < melodicTracks; track++ {
		if e.mute[track] {
			continue
		}
		e.updateMelodic(track)
	}
	for track := melodicTracks; track < orgfile.NumTracks; track++ {
		if e.mute[track] {
			continue
		}
		e.updateDrum(track)
	}
}

func (e *Engine) updateMelodic(track int) {
	inst := &e.song.Tracks[track].Instrument
	envelope := inst.Pipi != 0

	if note, ok := e.noteAtPos(track); ok {
		if note.Key != tables.NoChange {
			freq := uint32(tables.KeyToFrequency(note.Key, inst.Freq))
			if e.sounding(track) {
				old := e.activeBuffer(track)
				old.Release(envelope)
				// The outgoing buffer is retuned to the new key while it rings out.
				old.SetFrequency(freq)
				e.swaps[track] ^= swapBank
			}

			e.keys[track] = note.Key
			b := e.activeBuffer(track)
			b.SetFrequency(freq)
			octave, _ := tables.KeyToOctavePitch(note.Key)
			b.SelectOctave(octave, envelope)
			b.Start()

			e.lengths[track] = note.Len
		}

		// Volume and pan only reach a track that is sounding.
		if e.sounding(track) {
			b := e.activeBuffer(track)
			if note.Vol != tables.NoChange {
				b.SetVolume(tables.VolumeToCentibel(note.Vol))
			}
			if note.Pan != tables.NoChange {
				b.SetPan(tables.PanToCentibel(note.Pan))
			}
		}
	}

	if e.lengths[track] == 0 && e.sounding(track) {
		e.activeBuffer(track).Release(envelope)
		e.keys[track] = idle
	}
	if e.lengths[track] > 0 {
		e.lengths[track]--
	}
}

// Drums ignore note length and the envelope flag.
func (e *Engine) updateDrum(track int) {
	note, ok := e.noteAtPos(track)
	if !ok {
		return
	}
	b := &e.buffers[DrumIndex(track)]
	if note.Key != tables.NoChange {
		b.SetFrequency(uint32(tables.DrumToFrequency(note.Key)))
		b.SetPosition(0)
		b.Playing = true
	}
	if note.Vol != tables.NoChange {
		b.SetVolume(tables.VolumeToCentibel(note.Vol))
	}
	if note.Pan != tables.NoChange {
		b.SetPan(tables.PanToCentibel(note.Pan))
	}
}
