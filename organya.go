// Package organya renders Organya tracker songs to 44.1 kHz stereo 16-bit PCM.
//
// A Renderer pulls frames from the playback engine on demand. RenderAll renders a whole
// song at once and EncodeWAVPCM16LE wraps the result in a WAV container.
package organya

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	intaudio "github.com/cbegin/organya-go/internal/audio"
	intseq "github.com/cbegin/organya-go/internal/sequencer"
	"github.com/cbegin/organya-go/orgfile"
	"github.com/cbegin/organya-go/soundbank"
)

const (
	SampleRate = intseq.OutputRate
	Channels   = 2
	BitDepth   = 16
)

// Event reports playback progress to a handler installed with WithEventHandler.
type Event int

const (
	EventLoopCompleted Event = iota
	EventPlaybackEnded
)

func (e Event) String() string {
	switch e {
	case EventLoopCompleted:
		return "loop completed"
	case EventPlaybackEnded:
		return "playback ended"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

type Option func(*config)

type config struct {
	opts     intseq.Options
	onEvent  func(Event)
	frameTap func([]uint32)
}

func defaultConfig() config {
	return config{opts: intseq.DefaultOptions()}
}

// WithLoops sets how many extra times the loop range is played. The default is 1.
func WithLoops(n int) Option {
	return func(cfg *config) {
		cfg.opts.Loops = n
	}
}

// WithExtraSeconds appends n seconds after the last loop so released notes can ring out.
func WithExtraSeconds(n int) Option {
	return func(cfg *config) {
		cfg.opts.ExtraSeconds = n
	}
}

func WithStartTick(tick int32) Option {
	return func(cfg *config) {
		cfg.opts.StartTick = tick
	}
}

// WithMutedTracks silences the given track indexes (0-15).
func WithMutedTracks(tracks ...int) Option {
	return func(cfg *config) {
		for _, tr := range tracks {
			if tr < 0 || tr >= orgfile.NumTracks {
				panic(fmt.Sprintf("organya: track %d out of range [0, %d)", tr, orgfile.NumTracks))
			}
			cfg.opts.Mute[tr] = true
		}
	}
}

// WithEventHandler installs a callback for loop and end-of-stream events.
// It runs on the rendering goroutine.
func WithEventHandler(fn func(Event)) Option {
	return func(cfg *config) {
		cfg.onEvent = fn
	}
}

// WithFrameTap installs a callback invoked with each rendered block of frames.
// The slice is reused; copy it to keep the data.
func WithFrameTap(tap func([]uint32)) Option {
	return func(cfg *config) {
		cfg.frameTap = tap
	}
}

type Renderer struct {
	engine   *intseq.Engine
	frameTap func([]uint32)
}

// NewRenderer prepares song for playback with the instruments in bank.
//
// The song must be valid (see orgfile.Song.Validate) and refer only to
// waves and drums present in bank; violations panic.
func NewRenderer(song *orgfile.Song, bank *soundbank.Bank, opts ...Option) *Renderer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.onEvent != nil {
		onEvent := cfg.onEvent
		cfg.opts.OnEvent = func(kind intseq.EventKind) {
			switch kind {
			case intseq.EventLoopCompleted:
				onEvent(EventLoopCompleted)
			case intseq.EventPlaybackEnded:
				onEvent(EventPlaybackEnded)
			}
		}
	}
	return &Renderer{
		engine:   intseq.NewWithOptions(song, bank, cfg.opts),
		frameTap: cfg.frameTap,
	}
}

// TotalFrames is the length of the whole stream in frames.
func (r *Renderer) TotalFrames() int {
	return r.engine.TotalFrames()
}

func (r *Renderer) FramesPerTick() int {
	return r.engine.FramesPerTick()
}

// FramesDone is the number of frames rendered so far.
func (r *Renderer) FramesDone() int {
	return r.engine.FramesDone()
}

// Render fills dst with packed stereo frames: the left sample in the low 16 bits
// and the right sample in the high 16 bits. It returns the number of frames written,
// which is less than len(dst) only at the end of the stream.
func (r *Renderer) Render(dst []uint32) int {
	n := r.engine.Render(dst)
	if r.frameTap != nil && n > 0 {
		r.frameTap(dst[:n])
	}
	return n
}

// RenderAll renders the whole stream.
func RenderAll(song *orgfile.Song, bank *soundbank.Bank, opts ...Option) []uint32 {
	r := NewRenderer(song, bank, opts...)
	out := make([]uint32, r.TotalFrames())
	n := r.Render(out)
	return out[:n]
}

// NewStream returns the rendered stream as little endian 16-bit PCM bytes.
// Reads return io.EOF after the last frame.
func NewStream(r *Renderer) io.ReadCloser {
	return intaudio.NewStreamReader(r)
}

// LoadSong reads a song file. Files ending in .yml or .yaml are song descriptions,
// anything else is parsed as a binary Organya module.
func LoadSong(path string) (*orgfile.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var song *orgfile.Song
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		song, err = orgfile.DecodeYAML(data)
	default:
		song, err = orgfile.Parse(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := song.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return song, nil
}

// LoadBank reads a sound bank directory (see soundbank.Load).
func LoadBank(dir string) (*soundbank.Bank, error) {
	bank, err := soundbank.Load(os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("load bank %s: %w", dir, err)
	}
	return bank, nil
}
