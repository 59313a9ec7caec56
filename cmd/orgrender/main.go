package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/cbegin/organya-go"
)

func main() {
	var (
		bankDir = flag.String("bank", "bank", "sound bank directory (wave100.dat and drums/*.wav)")
		outPath = flag.String("o", "-", "output file, - for stdout")
		format  = flag.String("format", "wav", "output format: wav|raw")
		loops   = flag.Int("loops", 1, "extra passes over the loop range")
		extra   = flag.Int("extra", 0, "seconds of tail after the last loop")
		start   = flag.Int("start", 0, "start tick")
		mute    = flag.String("mute", "", "comma separated track indexes to silence (0-15)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] song.org|song.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("orgrender: ")

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *format != "wav" && *format != "raw" {
		log.Fatalf("invalid -format %q (expected wav|raw)", *format)
	}
	muted, err := parseTracks(*mute)
	if err != nil {
		log.Fatal(err)
	}

	song, err := organya.LoadSong(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	bank, err := organya.LoadBank(*bankDir)
	if err != nil {
		log.Fatal(err)
	}

	out, closeOut, err := openOutput(*outPath)
	if err != nil {
		log.Fatal(err)
	}

	progress := newProgress(os.Stderr)
	loopCount := 0
	r := organya.NewRenderer(song, bank,
		organya.WithLoops(*loops),
		organya.WithExtraSeconds(*extra),
		organya.WithStartTick(int32(*start)),
		organya.WithMutedTracks(muted...),
		organya.WithEventHandler(func(e organya.Event) {
			if e == organya.EventLoopCompleted {
				loopCount++
				progress.clear()
				log.Printf("loop %d completed", loopCount)
			}
		}),
	)
	progress.total = r.TotalFrames()

	w := bufio.NewWriter(out)
	if err := render(w, r, *format, progress); err != nil {
		log.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		log.Fatal(err)
	}
	if err := closeOut(); err != nil {
		log.Fatal(err)
	}
	progress.clear()
}

func render(w io.Writer, r *organya.Renderer, format string, p *progress) error {
	if format == "raw" {
		stream := organya.NewStream(r)
		defer stream.Close()
		buf := make([]byte, 4096*4)
		for {
			n, err := stream.Read(buf)
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			p.update(r.FramesDone())
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}

	frames := make([]uint32, 0, r.TotalFrames())
	block := make([]uint32, 4096)
	for {
		n := r.Render(block)
		frames = append(frames, block[:n]...)
		p.update(r.FramesDone())
		if n < len(block) {
			break
		}
	}
	_, err := w.Write(organya.EncodeWAVPCM16LE(frames))
	return err
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, nil, fmt.Errorf("refusing to write audio to a terminal; use -o")
		}
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func parseTracks(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var tracks []int
	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || n < 0 || n > 15 {
			return nil, fmt.Errorf("invalid -mute track %q (expected 0-15)", field)
		}
		tracks = append(tracks, n)
	}
	return tracks, nil
}

// progress prints "Rendering mm:ss / mm:ss" on a terminal. The time is song time, not wall time.
type progress struct {
	f       *os.File
	enabled bool
	total   int
	last    int
}

func newProgress(f *os.File) *progress {
	return &progress{f: f, enabled: term.IsTerminal(int(f.Fd())), last: -1}
}

func (p *progress) update(done int) {
	if !p.enabled {
		return
	}
	sec := done / organya.SampleRate
	if sec == p.last {
		return
	}
	p.last = sec
	fmt.Fprintf(p.f, "\rRendering %s / %s", clock(done), clock(p.total))
}

func (p *progress) clear() {
	if !p.enabled || p.last < 0 {
		return
	}
	fmt.Fprint(p.f, "\r\033[K")
	p.last = -1
}

func clock(frames int) string {
	sec := frames / organya.SampleRate
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
