package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/linuxconsole/frecon/splash"
	"github.com/linuxconsole/frecon/vt"
)

// Config is the process-wide configuration assembled from §6's
// command-line flags. It is populated once at startup and never
// mutated afterward.
type Config struct {
	Clear      uint32
	Daemon     bool
	EnableVTs  bool
	SplashOnly bool
	EnableGfx  bool
	NoLogin    bool

	FrameInterval time.Duration
	LoopCount     int
	LoopStart     int
	LoopInterval  time.Duration
	LoopOffset    *vt.Point

	PrintResolution bool
	GammaPath       string

	Frames []splash.Frame
}

// imageRef is one --image or --image-hires occurrence, in the order it
// appeared on the command line, paired with whatever --offset was
// current at that point.
type imageRef struct {
	path   string
	offset *vt.Point
	hires  bool
}

// parsePoint parses the "x,y" grammar shared by --offset and
// --loop-offset.
func parsePoint(s string) (x, y int, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected \"x,y\", got %q", s)
	}
	x, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad x in %q: %w", s, err)
	}
	y, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("bad y in %q: %w", s, err)
	}
	return x, y, nil
}

// pointFlag is a pflag.Value storing the parsed point directly into
// *p, used for plain (non-tracking) point-valued flags like
// --loop-offset.
type pointFlag struct{ p **vt.Point }

func (f pointFlag) String() string {
	if *f.p == nil {
		return ""
	}
	return fmt.Sprintf("%d,%d", (*f.p).X, (*f.p).Y)
}
func (f pointFlag) Type() string { return "x,y" }
func (f pointFlag) Set(s string) error {
	x, y, err := parsePoint(s)
	if err != nil {
		return err
	}
	*f.p = &vt.Point{X: x, Y: y}
	return nil
}

// flagParser holds the mutable state threaded through flag parsing:
// --offset updates current, and each --image/--image-hires occurrence
// snapshots it into an imageRef, preserving §6's "applies to subsequent
// images" ordering semantics that a plain struct field can't express
// once pflag has flattened the argument list.
type flagParser struct {
	current *vt.Point
	refs    []imageRef
}

func (p *flagParser) offsetValue() pflag.Value  { return offsetFlag{p} }
func (p *flagParser) imageValue() pflag.Value   { return imageFlag{p, false} }
func (p *flagParser) imageHiresValue() pflag.Value { return imageFlag{p, true} }

type offsetFlag struct{ p *flagParser }

func (f offsetFlag) String() string { return "" }
func (f offsetFlag) Type() string   { return "x,y" }
func (f offsetFlag) Set(s string) error {
	x, y, err := parsePoint(s)
	if err != nil {
		return err
	}
	f.p.current = &vt.Point{X: x, Y: y}
	return nil
}

type imageFlag struct {
	p     *flagParser
	hires bool
}

func (f imageFlag) String() string { return "" }
func (f imageFlag) Type() string   { return "path" }
func (f imageFlag) Set(path string) error {
	f.p.refs = append(f.p.refs, imageRef{path: path, offset: f.p.current, hires: f.hires})
	return nil
}

// parseFlags builds a FlagSet covering every §6 flag, parses argv, and
// returns the resulting Config. displayWidth resolves the --image vs
// --image-hires choice (§6: hires is used only above 1920px).
func parseFlags(argv []string, displayWidth int) (*Config, error) {
	cfg := &Config{LoopStart: -1}
	parser := &flagParser{}

	fs := pflag.NewFlagSet("frecon", pflag.ContinueOnError)

	var clearHex string
	fs.StringVar(&clearHex, "clear", "0x000000", "background clear color for the splash terminal (0xRRGGBB)")
	fs.BoolVar(&cfg.Daemon, "daemon", false, "also log to the kernel log (/dev/kmsg); does not detach or redirect stdout/stderr")
	fs.BoolVar(&cfg.EnableVTs, "dev-mode", false, "keep running past login-prompt-visible and make VT terminals available")
	fs.BoolVar(&cfg.EnableVTs, "enable-vts", false, "alias of --dev-mode")
	fs.BoolVar(&cfg.SplashOnly, "splash-only", false, "exit when the splash sequence completes")
	fs.BoolVar(&cfg.EnableGfx, "enable-gfx", false, "allow image/box OSC sequences inside terminals")
	fs.BoolVar(&cfg.NoLogin, "no-login", false, "accepted but has no effect: login-prompt-visible still destroys the splash")

	var frameIntervalMS, loopIntervalMS int
	fs.IntVar(&frameIntervalMS, "frame-interval", 0, "default per-frame duration in milliseconds")
	fs.IntVar(&cfg.LoopCount, "loop-count", 0, "splash loop repeat count, -1 for infinite")
	fs.IntVar(&cfg.LoopStart, "loop-start", -1, "index the splash loop region starts at")
	fs.IntVar(&loopIntervalMS, "loop-interval", 0, "per-frame duration once looping, in milliseconds")
	fs.Var(pointFlag{&cfg.LoopOffset}, "loop-offset", "parsed (\"x,y\") but not applied to the splash frames")

	fs.Var(parser.offsetValue(), "offset", "default offset for subsequent images (\"x,y\")")
	fs.Var(parser.imageValue(), "image", "add one frame to the splash sequence")
	fs.Var(parser.imageHiresValue(), "image-hires", "like --image, accepted only on displays wider than 1920px")

	fs.BoolVar(&cfg.PrintResolution, "print-resolution", false, "print \"W H\\n\" to stdout and exit")
	fs.StringVar(&cfg.GammaPath, "gamma", "", "load a 768-byte gamma ramp file")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	clear, err := strconv.ParseUint(strings.TrimPrefix(clearHex, "0x"), 16, 32)
	if err != nil {
		return nil, fmt.Errorf("bad --clear value %q: %w", clearHex, err)
	}
	cfg.Clear = uint32(clear)
	cfg.FrameInterval = time.Duration(frameIntervalMS) * time.Millisecond
	cfg.LoopInterval = time.Duration(loopIntervalMS) * time.Millisecond

	cfg.Frames = resolveFrames(parser.refs, displayWidth)
	for _, path := range fs.Args() {
		cfg.Frames = append(cfg.Frames, splash.Frame{Path: path})
	}

	return cfg, nil
}

// resolveFrames pairs up --image/--image-hires occurrences by their
// position among same-kind flags: the Nth --image and the Nth
// --image-hires address the same splash slot, and the wide-display
// variant wins once the display exceeds 1920px.
func resolveFrames(refs []imageRef, displayWidth int) []splash.Frame {
	wide := displayWidth > 1920

	var plain, hires []imageRef
	for _, r := range refs {
		if r.hires {
			hires = append(hires, r)
		} else {
			plain = append(plain, r)
		}
	}

	n := len(plain)
	if len(hires) > n {
		n = len(hires)
	}

	frames := make([]splash.Frame, 0, n)
	for i := 0; i < n; i++ {
		var chosen *imageRef
		if wide && i < len(hires) {
			chosen = &hires[i]
		} else if i < len(plain) {
			chosen = &plain[i]
		} else if i < len(hires) {
			chosen = &hires[i]
		}
		if chosen != nil {
			frames = append(frames, splash.Frame{Path: chosen.path, Offset: chosen.offset})
		}
	}
	return frames
}
