// Package splash implements the splash player (component H): a timed
// sequence of decoded images painted onto a dedicated terminal slot
// before any interactive VT is shown.
package splash

import (
	"time"

	"github.com/linuxconsole/frecon/vt"
)

// Frame is one image in the splash sequence.
type Frame struct {
	Path     string
	Location *vt.Point
	Offset   *vt.Point
}

// Config describes the splash sequence, mirroring the `--image`,
// `--clear`, `--frame-interval`, and `--loop-*` flags of §6.
type Config struct {
	Frames        []Frame
	ClearColor    uint32
	FrameInterval time.Duration

	LoopStart    int // index frames[LoopStart:] loops from; <0 disables looping
	LoopCount    int
	LoopDuration time.Duration // overrides FrameInterval once looping starts
}

// terminal is the subset of *term.Terminal the splash player needs.
type terminal interface {
	Activate() error
	Deactivate()
	SetBackground(color uint32)
	HideCursor()
	PaintImage(img vt.ImageCommand) error
}

// Player drives one splash terminal through its configured frame
// sequence.
type Player struct {
	cfg  Config
	term terminal
	pump func() error // one main-loop iteration, with a short budget
	now  func() time.Time
	stop chan struct{}
}

// New creates a Player. pump is called between frames to let the main
// loop service the bus/input/PTY fds while the splash sequence is
// running (§4.H's "pump one iteration of the main loop" step); now
// abstracts the monotonic clock for tests.
func New(cfg Config, term terminal, pump func() error, now func() time.Time) *Player {
	if now == nil {
		now = time.Now
	}
	return &Player{cfg: cfg, term: term, pump: pump, now: now, stop: make(chan struct{})}
}

// Run executes the full splash sequence: construct/activate the
// terminal, play every configured frame (honoring the loop region), and
// relinquish the "current" pointer when done. The caller (main loop)
// is responsible for deciding what becomes current next.
func (p *Player) Run() error {
	if len(p.cfg.Frames) == 0 {
		return nil
	}

	p.term.SetBackground(p.cfg.ClearColor)
	if err := p.term.Activate(); err != nil {
		return err
	}
	p.term.HideCursor()

	last := p.now()
	hasLoopRegion := p.cfg.LoopStart >= 0 && p.cfg.LoopStart < len(p.cfg.Frames)

	if p.cfg.LoopCount < 0 && hasLoopRegion {
		// LoopCount of -1 means loop forever: play the intro frames once,
		// then cycle the loop region until Stop is called.
		for idx := 0; idx < p.cfg.LoopStart; idx++ {
			if p.stopped() {
				p.term.Deactivate()
				return nil
			}
			last = p.playFrame(idx, false, last)
		}
		repeat := false
		for {
			for idx := p.cfg.LoopStart; idx < len(p.cfg.Frames); idx++ {
				if p.stopped() {
					p.term.Deactivate()
					return nil
				}
				last = p.playFrame(idx, repeat, last)
			}
			repeat = true
		}
	}

	for pos, idx := range p.sequence() {
		if p.stopped() {
			break
		}
		last = p.playFrame(idx, pos >= len(p.cfg.Frames), last)
	}

	p.term.Deactivate()
	return nil
}

func (p *Player) stopped() bool {
	select {
	case <-p.stop:
		return true
	default:
		return false
	}
}

// playFrame waits out the frame's interval, paints it, and pumps the
// main loop once, returning the new "last painted at" timestamp. repeat
// marks whether this showing of frame idx is a loop-region repeat
// rather than the sequence's first, unlooped pass.
func (p *Player) playFrame(idx int, repeat bool, last time.Time) time.Time {
	frame := p.cfg.Frames[idx]
	interval := p.intervalFor(repeat)
	last = p.sleepUntil(last, interval)

	img := vt.ImageCommand{File: frame.Path, Location: frame.Location, Offset: frame.Offset}
	p.term.PaintImage(img)

	if p.pump != nil {
		p.pump()
	}
	return last
}

// Stop ends the sequence early, e.g. when login-prompt-visible arrives
// mid-playback.
func (p *Player) Stop() {
	close(p.stop)
}

// intervalFor returns the per-frame duration to wait before showing a
// frame. The sequence's first pass through every configured frame,
// including the loop region, always uses FrameInterval; LoopDuration
// only applies once the play position is an actual repeat of the loop
// region (repeat is true).
func (p *Player) intervalFor(repeat bool) time.Duration {
	if repeat && p.cfg.LoopDuration > 0 {
		return p.cfg.LoopDuration
	}
	return p.cfg.FrameInterval
}

// sequence expands the configured frames into the full play order,
// repeating frames[LoopStart:] LoopCount additional times.
func (p *Player) sequence() []int {
	order := make([]int, len(p.cfg.Frames))
	for i := range order {
		order[i] = i
	}
	if p.cfg.LoopStart < 0 || p.cfg.LoopStart >= len(p.cfg.Frames) || p.cfg.LoopCount <= 0 {
		return order
	}
	for i := 0; i < p.cfg.LoopCount; i++ {
		for idx := p.cfg.LoopStart; idx < len(p.cfg.Frames); idx++ {
			order = append(order, idx)
		}
	}
	return order
}

// sleepUntil blocks until interval has elapsed since last, using a
// monotonic clock. A slow previous iteration only truncates the sleep
// (never sleeps negative / never drifts the schedule forward), per
// §4.H's drift rule.
func (p *Player) sleepUntil(last time.Time, interval time.Duration) time.Time {
	now := p.now()
	elapsed := now.Sub(last)
	if remaining := interval - elapsed; remaining > 0 {
		time.Sleep(remaining)
		return last.Add(interval)
	}
	return now
}
