package splash

import (
	"testing"
	"time"

	"github.com/linuxconsole/frecon/vt"
)

type fakeTerminal struct {
	activated  bool
	background uint32
	cursorHid  bool
	painted    []string
	deactivated bool
}

func (f *fakeTerminal) Activate() error        { f.activated = true; return nil }
func (f *fakeTerminal) Deactivate()            { f.deactivated = true }
func (f *fakeTerminal) SetBackground(c uint32) { f.background = c }
func (f *fakeTerminal) HideCursor()            { f.cursorHid = true }
func (f *fakeTerminal) PaintImage(img vt.ImageCommand) error {
	f.painted = append(f.painted, img.File)
	return nil
}

func TestRunPlaysFramesInOrder(t *testing.T) {
	term := &fakeTerminal{}
	cfg := Config{
		Frames:        []Frame{{Path: "a.png"}, {Path: "b.png"}},
		ClearColor:    0x112233,
		FrameInterval: time.Millisecond,
		LoopStart:     -1,
	}
	clock := time.Unix(0, 0)
	player := New(cfg, term, nil, func() time.Time { return clock })

	if err := player.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !term.activated || !term.deactivated {
		t.Fatalf("expected terminal to be activated then deactivated")
	}
	if term.background != 0x112233 {
		t.Fatalf("background = %x, want 0x112233", term.background)
	}
	if !term.cursorHid {
		t.Fatalf("expected cursor to be hidden")
	}
	if len(term.painted) != 2 || term.painted[0] != "a.png" || term.painted[1] != "b.png" {
		t.Fatalf("painted = %v, want [a.png b.png]", term.painted)
	}
}

func TestSequenceExpandsLoopRegion(t *testing.T) {
	cfg := Config{
		Frames:    []Frame{{Path: "intro.png"}, {Path: "loop1.png"}, {Path: "loop2.png"}},
		LoopStart: 1,
		LoopCount: 2,
	}
	p := &Player{cfg: cfg}
	seq := p.sequence()
	want := []int{0, 1, 2, 1, 2, 1, 2}
	if len(seq) != len(want) {
		t.Fatalf("sequence() = %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("sequence()[%d] = %d, want %d", i, seq[i], want[i])
		}
	}
}

func TestSequenceNoLoopReturnsFramesOnce(t *testing.T) {
	cfg := Config{Frames: []Frame{{Path: "a"}, {Path: "b"}}, LoopStart: -1}
	p := &Player{cfg: cfg}
	seq := p.sequence()
	if len(seq) != 2 || seq[0] != 0 || seq[1] != 1 {
		t.Fatalf("sequence() = %v, want [0 1]", seq)
	}
}

func TestIntervalForUsesLoopDurationOnlyOnRepeat(t *testing.T) {
	p := &Player{cfg: Config{FrameInterval: 100 * time.Millisecond, LoopStart: 2, LoopDuration: 50 * time.Millisecond}}
	if got := p.intervalFor(false); got != 100*time.Millisecond {
		t.Fatalf("intervalFor(false) = %v, want 100ms", got)
	}
	if got := p.intervalFor(true); got != 50*time.Millisecond {
		t.Fatalf("intervalFor(true) = %v, want 50ms (loop duration)", got)
	}
}

// TestSequenceRepeatFlagsMatchFirstPassVsLoop exercises scenario 3: a
// four-frame clip whose [2,3] tail loops 3 extra times must still use
// FrameInterval for frame 2's first appearance, only switching to
// LoopDuration once a position is an actual repeat.
func TestSequenceRepeatFlagsMatchFirstPassVsLoop(t *testing.T) {
	cfg := Config{
		Frames:    []Frame{{}, {}, {}, {}},
		LoopStart: 2,
		LoopCount: 3,
	}
	p := &Player{cfg: cfg}
	seq := p.sequence()
	wantSeq := []int{0, 1, 2, 3, 2, 3, 2, 3, 2, 3}
	if len(seq) != len(wantSeq) {
		t.Fatalf("sequence() = %v, want %v", seq, wantSeq)
	}
	for i := range wantSeq {
		if seq[i] != wantSeq[i] {
			t.Fatalf("sequence()[%d] = %d, want %d", i, seq[i], wantSeq[i])
		}
	}
	for pos := range seq {
		repeat := pos >= len(cfg.Frames)
		wantRepeat := pos >= 4
		if repeat != wantRepeat {
			t.Fatalf("repeat at pos %d = %v, want %v", pos, repeat, wantRepeat)
		}
	}
}

func TestSleepUntilTruncatesOnSlowIteration(t *testing.T) {
	p := &Player{now: time.Now}
	last := time.Now().Add(-200 * time.Millisecond) // simulate a slow prior iteration
	start := time.Now()
	got := p.sleepUntil(last, 50*time.Millisecond)
	if time.Since(start) > 10*time.Millisecond {
		t.Fatalf("sleepUntil should not sleep when already past the interval")
	}
	if !got.After(last) {
		t.Fatalf("expected sleepUntil to return a time after last")
	}
}

func TestRunWithNoFramesIsNoOp(t *testing.T) {
	term := &fakeTerminal{}
	p := New(Config{}, term, nil, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if term.activated {
		t.Fatalf("should not activate terminal with zero frames")
	}
}

func TestStopEndsSequenceEarly(t *testing.T) {
	term := &fakeTerminal{}
	cfg := Config{
		Frames:        []Frame{{Path: "a"}, {Path: "b"}, {Path: "c"}},
		FrameInterval: time.Millisecond,
		LoopStart:     -1,
	}
	clock := time.Unix(0, 0)
	player := New(cfg, term, nil, func() time.Time { return clock })
	player.Stop()
	if err := player.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(term.painted) != 0 {
		t.Fatalf("expected no frames painted after Stop, got %v", term.painted)
	}
}
