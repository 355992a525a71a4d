package term

import (
	"testing"
	"time"

	"github.com/linuxconsole/frecon/glyph"
	"github.com/linuxconsole/frecon/vt"
)

type fakeFramebuffer struct {
	width, height, pitch, scaling int
	buf                           []uint32
	locked                        bool
	initCalls, setModeCalls       int
	lockCalls                     int
	destroyed                     bool
}

func newFakeFramebuffer(w, h, scaling int) *fakeFramebuffer {
	return &fakeFramebuffer{width: w, height: h, pitch: w * 4, scaling: scaling, buf: make([]uint32, w*h)}
}

func (f *fakeFramebuffer) Init() error     { f.initCalls++; return nil }
func (f *fakeFramebuffer) SetMode() error  { f.setModeCalls++; return nil }
func (f *fakeFramebuffer) GetWidth() int   { return f.width }
func (f *fakeFramebuffer) GetHeight() int  { return f.height }
func (f *fakeFramebuffer) GetPitch() int   { return f.pitch }
func (f *fakeFramebuffer) GetScaling() int { return f.scaling }
func (f *fakeFramebuffer) Destroy() error  { f.destroyed = true; return nil }

func (f *fakeFramebuffer) Lock() ([]uint32, error) {
	f.locked = true
	f.lockCalls++
	return f.buf, nil
}

func (f *fakeFramebuffer) Unlock() error {
	f.locked = false
	return nil
}

type fakeBitmapSource struct{ w, h int }

func (f fakeBitmapSource) Size() (int, int) { return f.w, f.h }
func (f fakeBitmapSource) Glyph(r rune) ([]byte, bool) {
	row := byte(0)
	for i := 0; i < f.w; i++ {
		row |= 1 << uint(i)
	}
	rows := make([]byte, f.h)
	for i := range rows {
		rows[i] = row
	}
	return rows, true
}

func newHeadlessTerminal(t *testing.T) *Terminal {
	t.Helper()
	term := New(Config{Interactive: false, Scrollback: 100})
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { term.Close() })
	return term
}

func TestInitHeadlessUsesDefaultGrid(t *testing.T) {
	term := newHeadlessTerminal(t)
	if term.PTYFile() == nil {
		t.Fatalf("expected a PTY master")
	}
	cols, rows := term.gridSize()
	if cols != 80 || rows != 24 {
		t.Fatalf("gridSize() = (%d,%d), want (80,24) headless default", cols, rows)
	}
}

func TestInitWithFramebufferDerivesGridFromGeometry(t *testing.T) {
	fb := newFakeFramebuffer(160, 48, 1)
	cfg := Config{Framebuffer: fb, Scrollback: 50}
	term := New(cfg)
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer term.Close()

	if fb.initCalls != 1 {
		t.Fatalf("expected framebuffer Init to be called once, got %d", fb.initCalls)
	}
	cols, rows := term.gridSize()
	if cols != 160 || rows != 48 {
		t.Fatalf("gridSize() = (%d,%d), want (160,48) with 1x1 cells", cols, rows)
	}
}

func TestActivateSetsModeAndRedraws(t *testing.T) {
	fb := newFakeFramebuffer(8, 8, 1)
	term := New(Config{Framebuffer: fb, Scrollback: 10})
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer term.Close()

	if err := term.Activate(); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !term.Active() {
		t.Fatalf("expected Active() true after Activate")
	}
	if fb.setModeCalls != 1 {
		t.Fatalf("expected SetMode called once, got %d", fb.setModeCalls)
	}

	term.Deactivate()
	if term.Active() {
		t.Fatalf("expected Active() false after Deactivate")
	}
}

func TestFeedPTYDataRedrawsOnlyWhenActive(t *testing.T) {
	fb := newFakeFramebuffer(8, 8, 1)
	renderer := glyph.New(fakeBitmapSource{w: 1, h: 1})
	term := New(Config{Framebuffer: fb, Renderer: renderer, Scrollback: 10})
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer term.Close()

	term.FeedPTYData([]byte("x"))
	if fb.locked {
		t.Fatalf("fb should be unlocked after redraw attempt")
	}
	if fb.lockCalls != 0 {
		t.Fatalf("inactive terminal redrew: lockCalls = %d, want 0", fb.lockCalls)
	}

	term.active = true
	term.FeedPTYData([]byte("y"))
	if fb.lockCalls != 1 {
		t.Fatalf("active terminal lockCalls = %d, want 1 redraw", fb.lockCalls)
	}
	if fb.locked {
		t.Fatalf("fb should be unlocked after redraw")
	}
}

func TestIsChildDoneDetectsExit(t *testing.T) {
	term := New(Config{Interactive: false})
	term.cfg.Interactive = false
	savedArgv := NoninteractiveArgv
	NoninteractiveArgv = []string{"/bin/true"}
	defer func() { NoninteractiveArgv = savedArgv }()

	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer term.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if term.IsChildDone() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected child to be reaped as done within timeout")
}

func TestResolveColorsBackgroundOverride(t *testing.T) {
	term := New(Config{})
	light := uint32(0xFFFFFF)
	term.bg = &light

	fg, bg := term.resolveColors(vt.DefaultAttr)
	if bg != light {
		t.Fatalf("bg = %x, want override %x", bg, light)
	}
	if fg != 0x000000 {
		t.Fatalf("fg = %x, want black over light background", fg)
	}

	dark := uint32(0x000000)
	term.bg = &dark
	fg, bg = term.resolveColors(vt.DefaultAttr)
	if bg != dark {
		t.Fatalf("bg = %x, want override %x", bg, dark)
	}
	if fg != vt.DefaultAttr.Fg {
		t.Fatalf("fg = %x, want attribute default fg over dark background", fg)
	}
}

func TestResolveColorsInverseSwapsAfterBackgroundOverride(t *testing.T) {
	term := New(Config{})
	override := uint32(0xFFFFFF)
	term.bg = &override

	attr := vt.Attr{Fg: 0xAAAAAA, Bg: 0x000000, Inverse: true}
	fg, bg := term.resolveColors(attr)
	if fg != 0xFFFFFF {
		t.Fatalf("fg = %x, want 0xFFFFFF (override swapped forward by inverse)", fg)
	}
	if bg != 0x000000 {
		t.Fatalf("bg = %x, want 0x000000 (overridden foreground swapped back by inverse)", bg)
	}
}

func TestImageAnchorCentersByDefaultAndLocationWins(t *testing.T) {
	fb := newFakeFramebuffer(100, 100, 1)
	term := New(Config{Framebuffer: fb})
	term.fb = fb

	x, y := term.imageAnchor(nil, nil, 20, 20)
	if x != 40 || y != 40 {
		t.Fatalf("centered anchor = (%d,%d), want (40,40)", x, y)
	}

	loc := &vt.Point{X: 5, Y: 6}
	off := &vt.Point{X: 1, Y: 1}
	x, y = term.imageAnchor(loc, off, 20, 20)
	if x != 5 || y != 6 {
		t.Fatalf("location should win over offset, got (%d,%d)", x, y)
	}
}

type fakeDecoder struct {
	w, h int
	pix  []uint32
	err  error
}

func (f fakeDecoder) Decode(path string) ([]uint32, int, int, error) {
	return f.pix, f.w, f.h, f.err
}

func TestShowImagePaintsThroughBusOptionsEvenWithGfxDisabled(t *testing.T) {
	fb := newFakeFramebuffer(8, 8, 1)
	term := New(Config{Framebuffer: fb, EnableGfx: false, Decoder: fakeDecoder{w: 2, h: 2, pix: []uint32{1, 2, 3, 4}}})
	term.fb = fb

	if err := term.ShowImage(map[string]string{"image": "/tmp/x.png"}); err != nil {
		t.Fatalf("ShowImage: %v", err)
	}
	if fb.buf[0] == 0 && fb.buf[1] == 0 {
		t.Fatalf("expected image pixels to be painted")
	}
}

func TestSetBackgroundAffectsResolveColors(t *testing.T) {
	term := New(Config{})
	term.SetBackground(0x112233)
	_, bg := term.resolveColors(vt.DefaultAttr)
	if bg != 0x112233 {
		t.Fatalf("bg = %x, want 0x112233", bg)
	}
}

func TestOSCIgnoredWhenGfxDisabled(t *testing.T) {
	fb := newFakeFramebuffer(16, 16, 1)
	term := New(Config{Framebuffer: fb, EnableGfx: false})
	term.fb = fb
	term.OSC([]byte("box:color=ff0000;w=4;h=4"))
	if fb.locked {
		t.Fatalf("box command should have been ignored with gfx disabled")
	}
}

func TestRebindFramebufferDestroysOldAndInitsNew(t *testing.T) {
	old := newFakeFramebuffer(8, 8, 1)
	term := New(Config{Framebuffer: old, Scrollback: 10})
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	next := newFakeFramebuffer(16, 16, 2)
	if err := term.RebindFramebuffer(next); err != nil {
		t.Fatalf("RebindFramebuffer: %v", err)
	}

	if !old.destroyed {
		t.Fatalf("old framebuffer should have been destroyed")
	}
	if next.initCalls != 1 {
		t.Fatalf("new framebuffer should have been initialized once, got %d", next.initCalls)
	}
	cols, rows := term.gridSize()
	if cols != 16 || rows != 16 {
		t.Fatalf("gridSize() after rebind = (%d,%d), want (16,16)", cols, rows)
	}
}

func TestRebindFramebufferToNilLeavesTerminalHeadless(t *testing.T) {
	old := newFakeFramebuffer(8, 8, 1)
	term := New(Config{Framebuffer: old, Scrollback: 10})
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := term.RebindFramebuffer(nil); err != nil {
		t.Fatalf("RebindFramebuffer(nil): %v", err)
	}
	if !old.destroyed {
		t.Fatalf("old framebuffer should have been destroyed")
	}
	cols, rows := term.gridSize()
	if cols != 80 || rows != 24 {
		t.Fatalf("gridSize() after rebind to nil = (%d,%d), want headless fallback (80,24)", cols, rows)
	}
}
