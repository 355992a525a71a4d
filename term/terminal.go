// Package term wraps a PTY-backed child process and a vt.VTE into the
// per-slot Terminal object the console agent switches between. It
// implements component D (integration half; the state machine lives in
// package vt) of the console agent.
package term

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"

	"github.com/linuxconsole/frecon/glyph"
	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
	"github.com/linuxconsole/frecon/vt"
)

// InteractiveArgv and NoninteractiveArgv are the two execution vectors
// §3 names: a getty for a real login shell, or a plain sink for
// non-interactive slots (lazily created by Table.CreateTerm).
var (
	InteractiveArgv    = []string{"/sbin/agetty", "-", "9600", "xterm"}
	NoninteractiveArgv = []string{"/bin/cat"}
)

// framebuffer is the subset of *framebuffer.Framebuffer a Terminal
// needs, kept as an interface so tests can substitute a fake surface
// instead of a real mmap'd dumb buffer.
type framebuffer interface {
	Init() error
	SetMode() error
	Lock() ([]uint32, error)
	Unlock() error
	GetWidth() int
	GetHeight() int
	GetPitch() int
	GetScaling() int
	Destroy() error
}

// ImageDecoder decodes an image file into a 32-bit BGRA pixel buffer.
// PNG decoding itself is an external collaborator per §1; the default
// implementation (in image.go) wraps the standard library's image/png
// since no example repo in the corpus ships a PNG codec of its own.
type ImageDecoder interface {
	Decode(path string) (pix []uint32, width, height int, err error)
}

// Config configures a new Terminal.
type Config struct {
	Interactive  bool
	Framebuffer  framebuffer // nil when running headless
	Renderer     *glyph.Renderer
	Scrollback   int
	EnableGfx    bool
	Decoder      ImageDecoder
	BackgroundFg *uint32 // solid background override color, if any
}

// Terminal is one slot's PTY child process plus its VT state machine and
// the framebuffer it paints into.
type Terminal struct {
	cfg Config

	fb       framebuffer
	renderer *glyph.Renderer
	vte      *vt.VTE

	ptm *os.File
	cmd *exec.Cmd

	active bool
	age    uint64

	cellW, cellH int

	bg *uint32
}

// New constructs a Terminal without starting its child process; call
// Init to complete the lifecycle.
func New(cfg Config) *Terminal {
	return &Terminal{cfg: cfg, fb: cfg.Framebuffer, renderer: cfg.Renderer, bg: cfg.BackgroundFg}
}

// Init creates the framebuffer (if any), the VT screen, the PTY child,
// and resizes the screen to the cell grid implied by the framebuffer
// geometry and the glyph cell size. On any failure it tears down
// whatever was already created and returns an error, per §4.D's
// fail-clean contract.
func (t *Terminal) Init() error {
	if t.fb != nil {
		if err := t.fb.Init(); err != nil {
			return fmt.Errorf("terminal: framebuffer init: %w", err)
		}
		if t.renderer != nil {
			t.renderer.Init(t.fb.GetScaling())
		}
	}

	t.vte = vt.New(t.cfg.Scrollback, t)

	argv := NoninteractiveArgv
	if t.cfg.Interactive {
		argv = InteractiveArgv
	}

	cols, rows := t.gridSize()

	cmd := exec.Command(argv[0], argv[1:]...)
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
	if err != nil {
		if t.fb != nil {
			t.fb.Destroy()
		}
		return fmt.Errorf("terminal: pty start: %w", err)
	}

	t.ptm = ptm
	t.cmd = cmd
	t.vte.Resize(cols, rows)

	return nil
}

func (t *Terminal) gridSize() (cols, rows int) {
	cellW, cellH := 1, 1
	if t.renderer != nil {
		cellW, cellH = t.renderer.GetSize()
	}
	t.cellW, t.cellH = cellW, cellH
	if t.fb == nil {
		return 80, 24
	}
	cols = t.fb.GetWidth() / cellW
	rows = t.fb.GetHeight() / cellH
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// PTYFile exposes the PTY master for the main loop's readiness set.
func (t *Terminal) PTYFile() *os.File { return t.ptm }

// Config returns the configuration this terminal was built with, so a
// caller respawning a slot after its child exits can reuse the same
// framebuffer, renderer and options rather than falling back to a bare
// headless terminal.
func (t *Terminal) Config() Config { return t.cfg }

// PTYName returns the slave device path (e.g. "/dev/pts/3"), the value
// MakeVT returns over the control bus.
func (t *Terminal) PTYName() string {
	if t.ptm == nil {
		return ""
	}
	name, err := ptsName(t.ptm)
	if err != nil {
		return ""
	}
	return name
}

// Active reports whether this terminal is the current one.
func (t *Terminal) Active() bool { return t.active }

// Activate makes this terminal current: sets the mode if a framebuffer
// is attached, resets the age so the next redraw repaints everything
// (I6), and repaints immediately.
func (t *Terminal) Activate() error {
	t.active = true
	t.age = 0
	if t.fb != nil {
		if err := t.fb.SetMode(); err != nil {
			return fmt.Errorf("terminal: set mode: %w", err)
		}
	}
	return t.Redraw()
}

// Deactivate only clears the active flag, per §4.D.
func (t *Terminal) Deactivate() {
	t.active = false
}

// ResetAge forces a full repaint on the next Redraw, used after a
// hotplug rebuild (I6).
func (t *Terminal) ResetAge() { t.age = 0 }

// RebindFramebuffer tears down this terminal's current framebuffer, if
// any, and replaces it with fb, re-initializing it and re-deriving the
// cell grid from its geometry. Used to rebuild every terminal's surface
// after a display hotplug changes the connector, CRTC, or mode (§7).
// The VT screen is resized to the new grid here; the caller is
// responsible for forcing a repaint once every terminal in the table has
// been rebound.
func (t *Terminal) RebindFramebuffer(fb framebuffer) error {
	if t.fb != nil {
		if err := t.fb.Destroy(); err != nil {
			logx.WithFields(share.Fields{"error": err.Error()}).Warn("failed to destroy framebuffer during hotplug rebuild")
		}
	}
	t.fb = fb
	if fb == nil {
		return nil
	}
	if err := fb.Init(); err != nil {
		return fmt.Errorf("terminal: framebuffer rebuild: %w", err)
	}
	if t.renderer != nil {
		t.renderer.Init(fb.GetScaling())
	}
	cols, rows := t.gridSize()
	if t.vte != nil {
		t.vte.Resize(cols, rows)
	}
	return nil
}

// Close frees the PTY and the framebuffer. The child process is
// expected to already be reaped by the caller via IsChildDone.
func (t *Terminal) Close() error {
	var err error
	if t.ptm != nil {
		err = t.ptm.Close()
	}
	if t.fb != nil {
		if e := t.fb.Destroy(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// IsChildDone performs a non-blocking wait on the child, per §4.D's
// child-death detection contract (the main loop polls this each
// iteration rather than blocking on it).
func (t *Terminal) IsChildDone() bool {
	if t.cmd == nil || t.cmd.Process == nil {
		return true
	}
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(t.cmd.Process.Pid, &ws, syscall.WNOHANG, nil)
	return err == nil && pid == t.cmd.Process.Pid
}

// FeedPTYData processes bytes read from the PTY master and repaints any
// dirty cells.
func (t *Terminal) FeedPTYData(data []byte) {
	t.vte.Input(data)
	if t.active {
		t.Redraw()
	}
}

// HandleKey converts a resolved key event into PTY input.
func (t *Terminal) HandleKey(keysym vt.Keysym, value int, mods vt.Modifiers, unicode rune) {
	data := t.vte.HandleKeyboard(keysym, value, mods, unicode)
	if len(data) > 0 && t.ptm != nil {
		t.ptm.Write(data)
	}
}

// PageUp, PageDown, LineUp, LineDown implement the scrollback API,
// redrawing immediately after adjusting the origin.
func (t *Terminal) PageUp()   { t.vte.Screen.PageUp(); t.Redraw() }
func (t *Terminal) PageDown() { t.vte.Screen.PageDown(); t.Redraw() }
func (t *Terminal) LineUp()   { t.vte.Screen.LineUp(); t.Redraw() }
func (t *Terminal) LineDown() { t.vte.Screen.LineDown(); t.Redraw() }

// Redraw locks the framebuffer, walks dirty cells since the terminal's
// last recorded age, paints each through the glyph renderer, and
// unlocks. Skipped entirely when there is no framebuffer (headless).
func (t *Terminal) Redraw() error {
	if t.fb == nil || t.renderer == nil {
		return nil
	}
	buf, err := t.fb.Lock()
	if err != nil {
		return err
	}
	pitch := t.fb.GetPitch()
	newAge := t.vte.Screen.Draw(t.age, func(x, y int, ch rune, attr vt.Attr, age uint64) {
		fg, bg := t.resolveColors(attr)
		if ch == 0 {
			t.renderer.FillChar(buf, x, y, pitch, fg, bg)
		} else {
			t.renderer.Render(buf, x, y, pitch, ch, fg, bg)
		}
	})
	t.age = newAge
	return t.fb.Unlock()
}

// resolveColors implements §4.D's background-override rule: when this
// terminal has a solid background color, the background is that color
// and the foreground becomes black or the attribute's own foreground
// depending on the configured background's luminance. The override is
// computed first; Inverse then swaps whatever front/back that produced,
// matching term_draw_cell's order so an inverse cell on an overridden
// background still reverses relative to that background.
func (t *Terminal) resolveColors(attr vt.Attr) (fg, bg uint32) {
	fg, bg = attr.Fg, attr.Bg
	if t.bg != nil {
		bg = *t.bg
		if vt.Luminance(bg) > 128 {
			fg = 0x000000
		} else {
			fg = attr.Fg
		}
	}
	if attr.Inverse {
		fg, bg = bg, fg
	}
	return fg, bg
}

// OSC implements vt.Handler, dispatching "image:"/"box:" sequences when
// graphics are enabled.
func (t *Terminal) OSC(payload []byte) {
	if !t.cfg.EnableGfx {
		return
	}
	cmd, opts, ok := vt.ParseOSC(payload)
	if !ok {
		return
	}
	switch cmd {
	case "image":
		t.PaintImage(vt.ParseImageCommand(opts))
	case "box":
		t.paintBox(vt.ParseBoxCommand(opts))
	}
}

// ShowImage paints an image described by the bus's {image, location,
// offset} option grammar. Unlike in-band OSC sequences from PTY
// content, this path is not gated by EnableGfx: it is driven by the
// control bus's own Image RPC (§4.G) and by the splash player, both of
// which are privileged callers, not guest terminal output.
func (t *Terminal) ShowImage(opts map[string]string) error {
	img := vt.ParseImageCommand(opts)
	if img.File == "" {
		img.File = opts["image"]
	}
	return t.PaintImage(img)
}

// PaintImage decodes and composites img onto this terminal's
// framebuffer, implementing §4.D's image compositing rules.
func (t *Terminal) PaintImage(img vt.ImageCommand) error {
	if t.fb == nil || t.cfg.Decoder == nil {
		return fmt.Errorf("terminal: no framebuffer or decoder configured")
	}
	if img.Location != nil && img.Offset != nil {
		logx.WithFields(share.Fields{"file": img.File}).Warn("image: both location and offset given, location wins")
	}
	pix, w, h, err := t.cfg.Decoder.Decode(img.File)
	if err != nil {
		logx.WithFields(share.Fields{"file": img.File, "error": err.Error()}).Warn("failed to decode image")
		return err
	}
	scale := img.Scale
	if scale == 0 {
		scale = t.fb.GetScaling()
	}
	if scale > glyph.MaxScale {
		scale = glyph.MaxScale
	}

	buf, err := t.fb.Lock()
	if err != nil {
		return err
	}
	defer t.fb.Unlock()

	x, y := t.imageAnchor(img.Location, img.Offset, w*scale, h*scale)
	blitImage(buf, t.fb.GetPitch(), t.fb.GetWidth(), t.fb.GetHeight(), pix, w, h, scale, x, y)
	return nil
}

func (t *Terminal) paintBox(box vt.BoxCommand) error {
	if t.fb == nil {
		return fmt.Errorf("terminal: no framebuffer configured")
	}
	buf, err := t.fb.Lock()
	if err != nil {
		return err
	}
	defer t.fb.Unlock()

	x, y := t.imageAnchor(box.Location, box.Offset, box.Size.X, box.Size.Y)
	fillRect(buf, t.fb.GetPitch(), t.fb.GetWidth(), t.fb.GetHeight(), x, y, box.Size.X, box.Size.Y, box.Color)
	return nil
}

// SetBackground sets the solid background override color used by
// resolveColors, e.g. the splash player's configured clear color.
func (t *Terminal) SetBackground(color uint32) {
	t.bg = &color
}

// HideCursor writes the DEC private cursor-hide sequence directly to
// the PTY, independent of the VT screen's own cursor-visibility mode.
// Used by the splash terminal (SUPPLEMENTED FEATURE: cursor hiding on
// the splash terminal survives state-machine resets).
func (t *Terminal) HideCursor() {
	if t.ptm != nil {
		t.ptm.Write([]byte("\x1b[?25l"))
	}
}

// imageAnchor implements §4.D's compositing anchor rule: centered by
// default, location overrides centering, offset shifts the anchor, and
// when both are given location wins (the warning is logged by the
// caller since it needs the image filename for context).
func (t *Terminal) imageAnchor(location, offset *vt.Point, w, h int) (x, y int) {
	if location != nil {
		return location.X, location.Y
	}
	x = (t.fb.GetWidth() - w) / 2
	y = (t.fb.GetHeight() - h) / 2
	if offset != nil {
		x += offset.X
		y += offset.Y
	}
	return x, y
}
