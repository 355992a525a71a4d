// Package mainloop implements the console agent's single-threaded
// readiness-multiplexing main loop (component I): it owns the terminal
// table and drives the bus endpoint, the input dispatcher, and every
// terminal's PTY bridge from one poll(2)-based iteration.
package mainloop

import (
	"fmt"
	"sync"

	"github.com/linuxconsole/frecon/ctlbus"
	"github.com/linuxconsole/frecon/display"
	"github.com/linuxconsole/frecon/input"
	"github.com/linuxconsole/frecon/splash"
	"github.com/linuxconsole/frecon/term"
)

// Loop bundles the agent's live components. The control bus's exported
// methods run on godbus's own internal goroutine rather than this
// loop's call stack, so loop mutates shared state under mu whenever it
// is reachable from both the poll loop and a bus callback; everything
// else in §5's "single writer" model holds as described.
type Loop struct {
	mu sync.Mutex

	table      *term.Table
	bus        *ctlbus.Endpoint
	inputMgr   *input.Manager
	dispatcher *input.Dispatcher
	splash     *splash.Player
	splashDone bool
	dev        *display.Display

	enableVTs bool
	daemon    bool
	exitCode  int
	shouldExit bool

	hotplugFD int // inotify fd on /dev/dri; -1 when unavailable
}

// New creates a Loop around an already-populated terminal table. The
// bus and input manager are attached separately once they're connected
// (they both need a Controller/Backend implemented by this Loop, a
// chicken-and-egg the caller resolves by constructing the Loop first).
// daemon distinguishes the two supervision models named in §6/§9: in
// daemon mode, reaching login-prompt-visible without enableVTs exits
// the process; in standalone mode it does not, since something else is
// expected to be supervising the agent.
func New(table *term.Table, enableVTs, daemon bool) *Loop {
	l := &Loop{table: table, enableVTs: enableVTs, daemon: daemon, hotplugFD: -1}
	l.dispatcher = input.NewDispatcher(l)
	return l
}

// AttachHotplugWatch wires the /dev/dri inotify fd so RunIteration can
// gate checkHotplug on an actual display node add/remove rather than
// running it on every iteration. Called once at startup; a negative fd
// leaves hotplug rescanning disabled (e.g. the watch failed to open).
func (l *Loop) AttachHotplugWatch(fd int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hotplugFD = fd
}

// AttachBus wires the control bus endpoint once connected.
func (l *Loop) AttachBus(bus *ctlbus.Endpoint) { l.bus = bus }

// AttachInput wires the input manager once connected.
func (l *Loop) AttachInput(mgr *input.Manager) { l.inputMgr = mgr }

// AttachSplash wires the splash player, if any image frames were
// configured.
func (l *Loop) AttachSplash(p *splash.Player) { l.splash = p }

// AttachDisplay records the display the loop currently owns, enabling
// hotplug rescans during post-dispatch housekeeping. A nil dev (headless
// startup, no DRM device found) leaves hotplug rescanning disabled.
func (l *Loop) AttachDisplay(dev *display.Display) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dev = dev
}

// ExitCode returns the process exit code once ShouldExit is true.
func (l *Loop) ExitCode() int { return l.exitCode }

// ShouldExit reports whether the loop has decided the process should
// terminate (Terminate RPC, login-prompt-visible without --enable-vts,
// splash-only completion).
func (l *Loop) ShouldExit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shouldExit
}

func (l *Loop) requestExit(code int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shouldExit = true
	l.exitCode = code
}

// --- input.Controller ---

func (l *Loop) HasActiveTerminal() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.table.GetCurrent()
	return cur != nil && cur.Active()
}

func (l *Loop) NumVTs() int { return l.table.N() }

func (l *Loop) ActivateVT(vt int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.table.ActivateVT(vt)
	return err
}

func (l *Loop) DeactivateCurrent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.table.DeactivateCurrent()
}

func (l *Loop) SplashAlive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.splash != nil && !l.splashDone
}

func (l *Loop) ActivateSplash() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.table.ActivateSplash()
	return err
}

// ReleaseDisplayToCompositor asks the compositor to become DRM master,
// the "ask compositor to take display ownership" action of §4.F's
// Ctrl+Alt+F1 row. The evdev grabs are released at the same time: while
// the compositor owns the display, frecon's input devices must not
// intercept keys meant for it.
func (l *Loop) ReleaseDisplayToCompositor() {
	if l.bus != nil {
		l.bus.TakeDisplayOwnership()
	}
	if l.inputMgr != nil {
		l.inputMgr.Background()
	}
}

// TakeDisplayFromCompositor asks the compositor to relinquish DRM
// master, the "ask compositor to release display ownership" action of
// §4.F's Ctrl+Alt+Fx VT-switch row, and re-grabs every evdev device.
func (l *Loop) TakeDisplayFromCompositor() {
	if l.bus != nil {
		l.bus.ReleaseDisplayOwnership()
	}
	if l.inputMgr != nil {
		l.inputMgr.Foreground()
	}
}

func (l *Loop) RequestBrightness(up bool) {
	if l.bus != nil {
		l.bus.RequestBrightness(up)
	}
}

func (l *Loop) NotifyUserActivity() {
	if l.bus != nil {
		l.bus.NotifyUserActivity()
	}
}

func (l *Loop) Scroll(kind input.ScrollKind) {
	l.mu.Lock()
	cur := l.table.GetCurrent()
	l.mu.Unlock()
	if cur == nil {
		return
	}
	switch kind {
	case input.ScrollPageUp:
		cur.PageUp()
	case input.ScrollPageDown:
		cur.PageDown()
	case input.ScrollLineUp:
		cur.LineUp()
	case input.ScrollLineDown:
		cur.LineDown()
	}
}

// --- ctlbus.Backend ---

func (l *Loop) MakeVT(vt int) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	term, err := l.table.CreateTerm(vt)
	if err != nil {
		return "", err
	}
	return term.PTYName(), nil
}

func (l *Loop) SwitchVT(vt int) error {
	if vt == 0 {
		l.DeactivateCurrent()
		l.ReleaseDisplayToCompositor()
		return nil
	}
	if vt < 1 || vt > l.table.N() {
		return fmt.Errorf("mainloop: vt %d out of range", vt)
	}
	if err := l.ActivateVT(vt); err != nil {
		return err
	}
	l.TakeDisplayFromCompositor()
	return nil
}

func (l *Loop) Terminate() {
	l.requestExit(0)
}

func (l *Loop) ShowImage(opts map[string]string) error {
	l.mu.Lock()
	cur := l.table.GetCurrent()
	l.mu.Unlock()
	if cur == nil {
		return fmt.Errorf("mainloop: no current terminal")
	}
	return cur.ShowImage(opts)
}

// OnLoginPromptVisible implements the §6/§9 daemon exit rule: it
// destroys any running splash and, in daemon mode without --enable-vts,
// also requests a clean exit once the session manager announces the
// login prompt.
func (l *Loop) OnLoginPromptVisible() {
	l.mu.Lock()
	hasSplash := l.splash != nil
	l.mu.Unlock()
	if hasSplash {
		l.splash.Stop()
		l.mu.Lock()
		l.splashDone = true
		l.mu.Unlock()
	}
	if l.daemon && !l.enableVTs {
		l.requestExit(0)
	}
}
