package input

import "github.com/linuxconsole/frecon/vt"

// ScrollKind names the scrollback action a hotkey requests.
type ScrollKind int

const (
	ScrollPageUp ScrollKind = iota
	ScrollPageDown
	ScrollLineUp
	ScrollLineDown
)

// Controller is the subset of the agent's runtime state the hotkey
// dispatcher needs. The main loop implements it on top of the terminal
// table and the control bus client.
type Controller interface {
	HasActiveTerminal() bool
	NumVTs() int
	ActivateVT(vt int) error
	DeactivateCurrent()
	SplashAlive() bool
	ActivateSplash() error
	ReleaseDisplayToCompositor()
	TakeDisplayFromCompositor()
	RequestBrightness(up bool)
	NotifyUserActivity()
	Scroll(kind ScrollKind)
}

// Dispatcher is the single hotkey state machine of §4.F: it tracks
// modifier state across events and classifies each key as consumed or
// forwarded.
type Dispatcher struct {
	mods vt.Modifiers
	ctrl Controller
}

// NewDispatcher creates a Dispatcher bound to ctrl.
func NewDispatcher(ctrl Controller) *Dispatcher {
	return &Dispatcher{ctrl: ctrl}
}

// Modifiers returns the currently tracked modifier state (L4).
func (d *Dispatcher) Modifiers() vt.Modifiers { return d.mods }

// updateModifier applies code/value to the modifier tuple if code names
// a modifier key, reporting whether it did.
func (d *Dispatcher) updateModifier(code uint16, value int) bool {
	down := value != 0
	switch code {
	case keyLeftShift, keyRightShift:
		d.mods.Shift = down
	case keyLeftCtrl, keyRightCtrl:
		d.mods.Control = down
	case keyLeftAlt, keyRightAlt:
		d.mods.Alt = down
	case keySearch:
		d.mods.Search = down
	default:
		return false
	}
	return true
}

// Dispatch classifies one key event. When forward is true, keysym and
// unicode are the values the caller should hand to the active
// terminal's HandleKey; the caller is also responsible for calling
// NotifyUserActivity itself once it knows a terminal is actually
// active, matching §4.F's "only while a terminal is active" rule.
func (d *Dispatcher) Dispatch(code uint16, value int) (forward bool, keysym vt.Keysym, unicode rune) {
	if isPointerCode(code) {
		return false, vt.KeysymNone, 0
	}
	if d.updateModifier(code, value) {
		return false, vt.KeysymNone, 0
	}

	if d.mods.Shift && d.mods.Control && d.mods.Alt {
		return false, vt.KeysymNone, 0
	}

	press := value == 1
	active := d.ctrl.HasActiveTerminal()

	if press {
		switch {
		case active && d.mods.Shift && code == keyPageUp:
			d.ctrl.Scroll(ScrollPageUp)
			return false, vt.KeysymNone, 0
		case active && d.mods.Shift && code == keyPageDown:
			d.ctrl.Scroll(ScrollPageDown)
			return false, vt.KeysymNone, 0
		case active && d.mods.Shift && code == keyUp:
			if d.mods.Search {
				d.ctrl.Scroll(ScrollPageUp)
			} else {
				d.ctrl.Scroll(ScrollLineUp)
			}
			return false, vt.KeysymNone, 0
		case active && d.mods.Shift && code == keyDown:
			if d.mods.Search {
				d.ctrl.Scroll(ScrollPageDown)
			} else {
				d.ctrl.Scroll(ScrollLineDown)
			}
			return false, vt.KeysymNone, 0
		case active && d.noOtherMods() && code == keyF6:
			d.ctrl.RequestBrightness(false)
			return false, vt.KeysymNone, 0
		case active && d.noOtherMods() && code == keyF7:
			d.ctrl.RequestBrightness(true)
			return false, vt.KeysymNone, 0
		case d.mods.Control && d.mods.Alt && code == keyF1:
			d.ctrl.DeactivateCurrent()
			if d.ctrl.SplashAlive() {
				d.ctrl.ActivateSplash()
			} else {
				d.ctrl.ReleaseDisplayToCompositor()
			}
			return false, vt.KeysymNone, 0
		case d.mods.Control && d.mods.Alt && d.isVTSwitchCode(code):
			d.ctrl.TakeDisplayFromCompositor()
			d.ctrl.DeactivateCurrent()
			d.ctrl.ActivateVT(int(code-keyF2) + 1)
			return false, vt.KeysymNone, 0
		}
	}

	keysym, unicode = translateKey(code, d.mods)
	return true, keysym, unicode
}

// noOtherMods reports that no modifier besides the ones already tested
// by the caller is held, per "F6/F7 alone" in §4.F.
func (d *Dispatcher) noOtherMods() bool {
	return !d.mods.Shift && !d.mods.Control && !d.mods.Alt && !d.mods.Search
}

// isVTSwitchCode reports whether code is one of F2..F(1+N), the VT
// switch hotkey range.
func (d *Dispatcher) isVTSwitchCode(code uint16) bool {
	if code < keyF2 {
		return false
	}
	last := keyF2 + d.ctrl.NumVTs() - 1
	return int(code) <= last
}
