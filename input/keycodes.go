package input

// Key codes from linux/input-event-codes.h that the hotkey dispatcher
// and key tables need to recognize. Only the subset actually referenced
// is named here.
const (
	keyEsc       = 1
	keyBackspace = 14
	keyTab       = 15
	keyEnter     = 28
	keyLeftCtrl  = 29
	keyLeftShift = 42
	keyRightShift = 54
	keyLeftAlt   = 56
	keySpace     = 57
	keyRightCtrl = 97
	keyRightAlt  = 100
	keyHome      = 102
	keyUp        = 103
	keyPageUp    = 104
	keyLeft      = 105
	keyRight     = 106
	keyEnd       = 107
	keyDown      = 108
	keyPageDown  = 109
	keyInsert    = 110
	keyDelete    = 111
	keySearch    = 217 // ChromeOS "search"/launcher key

	keyF1  = 59
	keyF2  = 60
	keyF3  = 61
	keyF4  = 62
	keyF5  = 63
	keyF6  = 64
	keyF7  = 65
	keyF8  = 66
	keyF9  = 67
	keyF10 = 68
	keyF11 = 87
	keyF12 = 88
)

// isPointerCode reports whether code falls in the BTN_MISC..BTN_GEAR_UP
// range used by mice, touchpads, and similar pointer devices — the
// "pointer/touchpad ignore-list" of §4.F.
func isPointerCode(code uint16) bool {
	return code >= 0x100 && code <= 0x151
}
