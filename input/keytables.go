package input

import "github.com/linuxconsole/frecon/vt"

// baseKey is one entry of the base ASCII table: the rune produced
// unshifted and shifted.
type baseKey struct {
	lower, upper rune
}

// baseTable maps evdev keycodes to the US QWERTY runes they produce,
// the "base ASCII table indexed by (code, shift)" of §4.F.
var baseTable = map[uint16]baseKey{
	16: {'q', 'Q'}, 17: {'w', 'W'}, 18: {'e', 'E'}, 19: {'r', 'R'},
	20: {'t', 'T'}, 21: {'y', 'Y'}, 22: {'u', 'U'}, 23: {'i', 'I'},
	24: {'o', 'O'}, 25: {'p', 'P'}, 26: {'[', '{'}, 27: {']', '}'},
	30: {'a', 'A'}, 31: {'s', 'S'}, 32: {'d', 'D'}, 33: {'f', 'F'},
	34: {'g', 'G'}, 35: {'h', 'H'}, 36: {'j', 'J'}, 37: {'k', 'K'},
	38: {'l', 'L'}, 39: {';', ':'}, 40: {'\'', '"'}, 41: {'`', '~'},
	43: {'\\', '|'}, 44: {'z', 'Z'}, 45: {'x', 'X'}, 46: {'c', 'C'},
	47: {'v', 'V'}, 48: {'b', 'B'}, 49: {'n', 'N'}, 50: {'m', 'M'},
	51: {',', '<'}, 52: {'.', '>'}, 53: {'/', '?'},
	2: {'1', '!'}, 3: {'2', '@'}, 4: {'3', '#'}, 5: {'4', '$'},
	6: {'5', '%'}, 7: {'6', '^'}, 8: {'7', '&'}, 9: {'8', '*'},
	10: {'9', '('}, 11: {'0', ')'}, 12: {'-', '_'}, 13: {'=', '+'},
	keySpace: {' ', ' '}, keyTab: {'\t', '\t'}, keyEnter: {'\r', '\r'},
	keyBackspace: {0x7f, 0x7f}, keyEsc: {0x1b, 0x1b},
}

// nonASCIITable translates keycodes that produce a keysym rather than a
// printable character: Esc, Home, arrows, Page, End, Insert, Delete.
var nonASCIITable = map[uint16]vt.Keysym{
	keyEsc:      vt.KeysymEscape,
	keyHome:     vt.KeysymHome,
	keyEnd:      vt.KeysymEnd,
	keyUp:       vt.KeysymUp,
	keyDown:     vt.KeysymDown,
	keyLeft:     vt.KeysymLeft,
	keyRight:    vt.KeysymRight,
	keyPageUp:   vt.KeysymPageUp,
	keyPageDown: vt.KeysymPageDown,
	keyInsert:   vt.KeysymInsert,
	keyDelete:   vt.KeysymDelete,
	keyBackspace: vt.KeysymBackspace,
	keyEnter:    vt.KeysymEnter,
	keyTab:      vt.KeysymTab,
	keyF1:       vt.KeysymF1, keyF2: vt.KeysymF2, keyF3: vt.KeysymF3,
	keyF4: vt.KeysymF4, keyF5: vt.KeysymF5, keyF6: vt.KeysymF6,
	keyF7: vt.KeysymF7, keyF8: vt.KeysymF8, keyF9: vt.KeysymF9,
	keyF10: vt.KeysymF10, keyF11: vt.KeysymF11, keyF12: vt.KeysymF12,
}

// searchTable is tried first when the Search modifier is held: function
// keys pass through unchanged and the arrow cluster becomes
// Page/Home/End navigation, matching the "Fn→Fn, arrows→Page/Home/End"
// remap of §4.F.
var searchTable = map[uint16]vt.Keysym{
	keyF1: vt.KeysymF1, keyF2: vt.KeysymF2, keyF3: vt.KeysymF3,
	keyF4: vt.KeysymF4, keyF5: vt.KeysymF5, keyF6: vt.KeysymF6,
	keyF7: vt.KeysymF7, keyF8: vt.KeysymF8, keyF9: vt.KeysymF9,
	keyF10: vt.KeysymF10, keyF11: vt.KeysymF11, keyF12: vt.KeysymF12,
	keyUp:   vt.KeysymPageUp,
	keyDown: vt.KeysymPageDown,
	keyLeft: vt.KeysymHome,
	keyRight: vt.KeysymEnd,
}

// translateKey implements §4.F's forwarding table: search-modifier
// table first iff Search is held, then the non-ASCII table, else the
// base ASCII table, with Control folding the ASCII result to a control
// code.
func translateKey(code uint16, mods vt.Modifiers) (keysym vt.Keysym, unicode rune) {
	if mods.Search {
		if ks, ok := searchTable[code]; ok {
			return ks, 0
		}
	}
	if ks, ok := nonASCIITable[code]; ok {
		return ks, 0
	}
	if bk, ok := baseTable[code]; ok {
		ch := bk.lower
		if mods.Shift {
			ch = bk.upper
		}
		if mods.Control && ch >= 'a' && ch <= 'z' {
			ch = rune(ch-'a') + 1
		} else if mods.Control && ch >= 'A' && ch <= 'Z' {
			ch = rune(ch-'A') + 1
		}
		return vt.KeysymNone, ch
	}
	return vt.KeysymNone, 0
}
