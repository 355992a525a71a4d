package vt

import "unicode/utf8"

// Modifiers is the tuple of held modifier keys, tracked by the input
// component and passed through to the emulator on every synthetic key
// event per §3's data model.
type Modifiers struct {
	Shift, Control, Alt, Search bool
}

// Keysym identifies a non-printable key translated by the input
// component's key tables before being handed to the emulator. Plain
// printable characters are carried in the Unicode argument instead and
// Keysym is KeysymNone.
type Keysym int

const (
	KeysymNone Keysym = iota
	KeysymUp
	KeysymDown
	KeysymLeft
	KeysymRight
	KeysymHome
	KeysymEnd
	KeysymPageUp
	KeysymPageDown
	KeysymInsert
	KeysymDelete
	KeysymBackspace
	KeysymEnter
	KeysymTab
	KeysymEscape
	KeysymF1
	KeysymF2
	KeysymF3
	KeysymF4
	KeysymF5
	KeysymF6
	KeysymF7
	KeysymF8
	KeysymF9
	KeysymF10
	KeysymF11
	KeysymF12
)

const keyPress = 1

var specialSequences = map[Keysym]string{
	KeysymUp:        "\x1b[A",
	KeysymDown:      "\x1b[B",
	KeysymRight:     "\x1b[C",
	KeysymLeft:      "\x1b[D",
	KeysymHome:      "\x1b[H",
	KeysymEnd:       "\x1b[F",
	KeysymPageUp:    "\x1b[5~",
	KeysymPageDown:  "\x1b[6~",
	KeysymInsert:    "\x1b[2~",
	KeysymDelete:    "\x1b[3~",
	KeysymBackspace: "\x7f",
	KeysymEnter:     "\r",
	KeysymTab:       "\t",
	KeysymEscape:    "\x1b",
	KeysymF1:        "\x1bOP",
	KeysymF2:        "\x1bOQ",
	KeysymF3:        "\x1bOR",
	KeysymF4:        "\x1bOS",
	KeysymF5:        "\x1b[15~",
	KeysymF6:        "\x1b[17~",
	KeysymF7:        "\x1b[18~",
	KeysymF8:        "\x1b[19~",
	KeysymF9:        "\x1b[20~",
	KeysymF10:       "\x1b[21~",
	KeysymF11:       "\x1b[23~",
	KeysymF12:       "\x1b[24~",
}

// VTE bundles a Screen with its escape-sequence Parser, the unit the
// terminal component wraps around a PTY.
type VTE struct {
	Screen *Screen
	parser *Parser
}

// New creates a VTE with the given scrollback depth, forwarding OSC
// payloads to handler (nil disables OSC entirely).
func New(maxScrollback int, handler Handler) *VTE {
	scr := NewScreen(maxScrollback)
	return &VTE{Screen: scr, parser: NewParser(scr, handler)}
}

// Input feeds bytes read from the PTY master into the parser.
func (v *VTE) Input(data []byte) {
	v.parser.Feed(data)
}

// Resize forwards to the screen.
func (v *VTE) Resize(cols, rows int) {
	v.Screen.Resize(cols, rows)
}

// HandleKeyboard converts a synthetic key event into the byte sequence
// that should be written to the PTY master. Only key-down (value ==
// press) events produce output; up and repeat are otherwise handled by
// the input component's hotkey dispatcher before reaching here, but a
// repeat of a forwarded key is treated like a press.
func (v *VTE) HandleKeyboard(keysym Keysym, value int, mods Modifiers, unicode rune) []byte {
	if value == 0 { // key-up: nothing to send
		return nil
	}
	if keysym != KeysymNone {
		if seq, ok := specialSequences[keysym]; ok {
			return []byte(seq)
		}
		return nil
	}
	if unicode == 0 {
		return nil
	}
	buf := make([]byte, utf8.UTFMax)
	n := utf8.EncodeRune(buf, unicode)
	return buf[:n]
}
