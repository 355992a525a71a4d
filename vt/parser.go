package vt

import "unicode/utf8"

// Handler receives OSC (operating-system-command) payloads the parser
// has collected between "ESC ]" and its terminator (BEL or ST).
type Handler interface {
	OSC(payload []byte)
}

type stateFn func(p *Parser, b byte)

// Parser is a byte-at-a-time VT100/xterm escape-sequence state machine,
// modeled on the state-function dispatch style of a classic ANSI
// terminal parser: one function per lexical state, each consuming
// exactly one byte and deciding the next state.
type Parser struct {
	scr     *Screen
	handler Handler

	state stateFn

	params   []int
	curParam int
	haveNum  bool
	private  byte // '?' for CSI ? ... sequences, 0 otherwise

	osc []byte

	utf8buf [4]byte
	utf8len int
	utf8want int
}

// NewParser creates a parser feeding scr, dispatching OSC payloads to
// handler (which may be nil to ignore OSC sequences entirely).
func NewParser(scr *Screen, handler Handler) *Parser {
	p := &Parser{scr: scr, handler: handler}
	p.state = stGround
	return p
}

// Feed processes a chunk of bytes read from the PTY.
func (p *Parser) Feed(data []byte) {
	for _, b := range data {
		p.state(p, b)
	}
}

func stGround(p *Parser, b byte) {
	switch {
	case b == 0x1b:
		p.state = stEscape
	case b == '\r':
		p.scr.cursorX = 0
	case b == '\n':
		p.scr.clock++
		p.scr.newline()
	case b == '\b':
		if p.scr.cursorX > 0 {
			p.scr.cursorX--
		}
	case b == '\t':
		p.scr.cursorX = (p.scr.cursorX/8 + 1) * 8
	case b == 0x07: // BEL outside OSC: ignore, no bell device
	case b < 0x20:
		// other C0 controls are silently ignored
	case b < 0x80:
		p.scr.putChar(rune(b))
	default:
		p.feedUTF8(b)
	}
}

func (p *Parser) feedUTF8(b byte) {
	if p.utf8len == 0 {
		switch {
		case b&0xE0 == 0xC0:
			p.utf8want = 2
		case b&0xF0 == 0xE0:
			p.utf8want = 3
		case b&0xF8 == 0xF0:
			p.utf8want = 4
		default:
			p.scr.putChar(utf8.RuneError)
			return
		}
	}
	p.utf8buf[p.utf8len] = b
	p.utf8len++
	if p.utf8len < p.utf8want {
		return
	}
	r, _ := utf8.DecodeRune(p.utf8buf[:p.utf8len])
	p.scr.putChar(r)
	p.utf8len = 0
}

func stEscape(p *Parser, b byte) {
	switch b {
	case '[':
		p.params = p.params[:0]
		p.curParam = 0
		p.haveNum = false
		p.private = 0
		p.state = stCSI
	case ']':
		p.osc = p.osc[:0]
		p.state = stOSC
	case '7': // DECSC: save cursor
		p.scr.savedX, p.scr.savedY = p.scr.cursorX, p.scr.cursorY
		p.state = stGround
	case '8': // DECRC: restore cursor
		p.scr.cursorX, p.scr.cursorY = p.scr.savedX, p.scr.savedY
		p.state = stGround
	case 'c': // RIS: full reset
		p.scr.Clear()
		p.state = stGround
	default:
		p.state = stGround
	}
}

func stCSI(p *Parser, b byte) {
	switch {
	case b == '?' && len(p.params) == 0 && !p.haveNum:
		p.private = '?'
	case b >= '0' && b <= '9':
		p.curParam = p.curParam*10 + int(b-'0')
		p.haveNum = true
	case b == ';':
		p.params = append(p.params, p.curParam)
		p.curParam = 0
		p.haveNum = false
	case b >= 0x40 && b <= 0x7E:
		if p.haveNum || len(p.params) == 0 {
			p.params = append(p.params, p.curParam)
		}
		p.dispatchCSI(b)
		p.state = stGround
	default:
		// ignore intermediates we don't model (e.g. space, '!')
	}
}

func stOSC(p *Parser, b byte) {
	switch b {
	case 0x07:
		p.finishOSC()
	case 0x1b:
		p.state = stOSCEsc
	default:
		if b < 0x20 {
			return
		}
		if b >= 0x80 {
			// Non-ASCII OSC bytes abort the command silently, per §4.D.
			p.osc = nil
			p.state = stGround
			return
		}
		p.osc = append(p.osc, b)
	}
}

func stOSCEsc(p *Parser, b byte) {
	if b == '\\' {
		p.finishOSC()
		return
	}
	// Not a valid ST; fall back to ground and reprocess as an escape.
	p.state = stGround
	stEscape(p, b)
}

func (p *Parser) finishOSC() {
	if p.handler != nil && len(p.osc) > 0 {
		p.handler.OSC(p.osc)
	}
	p.osc = nil
	p.state = stGround
}

func (p *Parser) param(i int, def int) int {
	if i >= len(p.params) || p.params[i] == 0 {
		return def
	}
	return p.params[i]
}

func (p *Parser) dispatchCSI(final byte) {
	s := p.scr
	switch final {
	case 'A':
		s.cursorY -= p.param(0, 1)
		clampCursor(s)
	case 'B':
		s.cursorY += p.param(0, 1)
		clampCursor(s)
	case 'C':
		s.cursorX += p.param(0, 1)
		clampCursor(s)
	case 'D':
		s.cursorX -= p.param(0, 1)
		clampCursor(s)
	case 'H', 'f':
		s.cursorY = p.param(0, 1) - 1
		s.cursorX = p.param(1, 1) - 1
		clampCursor(s)
	case 'J':
		eraseDisplay(s, p.param(0, 0))
	case 'K':
		eraseLine(s, p.param(0, 0))
	case 'm':
		applySGR(s, p.params)
	case 'h':
		setMode(s, p.private, p.params, true)
	case 'l':
		setMode(s, p.private, p.params, false)
	case 's':
		s.savedX, s.savedY = s.cursorX, s.cursorY
	case 'u':
		s.cursorX, s.cursorY = s.savedX, s.savedY
	}
}

func clampCursor(s *Screen) {
	if s.cursorX < 0 {
		s.cursorX = 0
	}
	if s.cursorX >= s.cols {
		s.cursorX = s.cols - 1
	}
	if s.cursorY < 0 {
		s.cursorY = 0
	}
	if s.cursorY >= s.rows {
		s.cursorY = s.rows - 1
	}
}

func eraseDisplay(s *Screen, mode int) {
	s.clock++
	switch mode {
	case 0:
		eraseLineCells(s, s.cursorY, s.cursorX, s.cols)
		for y := s.cursorY + 1; y < s.rows; y++ {
			eraseLineCells(s, y, 0, s.cols)
		}
	case 1:
		for y := 0; y < s.cursorY; y++ {
			eraseLineCells(s, y, 0, s.cols)
		}
		eraseLineCells(s, s.cursorY, 0, s.cursorX+1)
	case 2, 3:
		for y := 0; y < s.rows; y++ {
			eraseLineCells(s, y, 0, s.cols)
		}
	}
}

func eraseLine(s *Screen, mode int) {
	s.clock++
	switch mode {
	case 0:
		eraseLineCells(s, s.cursorY, s.cursorX, s.cols)
	case 1:
		eraseLineCells(s, s.cursorY, 0, s.cursorX+1)
	case 2:
		eraseLineCells(s, s.cursorY, 0, s.cols)
	}
}

func eraseLineCells(s *Screen, y, from, to int) {
	if y < 0 || y >= s.rows {
		return
	}
	for x := from; x < to && x < s.cols; x++ {
		s.eraseCell(x, y)
	}
}

func applySGR(s *Screen, params []int) {
	if len(params) == 0 {
		s.cur = DefaultAttr
		return
	}
	for i := 0; i < len(params); i++ {
		code := params[i]
		switch {
		case code == 0:
			s.cur = DefaultAttr
		case code == 1:
			s.cur.Bold = true
		case code == 7:
			s.cur.Inverse = true
		case code == 22:
			s.cur.Bold = false
		case code == 27:
			s.cur.Inverse = false
		case code >= 30 && code <= 37:
			s.cur.Fg = ansiPalette[code-30]
		case code == 39:
			s.cur.Fg = DefaultFg
		case code >= 40 && code <= 47:
			s.cur.Bg = ansiPalette[code-40]
		case code == 49:
			s.cur.Bg = DefaultBg
		case code >= 90 && code <= 97:
			s.cur.Fg = ansiPalette[code-90+8]
		case code >= 100 && code <= 107:
			s.cur.Bg = ansiPalette[code-100+8]
		}
	}
}

func setMode(s *Screen, private byte, params []int, enable bool) {
	if private != '?' {
		return
	}
	for _, p := range params {
		switch p {
		case 25:
			s.cursorVisible = enable
		case 1049, 47, 1047:
			if enable {
				s.EnterAltScreen()
			} else {
				s.ExitAltScreen()
			}
		}
	}
}
