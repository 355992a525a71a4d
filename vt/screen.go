// Package vt implements a VT100/xterm-family terminal emulator state
// machine: a screen grid with scrollback, a byte-driven escape-sequence
// parser, and an OSC extension hook. It implements the "Terminal
// Emulator" state-machine half of component D; the PTY/process wiring
// lives in package term.
package vt

// DefaultScrollback is the default number of rows retained beyond the
// visible region, per §3's data model.
const DefaultScrollback = 200

// Cell is one grid position: a codepoint (0 means "empty"), its
// rendition, and the logical clock tick it was last written at, used by
// the terminal component to skip unchanged cells on redraw.
type Cell struct {
	Ch   rune
	Attr Attr
	Age  uint64
}

// Screen is the visible grid plus retained scrollback history.
type Screen struct {
	cols, rows int
	grid       [][]Cell // rows x cols, row 0 is the top of the visible area
	scrollback [][]Cell
	maxScroll  int
	scrollOff  int // rows scrolled back from the bottom; 0 = live view

	cursorX, cursorY int
	cursorVisible    bool
	savedX, savedY   int

	cur Attr

	clock uint64

	// altScreen, when non-nil, is the primary grid saved while the
	// alternate screen buffer (used by full-screen programs) is active.
	altScreen [][]Cell
	altCursor [2]int
}

// NewScreen creates a 1x1 screen; callers resize immediately after PTY
// open, per §4.D's lifecycle.
func NewScreen(maxScrollback int) *Screen {
	if maxScrollback <= 0 {
		maxScrollback = DefaultScrollback
	}
	s := &Screen{cols: 1, rows: 1, maxScroll: maxScrollback, cursorVisible: true, cur: DefaultAttr}
	s.grid = newGrid(1, 1, s.clock)
	return s
}

func newGrid(cols, rows int, age uint64) [][]Cell {
	g := make([][]Cell, rows)
	for y := range g {
		row := make([]Cell, cols)
		for x := range row {
			row[x] = Cell{Ch: 0, Attr: DefaultAttr, Age: age}
		}
		g[y] = row
	}
	return g
}

// Resize changes the grid dimensions, preserving as much of the
// existing content (top-left anchored) as fits.
func (s *Screen) Resize(cols, rows int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	s.clock++
	newG := newGrid(cols, rows, s.clock)
	for y := 0; y < rows && y < len(s.grid); y++ {
		copy(newG[y], s.grid[y])
	}
	s.grid = newG
	s.cols, s.rows = cols, rows
	if s.cursorX >= cols {
		s.cursorX = cols - 1
	}
	if s.cursorY >= rows {
		s.cursorY = rows - 1
	}
}

// Size returns the current (cols, rows).
func (s *Screen) Size() (cols, rows int) { return s.cols, s.rows }

// Age returns the screen's current logical clock.
func (s *Screen) Age() uint64 { return s.clock }

// Cursor returns the current cursor position and visibility.
func (s *Screen) Cursor() (x, y int, visible bool) { return s.cursorX, s.cursorY, s.cursorVisible }

// Clear resets every cell to the default attribute and bumps the clock
// so a redraw since any prior age repaints the full surface.
func (s *Screen) Clear() {
	s.clock++
	for y := range s.grid {
		for x := range s.grid[y] {
			s.grid[y][x] = Cell{Ch: 0, Attr: DefaultAttr, Age: s.clock}
		}
	}
	s.cursorX, s.cursorY = 0, 0
}

func (s *Screen) setCell(x, y int, ch rune) {
	if x < 0 || x >= s.cols || y < 0 || y >= s.rows {
		return
	}
	s.grid[y][x] = Cell{Ch: ch, Attr: s.cur, Age: s.clock}
}

func (s *Screen) eraseCell(x, y int) {
	if x < 0 || x >= s.cols || y < 0 || y >= s.rows {
		return
	}
	s.grid[y][x] = Cell{Ch: 0, Attr: s.cur, Age: s.clock}
}

// putChar writes ch at the cursor, advancing and wrapping/scrolling as
// needed. Each call is its own logical tick.
func (s *Screen) putChar(ch rune) {
	s.clock++
	if s.cursorX >= s.cols {
		s.cursorX = 0
		s.newline()
	}
	s.setCell(s.cursorX, s.cursorY, ch)
	s.cursorX++
}

func (s *Screen) newline() {
	s.cursorY++
	if s.cursorY >= s.rows {
		s.scrollUp(1)
		s.cursorY = s.rows - 1
	}
}

// scrollUp moves n rows off the top of the grid into scrollback.
func (s *Screen) scrollUp(n int) {
	s.clock++
	for i := 0; i < n && len(s.grid) > 0; i++ {
		s.scrollback = append(s.scrollback, s.grid[0])
		if len(s.scrollback) > s.maxScroll {
			s.scrollback = s.scrollback[1:]
		}
		s.grid = append(s.grid[1:], newGrid(s.cols, 1, s.clock)[0])
	}
}

// visibleRows returns the rows currently shown, accounting for the
// scrollback offset.
func (s *Screen) visibleRows() [][]Cell {
	if s.scrollOff == 0 {
		return s.grid
	}
	off := s.scrollOff
	if off > len(s.scrollback) {
		off = len(s.scrollback)
	}
	hist := s.scrollback[len(s.scrollback)-off:]
	rows := append(append([][]Cell{}, hist...), s.grid...)
	if len(rows) > s.rows {
		rows = rows[len(rows)-s.rows:]
	}
	return rows
}

// Draw walks every cell and invokes cb for cells whose age is strictly
// greater than sinceAge, supplying (x, y, codepoint-or-zero, attr, age)
// per §4.D's draw-callback contract. It returns the screen's current
// age so the caller can remember it as the baseline for the next call.
func (s *Screen) Draw(sinceAge uint64, cb func(x, y int, ch rune, attr Attr, age uint64)) uint64 {
	for y, row := range s.visibleRows() {
		for x, c := range row {
			if c.Age > sinceAge {
				cb(x, y, c.Ch, c.Attr, c.Age)
			}
		}
	}
	return s.clock
}

// PageUp, PageDown, LineUp and LineDown adjust the scrollback origin.
// B4: scrolling past the top/bottom clamps rather than underflowing.
func (s *Screen) PageUp()   { s.scrollBy(s.rows) }
func (s *Screen) PageDown() { s.scrollBy(-s.rows) }
func (s *Screen) LineUp()   { s.scrollBy(1) }
func (s *Screen) LineDown() { s.scrollBy(-1) }

func (s *Screen) scrollBy(delta int) {
	s.scrollOff += delta
	if s.scrollOff < 0 {
		s.scrollOff = 0
	}
	if s.scrollOff > len(s.scrollback) {
		s.scrollOff = len(s.scrollback)
	}
	s.clock++
	for y := range s.grid {
		for x := range s.grid[y] {
			s.grid[y][x].Age = s.clock
		}
	}
}

// EnterAltScreen saves the primary grid and switches to a fresh one,
// used by full-screen programs (xterm's "smcup").
func (s *Screen) EnterAltScreen() {
	if s.altScreen != nil {
		return
	}
	s.altScreen = s.grid
	s.altCursor = [2]int{s.cursorX, s.cursorY}
	s.clock++
	s.grid = newGrid(s.cols, s.rows, s.clock)
	s.cursorX, s.cursorY = 0, 0
}

// ExitAltScreen restores the primary grid saved by EnterAltScreen.
func (s *Screen) ExitAltScreen() {
	if s.altScreen == nil {
		return
	}
	s.grid = s.altScreen
	s.altScreen = nil
	s.cursorX, s.cursorY = s.altCursor[0], s.altCursor[1]
	s.clock++
	for y := range s.grid {
		for x := range s.grid[y] {
			s.grid[y][x].Age = s.clock
		}
	}
}
