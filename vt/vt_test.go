package vt

import "testing"

func TestPutCharAdvancesCursorAndWraps(t *testing.T) {
	s := NewScreen(10)
	s.Resize(3, 2)
	s.putChar('a')
	s.putChar('b')
	s.putChar('c')
	if s.cursorX != 3 {
		t.Fatalf("cursorX = %d, want 3 before wrap", s.cursorX)
	}
	s.putChar('d')
	if s.cursorY != 1 || s.cursorX != 1 {
		t.Fatalf("cursor = (%d,%d), want (1,1) after wrap", s.cursorX, s.cursorY)
	}
	if s.grid[1][0].Ch != 'd' {
		t.Fatalf("grid[1][0] = %q, want 'd'", s.grid[1][0].Ch)
	}
}

func TestScrollUpMovesRowsToScrollback(t *testing.T) {
	s := NewScreen(10)
	s.Resize(2, 2)
	for _, ch := range "abcde" { // 'e' forces a third row, scrolling row 0 off
		s.putChar(ch)
	}
	if len(s.scrollback) != 1 {
		t.Fatalf("len(scrollback) = %d, want 1", len(s.scrollback))
	}
	if s.scrollback[0][0].Ch != 'a' {
		t.Fatalf("scrolled row[0] = %q, want 'a'", s.scrollback[0][0].Ch)
	}
}

func TestPageUpAtTopIsNoOp(t *testing.T) {
	s := NewScreen(10)
	s.Resize(5, 5)
	s.PageUp()
	if s.scrollOff != 0 {
		t.Fatalf("scrollOff = %d, want 0 with no scrollback (B4)", s.scrollOff)
	}
}

func TestFeedPrintableASCII(t *testing.T) {
	s := NewScreen(10)
	s.Resize(10, 2)
	p := NewParser(s, nil)
	p.Feed([]byte("hi"))
	if s.grid[0][0].Ch != 'h' || s.grid[0][1].Ch != 'i' {
		t.Fatalf("grid row = %q%q, want hi", s.grid[0][0].Ch, s.grid[0][1].Ch)
	}
}

func TestFeedCursorPositioning(t *testing.T) {
	s := NewScreen(10)
	s.Resize(10, 10)
	p := NewParser(s, nil)
	p.Feed([]byte("\x1b[5;3Hx"))
	if s.grid[4][2].Ch != 'x' {
		t.Fatalf("expected 'x' at row 4 col 2 (1-based 5;3), grid = %q", s.grid[4][2].Ch)
	}
}

func TestFeedSGRColorAndReset(t *testing.T) {
	s := NewScreen(10)
	s.Resize(10, 10)
	p := NewParser(s, nil)
	p.Feed([]byte("\x1b[31mred\x1b[0mplain"))
	if s.grid[0][0].Attr.Fg != ansiPalette[1] {
		t.Fatalf("fg after SGR 31 = %#x, want red", s.grid[0][0].Attr.Fg)
	}
	if s.grid[0][3].Attr.Fg != DefaultFg {
		t.Fatalf("fg after SGR 0 = %#x, want default", s.grid[0][3].Attr.Fg)
	}
}

func TestFeedEraseDisplay(t *testing.T) {
	s := NewScreen(10)
	s.Resize(5, 2)
	p := NewParser(s, nil)
	p.Feed([]byte("abcde\x1b[2J"))
	for y := 0; y < 2; y++ {
		for x := 0; x < 5; x++ {
			if s.grid[y][x].Ch != 0 {
				t.Fatalf("cell (%d,%d) = %q after full erase, want empty", x, y, s.grid[y][x].Ch)
			}
		}
	}
}

type captureHandler struct{ got []byte }

func (c *captureHandler) OSC(payload []byte) { c.got = append([]byte{}, payload...) }

func TestOSCDispatchAndNonASCIIAbort(t *testing.T) {
	h := &captureHandler{}
	s := NewScreen(10)
	s.Resize(5, 5)
	p := NewParser(s, h)
	p.Feed([]byte("\x1b]image:file=/tmp/a.png\x07"))
	if string(h.got) != "image:file=/tmp/a.png" {
		t.Fatalf("OSC payload = %q", h.got)
	}

	h.got = nil
	p.Feed([]byte("\x1b]image:\xffbad\x07"))
	if h.got != nil {
		t.Fatalf("non-ASCII OSC byte should abort silently, got %q", h.got)
	}
}

func TestParseOSCImageAndBox(t *testing.T) {
	cmd, opts, ok := ParseOSC([]byte("image:file=/tmp/x.png;location=10,20;scale=2"))
	if !ok || cmd != "image" {
		t.Fatalf("ParseOSC image: ok=%v cmd=%q", ok, cmd)
	}
	img := ParseImageCommand(opts)
	if img.File != "/tmp/x.png" || img.Location == nil || *img.Location != (Point{10, 20}) || img.Scale != 2 {
		t.Fatalf("ParseImageCommand = %+v", img)
	}

	cmd, opts, ok = ParseOSC([]byte("box:color=ff0000;size=30,40"))
	if !ok || cmd != "box" {
		t.Fatalf("ParseOSC box: ok=%v cmd=%q", ok, cmd)
	}
	box := ParseBoxCommand(opts)
	if box.Color != 0xFF0000 || box.Size != (Point{30, 40}) {
		t.Fatalf("ParseBoxCommand = %+v", box)
	}
}

func TestHandleKeyboardSpecialAndPrintable(t *testing.T) {
	v := New(10, nil)
	if got := v.HandleKeyboard(KeysymUp, 1, Modifiers{}, 0); string(got) != "\x1b[A" {
		t.Fatalf("KeysymUp = %q", got)
	}
	if got := v.HandleKeyboard(KeysymNone, 1, Modifiers{}, 'q'); string(got) != "q" {
		t.Fatalf("printable key = %q, want q", got)
	}
	if got := v.HandleKeyboard(KeysymUp, 0, Modifiers{}, 0); got != nil {
		t.Fatalf("key-up should produce no bytes, got %q", got)
	}
}

func TestLuminanceThreshold(t *testing.T) {
	if Luminance(0x000000) >= 128 {
		t.Fatalf("black should be below the dark threshold")
	}
	if Luminance(0xFFFFFF) < 128 {
		t.Fatalf("white should be above the dark threshold")
	}
}
