package glyph

import "testing"

// testFont is a tiny 2x2 BitmapSource: 'A' is a solid block, 'B' is a
// checkerboard, used to exercise the scaling rule without real font data.
type testFont struct{}

func (testFont) Size() (int, int) { return 2, 2 }

func (testFont) Glyph(r rune) ([]byte, bool) {
	switch r {
	case 'A':
		return []byte{0xC0, 0xC0}, true // both rows: "11"
	case 'B':
		return []byte{0x80, 0x40}, true // row0: "10", row1: "01"
	case UnicodeReplacementCharacter:
		return []byte{0x00, 0x00}, true
	default:
		return nil, false
	}
}

func TestGetSize(t *testing.T) {
	cases := []struct {
		name          string
		scaling       int
		wantW, wantH  int
	}{
		{"unscaled", 1, 2, 2},
		{"double", 2, 4, 4},
		{"clamped above max", MaxScale + 10, 2 * MaxScale, 2 * MaxScale},
		{"clamped below min", 0, 2, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := New(testFont{})
			r.Init(tc.scaling)
			w, h := r.GetSize()
			if w != tc.wantW || h != tc.wantH {
				t.Fatalf("GetSize() = (%d,%d), want (%d,%d)", w, h, tc.wantW, tc.wantH)
			}
		})
	}
}

func TestRenderUnscaledSolidBlock(t *testing.T) {
	r := New(testFont{})
	r.Init(1)
	buf := make([]uint32, 4)
	r.Render(buf, 0, 0, 8, 'A', 0xFFFFFF, 0x000000)
	for i, px := range buf {
		if px != 0xFFFFFF {
			t.Fatalf("pixel %d = %#x, want foreground", i, px)
		}
	}
}

func TestRenderUnknownCodepointFallsBackToReplacement(t *testing.T) {
	r := New(testFont{})
	r.Init(1)
	buf := make([]uint32, 4)
	r.Render(buf, 0, 0, 8, 'Z', 0xFFFFFF, 0x000000)
	for i, px := range buf {
		if px != 0x000000 {
			t.Fatalf("pixel %d = %#x, want replacement-glyph background", i, px)
		}
	}
}

func TestScaleGlyphSideRuleSmoothsDiagonal(t *testing.T) {
	// An isolated 'on' pixel keeps its whole scaled block: the side rule
	// never turns a foreground pixel off.
	rows := []byte{0x40, 0x00} // row0: "01", row1: "00" (on pixel at x=1,y=0)
	g := scaleGlyph(rows, 2, 2, 2)
	if g.w != 4 || g.h != 4 {
		t.Fatalf("scaled size = (%d,%d), want (4,4)", g.w, g.h)
	}
	for _, p := range [][2]int{{2, 0}, {3, 0}, {2, 1}, {3, 1}} {
		if !g.fg[p[1]*g.w+p[0]] {
			t.Fatalf("pixel (%d,%d) of the isolated on pixel is off, want on", p[0], p[1])
		}
	}

	// A one-pixel diagonal gains the two inner corner pixels, where a
	// background quadrant has both side neighbors in the foreground.
	diag := scaleGlyph([]byte{0x80, 0x40}, 2, 2, 2) // row0: "10", row1: "01"
	want := []string{"1100", "1110", "0111", "0011"}
	for y, row := range want {
		for x := range row {
			if got := diag.fg[y*diag.w+x]; got != (row[x] == '1') {
				t.Fatalf("diagonal pixel (%d,%d) = %v, want %v", x, y, got, row[x] == '1')
			}
		}
	}
}

func TestFillChar(t *testing.T) {
	r := New(testFont{})
	r.Init(1)
	buf := make([]uint32, 4)
	r.FillChar(buf, 0, 0, 8, 0xFFFFFF, 0x123456)
	for i, px := range buf {
		if px != 0x123456 {
			t.Fatalf("pixel %d = %#x, want fill color", i, px)
		}
	}
}
