package vt

// Attr carries the SGR-derived rendition of a cell: a foreground and
// background color plus the handful of boolean attributes the console
// agent's glyph renderer understands.
type Attr struct {
	Fg      uint32
	Bg      uint32
	Bold    bool
	Inverse bool
	Blink   bool
}

// DefaultFg and DefaultBg are applied to a freshly cleared cell and to
// any SGR reset (ESC [ 0 m).
const (
	DefaultFg = 0xAAAAAA
	DefaultBg = 0x000000
)

// DefaultAttr is the rendition a cell starts with before any SGR codes
// have been applied.
var DefaultAttr = Attr{Fg: DefaultFg, Bg: DefaultBg}

// ansiPalette is the 8-color ANSI table (plus bright variants at +8),
// matching xterm's default 16-color palette.
var ansiPalette = [16]uint32{
	0x000000, 0xCD0000, 0x00CD00, 0xCDCD00,
	0x0000EE, 0xCD00CD, 0x00CDCD, 0xE5E5E5,
	0x7F7F7F, 0xFF0000, 0x00FF00, 0xFFFF00,
	0x5C5CFF, 0xFF00FF, 0x00FFFF, 0xFFFFFF,
}

// Resolve returns the effective (fg, bg) pair after applying the
// inverse-video swap, matching §4.D's draw-callback contract.
func (a Attr) Resolve() (fg, bg uint32) {
	if a.Inverse {
		return a.Bg, a.Fg
	}
	return a.Fg, a.Bg
}

// Luminance computes Y = (3R + 4G + B) / 8, the weighting §4.D specifies
// for choosing a background-override foreground color.
func Luminance(rgb uint32) int {
	r := int((rgb >> 16) & 0xFF)
	g := int((rgb >> 8) & 0xFF)
	b := int(rgb & 0xFF)
	return (3*r + 4*g + b) / 8
}
