package glyph

import (
	"image"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BasicFontSource adapts golang.org/x/image/font/basicfont.Face7x13 (a
// built-in bitmap font, no file I/O or font rasterization needed) into
// the package's BitmapSource contract.
type BasicFontSource struct {
	face   *basicfont.Face
	width  int
	height int
}

// NewBasicFontSource builds a BitmapSource around the standard library
// of x/image bitmap faces. Face7x13 is 7 pixels wide, 13 tall, which
// becomes the unscaled terminal cell size.
func NewBasicFontSource() *BasicFontSource {
	return &BasicFontSource{face: basicfont.Face7x13, width: 7, height: 13}
}

func (s *BasicFontSource) Size() (width, height int) { return s.width, s.height }

// Glyph rasterizes r into a cell-sized coverage mask by asking the face
// to draw at a fixed baseline and sampling its alpha mask, since
// basicfont exposes glyphs through the font.Face.Glyph draw contract
// rather than as a raw bitmap table.
func (s *BasicFontSource) Glyph(r rune) (rows []byte, ok bool) {
	dot := fixed.Point26_6{X: 0, Y: fixed.I(s.height - 3)}
	dr, mask, maskp, _, present := s.face.Glyph(dot, r)
	if !present {
		return nil, false
	}

	rowBytes := (s.width + 7) / 8
	rows = make([]byte, rowBytes*s.height)

	bounds := image.Rect(0, 0, s.width, s.height)
	inter := dr.Intersect(bounds)

	for y := inter.Min.Y; y < inter.Max.Y; y++ {
		for x := inter.Min.X; x < inter.Max.X; x++ {
			if maskAlphaAt(mask, maskp, dr, x, y) == 0 {
				continue
			}
			rows[y*rowBytes+x/8] |= 1 << uint(7-x%8)
		}
	}
	return rows, true
}

// maskAlphaAt samples the alpha mask at destination pixel (x,y), mapping
// it back into the mask's own coordinate space via maskp, the offset
// font.Face.Glyph returns alongside dr.
func maskAlphaAt(mask image.Image, maskp image.Point, dr image.Rectangle, x, y int) uint8 {
	mx := maskp.X + (x - dr.Min.X)
	my := maskp.Y + (y - dr.Min.Y)
	_, _, _, a := mask.At(mx, my).RGBA()
	return uint8(a >> 8)
}
