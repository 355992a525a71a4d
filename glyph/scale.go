package glyph

// scaleGlyph upscales a packed 1-bit glyph bitmap of size (w x h) by an
// integer factor. At scaling==1 this is a verbatim copy. At scaling>1 it
// applies the simplified side-rule smoothing: each source pixel expands to
// a scaling x scaling block split into four quadrants (top-left,
// top-right, bottom-left, bottom-right). A foreground pixel fills its
// whole block; a quadrant of a background pixel becomes foreground when
// both of its orthogonal neighbors on that side are foreground, which
// fills the inner corners of the stair-stepped diagonals that plain
// nearest-neighbor replication produces on pixel-art glyphs. This is the "simplified"
// variant: it only consults the two side neighbors of each quadrant, never
// the diagonal neighbor, so it is cheaper and occasionally less smooth
// than a full corner-disambiguation rule; both approaches are valid
// ways to smooth the diagonal.
func scaleGlyph(rows []byte, w, h, scaling int) *scaledGlyph {
	at := baseCoverage(rows, w, h)

	out := &scaledGlyph{w: w * scaling, h: h * scaling}
	out.fg = make([]bool, out.w*out.h)

	half := (scaling + 1) / 2

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := at(x, y)
			top := at(x, y-1)
			bottom := at(x, y+1)
			left := at(x-1, y)
			right := at(x+1, y)

			tl := quadrantValue(center, top, left)
			tr := quadrantValue(center, top, right)
			bl := quadrantValue(center, bottom, left)
			br := quadrantValue(center, bottom, right)

			baseX := x * scaling
			baseY := y * scaling
			for j := 0; j < scaling; j++ {
				top := j < half
				for i := 0; i < scaling; i++ {
					left := i < half
					var v bool
					switch {
					case top && left:
						v = tl
					case top && !left:
						v = tr
					case !top && left:
						v = bl
					default:
						v = br
					}
					out.fg[(baseY+j)*out.w+(baseX+i)] = v
				}
			}
		}
	}
	return out
}

// quadrantValue implements the side-rule: a background center turns
// foreground in the quadrant nearest two foreground side neighbors;
// otherwise the quadrant keeps the center's value, so foreground is never
// removed.
func quadrantValue(center, sideA, sideB bool) bool {
	if !center && sideA && sideB {
		return true
	}
	return center
}
