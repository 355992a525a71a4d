// Package glyph renders fixed-cell text glyphs into a 32-bit BGRA pixel
// buffer, the contract described for frecon's Glyph Renderer component.
//
// The actual glyph bitmap data is an external collaborator (spec §1): this
// package only knows how to composite whatever a BitmapSource hands it,
// including the per-pixel upscaling rule used on hi-DPI panels.
package glyph

import "sync"

// BitmapSource supplies the fixed-size coverage bitmap for a codepoint.
// A set bit means "foreground", unset means "background". Row i of the
// bitmap is packed MSB-first, one bit per column, Width() bits per row.
type BitmapSource interface {
	// Size returns the unscaled cell dimensions in pixels.
	Size() (width, height int)
	// Glyph returns the packed bitmap rows for r, or ok=false if the
	// source has no glyph for that codepoint.
	Glyph(r rune) (rows []byte, ok bool)
}

// UnicodeReplacementCharacter is drawn in place of any codepoint the
// BitmapSource does not recognize.
const UnicodeReplacementCharacter rune = 0xFFFD

// MaxScale is the largest scaling factor accepted by Renderer.Init and by
// the OSC image `scale=` option (spec §4.D); values above it are clamped.
const MaxScale = 4

// Renderer draws glyph cells at a fixed integer scaling factor over a
// 32-bit BGRA destination buffer.
type Renderer struct {
	src     BitmapSource
	scaling int

	mu     sync.Mutex
	cellW  int
	cellH  int
	cache  map[rune]*scaledGlyph
}

type scaledGlyph struct {
	w, h int
	fg   []bool // true where this scaled pixel is foreground
}

// New creates a Renderer backed by src. Call Init to select the scaling
// factor before the first Render/FillChar.
func New(src BitmapSource) *Renderer {
	return &Renderer{src: src, scaling: 1, cache: make(map[rune]*scaledGlyph)}
}

// Init selects the integer scaling factor (normally the value of
// Framebuffer.GetScaling) and clears the cache of scaled glyphs; each
// glyph is upscaled on its first Render after Init and cached from then
// on.
func (r *Renderer) Init(scaling int) {
	if scaling < 1 {
		scaling = 1
	}
	if scaling > MaxScale {
		scaling = MaxScale
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scaling = scaling
	w, h := r.src.Size()
	r.cellW, r.cellH = w, h
	r.cache = make(map[rune]*scaledGlyph)
}

// GetSize returns the on-screen cell dimensions at the current scaling.
func (r *Renderer) GetSize() (cellW, cellH int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cellW == 0 {
		r.cellW, r.cellH = r.src.Size()
	}
	return r.cellW * r.scaling, r.cellH * r.scaling
}

// FillChar paints one cell solid with bg, at cell coordinates (cx, cy) in
// a buf whose scanline pitch is in bytes (so pitch/4 is pixels per row).
func (r *Renderer) FillChar(buf []uint32, cx, cy, pitch int, fg, bg uint32) {
	cellW, cellH := r.GetSize()
	stride := pitch / 4
	x0 := cx * cellW
	y0 := cy * cellH
	for j := 0; j < cellH; j++ {
		row := (y0 + j) * stride
		for i := 0; i < cellW; i++ {
			idx := row + x0 + i
			if idx >= 0 && idx < len(buf) {
				buf[idx] = bg
			}
		}
	}
}

// Render draws codepoint ch at cell (cx, cy) with the given foreground and
// background colors. Unknown codepoints fall back to the Unicode
// replacement character; if that is also unavailable, nothing is drawn.
func (r *Renderer) Render(buf []uint32, cx, cy, pitch int, ch rune, fg, bg uint32) {
	g := r.scaledGlyphFor(ch)
	if g == nil {
		return
	}
	stride := pitch / 4
	x0 := cx * g.w
	y0 := cy * g.h
	for j := 0; j < g.h; j++ {
		row := (y0 + j) * stride
		for i := 0; i < g.w; i++ {
			idx := row + x0 + i
			if idx < 0 || idx >= len(buf) {
				continue
			}
			if g.fg[j*g.w+i] {
				buf[idx] = fg
			} else {
				buf[idx] = bg
			}
		}
	}
}

func (r *Renderer) scaledGlyphFor(ch rune) *scaledGlyph {
	r.mu.Lock()
	if g, ok := r.cache[ch]; ok {
		r.mu.Unlock()
		return g
	}
	r.mu.Unlock()

	rows, ok := r.src.Glyph(ch)
	if !ok {
		rows, ok = r.src.Glyph(UnicodeReplacementCharacter)
		if !ok {
			return nil
		}
		ch = UnicodeReplacementCharacter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cellW == 0 {
		r.cellW, r.cellH = r.src.Size()
	}
	g := scaleGlyph(rows, r.cellW, r.cellH, r.scaling)
	r.cache[ch] = g
	return g
}

func baseCoverage(rows []byte, w, h int) func(x, y int) bool {
	bytesPerRow := (w + 7) / 8
	return func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		b := rows[y*bytesPerRow+x/8]
		return b&(0x80>>uint(x%8)) != 0
	}
}
