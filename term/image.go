package term

import (
	"image/png"
	"os"
)

// PNGDecoder is the default ImageDecoder, wrapping the standard
// library's image/png. Decoding only needs to land at 32-bit BGRA
// pixels, which image/png already does through its own color model
// conversion, so no third-party codec is pulled in for this.
type PNGDecoder struct{}

// Decode implements ImageDecoder.
func (PNGDecoder) Decode(path string) ([]uint32, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, 0, 0, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint32, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			pix[y*w+x] = (r>>8)<<16 | (g>>8)<<8 | (bl >> 8)
		}
	}
	return pix, w, h, nil
}

// blitImage nearest-neighbor-scales src (w x h) by the integer factor
// scale and paints it into dst at (dstX, dstY), clipping to the
// destination's bounds (B2: no out-of-bounds writes even exactly at the
// edges).
func blitImage(dst []uint32, pitch, dstW, dstH int, src []uint32, w, h, scale, dstX, dstY int) {
	stride := pitch / 4
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			c := src[sy*w+sx]
			for oy := 0; oy < scale; oy++ {
				py := dstY + sy*scale + oy
				if py < 0 || py >= dstH {
					continue
				}
				for ox := 0; ox < scale; ox++ {
					px := dstX + sx*scale + ox
					if px < 0 || px >= dstW {
						continue
					}
					idx := py*stride + px
					if idx >= 0 && idx < len(dst) {
						dst[idx] = c
					}
				}
			}
		}
	}
}

// fillRect paints a solid color rectangle, clipped to the destination.
func fillRect(dst []uint32, pitch, dstW, dstH, x, y, w, h int, color uint32) {
	stride := pitch / 4
	for py := y; py < y+h; py++ {
		if py < 0 || py >= dstH {
			continue
		}
		for px := x; px < x+w; px++ {
			if px < 0 || px >= dstW {
				continue
			}
			idx := py*stride + px
			if idx >= 0 && idx < len(dst) {
				dst[idx] = color
			}
		}
	}
}
