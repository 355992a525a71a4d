package main

import (
	"fmt"
	"os"
)

// gammaRampSize is the expected file size: 256 entries each of R, G, B.
const gammaRampSize = 256 * 3

// loadGammaRamp reads a 768-byte gamma ramp file (256 R bytes, 256 G
// bytes, 256 B bytes) and scales each 8-bit entry ×257 into the 16-bit
// range DRM's gamma LUT ioctl expects (§6).
func loadGammaRamp(path string) (red, green, blue []uint16, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("gamma: read %s: %w", path, err)
	}
	if len(data) != gammaRampSize {
		return nil, nil, nil, fmt.Errorf("gamma: %s is %d bytes, want %d", path, len(data), gammaRampSize)
	}

	red = scaleRamp(data[0:256])
	green = scaleRamp(data[256:512])
	blue = scaleRamp(data[512:768])
	return red, green, blue, nil
}

func scaleRamp(entries []byte) []uint16 {
	out := make([]uint16, len(entries))
	for i, b := range entries {
		out[i] = uint16(b) * 257
	}
	return out
}
