package framebuffer

// edidDescriptorSize and the four fixed offsets come from the VESA EDID
// 1.4 base block layout: four 18-byte descriptor blocks starting at
// byte 54, of which a "detailed timing descriptor" is one whose first
// two bytes (the pixel clock) are non-zero.
const (
	edidDescriptorSize    = 18
	edidDescriptorOffsets = 4
	edidFirstDescriptor   = 54
)

// detailedTiming holds the fields of one EDID detailed-timing descriptor
// relevant to scaling-factor derivation.
type detailedTiming struct {
	clockKHz           uint32
	hActive, vActive   uint32
	mmWidth, mmHeight  uint32
}

func parseDetailedTimings(edid []byte) []detailedTiming {
	var out []detailedTiming
	if len(edid) < 128 {
		return out
	}
	for i := 0; i < edidDescriptorOffsets; i++ {
		off := edidFirstDescriptor + i*edidDescriptorSize
		block := edid[off : off+edidDescriptorSize]
		clockRaw := uint32(block[0]) | uint32(block[1])<<8
		if clockRaw == 0 {
			continue // not a detailed timing descriptor (could be monitor name/range/etc.)
		}
		hActive := uint32(block[2]) | uint32(block[4]>>4)<<8
		vActive := uint32(block[5]) | uint32(block[7]>>4)<<8
		mmWidth := uint32(block[12]) | uint32(block[14]>>4)<<8
		mmHeight := uint32(block[13]) | uint32(block[14]&0x0F)<<8
		out = append(out, detailedTiming{
			clockKHz: clockRaw * 10,
			hActive:  hActive,
			vActive:  vActive,
			mmWidth:  mmWidth,
			mmHeight: mmHeight,
		})
	}
	return out
}

// scalingFactor derives the integer scaling factor in {1,2,3,4} per §4.B:
// prefer the EDID detailed-timing descriptor whose clock and active
// dimensions exactly match the programmed mode; otherwise fall back to
// the connector's reported millimeter dimensions.
func scalingFactor(edid []byte, modeClockKHz, hDisplay, vDisplay, fallbackMMWidth, fallbackMMHeight uint32) int {
	mmWidth, mmHeight := fallbackMMWidth, fallbackMMHeight

	for _, t := range parseDetailedTimings(edid) {
		if t.clockKHz == modeClockKHz && t.hActive == hDisplay && t.vActive == vDisplay {
			mmWidth, mmHeight = t.mmWidth, t.mmHeight
			break
		}
	}

	if mmWidth == 0 || hDisplay == 0 {
		return 1
	}

	dotsPerCm := float64(hDisplay) / (float64(mmWidth) / 10.0)
	_ = mmHeight // symmetric with width; horizontal density governs per spec
	switch {
	case dotsPerCm > 133:
		return 4
	case dotsPerCm > 100:
		return 3
	case dotsPerCm > 67:
		return 2
	default:
		return 1
	}
}
