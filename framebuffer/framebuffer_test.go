//go:build linux

package framebuffer

import (
	"os"
	"testing"
)

// fakeDevice backs a Framebuffer with a temporary file instead of a
// real DRM dumb buffer, so Lock/Unlock can be exercised without
// hardware.
type fakeDevice struct {
	width, height uint32
	mmW, mmH      uint32
	clockKHz      uint32
	edid          []byte
	fd            *os.File
	refcount      int
	destroyed     bool
	removedFB     uint32
	modeSetFB     uint32
}

func newFakeDevice(t *testing.T, w, h uint32) *fakeDevice {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "fb")
	if err != nil {
		t.Fatal(err)
	}
	size := int64(w) * int64(h) * 4
	if err := f.Truncate(size); err != nil {
		t.Fatal(err)
	}
	return &fakeDevice{width: w, height: h, fd: f}
}

func (d *fakeDevice) CreateDumbBuffer(width, height uint32) (uint32, uint32, uint64, uint32, error) {
	pitch := width * 4
	size := uint64(pitch) * uint64(height)
	return 1, pitch, size, 7, nil
}
func (d *fakeDevice) MapOffset(handle uint32) (uint64, error) { return 0, nil }
func (d *fakeDevice) DestroyDumbBuffer(handle uint32) error   { d.destroyed = true; return nil }
func (d *fakeDevice) RemoveFBNow(fbID uint32)                 { d.removedFB = fbID }
func (d *fakeDevice) SetMode(fbID uint32) error               { d.modeSetFB = fbID; return nil }
func (d *fakeDevice) ReadEDID() []byte                        { return d.edid }
func (d *fakeDevice) Width() int                              { return int(d.width) }
func (d *fakeDevice) Height() int                             { return int(d.height) }
func (d *fakeDevice) ModeClockKHz() uint32                    { return d.clockKHz }
func (d *fakeDevice) MMSize() (uint32, uint32)                { return d.mmW, d.mmH }
func (d *fakeDevice) FD() int                                 { return int(d.fd.Fd()) }
func (d *fakeDevice) AddRef()                                 { d.refcount++ }
func (d *fakeDevice) DelRef()                                 { d.refcount-- }

func TestInitComputesGeometryAndScaling(t *testing.T) {
	dev := newFakeDevice(t, 1920, 1080)
	dev.mmW, dev.mmH = 310, 170 // ~61.9 dots/cm horizontally -> scaling 1

	fb := New(dev)
	if err := fb.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if fb.GetWidth() != 1920 || fb.GetHeight() != 1080 {
		t.Fatalf("geometry = (%d,%d), want (1920,1080)", fb.GetWidth(), fb.GetHeight())
	}
	if fb.GetPitch() != 1920*4 {
		t.Fatalf("pitch = %d, want %d", fb.GetPitch(), 1920*4)
	}
	if got := fb.GetScaling(); got != 1 {
		t.Fatalf("scaling = %d, want 1", got)
	}
	if dev.refcount != 1 {
		t.Fatalf("device refcount = %d, want 1 after Init", dev.refcount)
	}
}

func TestLockUnlockMapsOnTransition(t *testing.T) {
	dev := newFakeDevice(t, 64, 64)
	fb := New(dev)
	if err := fb.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	px, err := fb.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if len(px) != 64*64 {
		t.Fatalf("len(pixels) = %d, want %d", len(px), 64*64)
	}
	px[0] = 0xFFFFFFFF

	px2, err := fb.Lock()
	if err != nil {
		t.Fatalf("second Lock: %v", err)
	}
	if &px2[0] != &px[0] {
		t.Fatalf("nested Lock should not remap")
	}

	if err := fb.Unlock(); err != nil {
		t.Fatalf("first Unlock: %v", err)
	}
	if fb.lockCount != 1 {
		t.Fatalf("lockCount = %d, want 1 after one of two unlocks", fb.lockCount)
	}
	if err := fb.Unlock(); err != nil {
		t.Fatalf("second Unlock: %v", err)
	}
	if fb.pixels != nil {
		t.Fatalf("pixels should be nil after lock count reaches zero")
	}
}

func TestUnlockWithoutLockErrors(t *testing.T) {
	dev := newFakeDevice(t, 16, 16)
	fb := New(dev)
	if err := fb.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := fb.Unlock(); err == nil {
		t.Fatalf("expected error unlocking without a matching lock")
	}
}

func TestDestroyReleasesDeviceReference(t *testing.T) {
	dev := newFakeDevice(t, 16, 16)
	fb := New(dev)
	if err := fb.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := fb.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if !dev.destroyed {
		t.Fatalf("expected dumb buffer to be destroyed")
	}
	if dev.removedFB != 7 {
		t.Fatalf("removedFB = %d, want 7", dev.removedFB)
	}
	if dev.refcount != 0 {
		t.Fatalf("refcount = %d, want 0 after Destroy", dev.refcount)
	}
}

func TestScalingFactorThresholds(t *testing.T) {
	cases := []struct {
		name                    string
		hDisplay, mmWidth       uint32
		want                    int
	}{
		{"low density", 1024, 340, 1},   // ~30 dots/cm
		{"just above 67", 1360, 200, 2}, // 68 dots/cm
		{"just above 100", 2000, 198, 3},
		{"hi-dpi above 133", 2560, 190, 4},
		{"zero mm falls back to 1", 1920, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scalingFactor(nil, 0, tc.hDisplay, 1080, tc.mmWidth, 100)
			if got != tc.want {
				t.Fatalf("scalingFactor(...) = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScalingFactorPrefersMatchingEDIDDescriptor(t *testing.T) {
	edid := make([]byte, 128)
	// Build one detailed-timing descriptor at offset 54: clock=148500kHz
	// (raw 14850), active 1920x1080, physical size 52x29mm, which is
	// 1920/5.2cm ~= 369 dots/cm -> scaling 4. The 999x999mm fallback size
	// passed below would give scaling 1.
	off := 54
	edid[off+0] = byte(14850 & 0xFF)
	edid[off+1] = byte(14850 >> 8)
	edid[off+2] = byte(1920 & 0xFF)
	edid[off+4] = byte((1920 >> 8) << 4)
	edid[off+5] = byte(1080 & 0xFF)
	edid[off+7] = byte((1080 >> 8) << 4)
	edid[off+12] = 52
	edid[off+13] = 29

	got := scalingFactor(edid, 148500, 1920, 1080, 999, 999)
	if got != 4 {
		t.Fatalf("scalingFactor with matching EDID descriptor = %d, want 4", got)
	}
}
