//go:build linux

// Package framebuffer owns one dumb scanout buffer tied to a display
// device: mapping it on demand, reporting its geometry and a
// display-derived integer scaling factor, and tracking dirty regions.
// It implements component B of the console agent.
package framebuffer

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// device is the subset of display.Display a Framebuffer needs. Framing
// it as an interface (rather than importing the concrete type) lets
// tests substitute a fake device instead of opening real DRM hardware.
type device interface {
	CreateDumbBuffer(width, height uint32) (handle, pitch uint32, size uint64, fbID uint32, err error)
	MapOffset(handle uint32) (uint64, error)
	DestroyDumbBuffer(handle uint32) error
	RemoveFBNow(fbID uint32)
	SetMode(fbID uint32) error
	ReadEDID() []byte
	Width() int
	Height() int
	ModeClockKHz() uint32
	MMSize() (width, height uint32)
	FD() int
	AddRef()
	DelRef()
}

// Rect is a dirty region in pixel coordinates.
type Rect struct {
	X, Y, W, H int
}

// Framebuffer is one dumb buffer mapped against a device. Invariant: the
// map pointer is non-nil iff the lock count is greater than zero.
type Framebuffer struct {
	dev device

	mu sync.Mutex

	width, height, pitch uint32
	scaling              int

	handle    uint32
	fbID      uint32
	size      uint64
	mapOffset uint64

	pixels    []uint32
	lockCount int

	dirty []Rect
}

// New creates a Framebuffer bound to dev. Call Init before use.
func New(dev device) *Framebuffer {
	return &Framebuffer{dev: dev}
}

// Init allocates a dumb buffer sized to the device's current mode,
// registers it as an fb, derives the scaling factor, and takes a
// reference on the device. The buffer is not mapped until the first
// Lock.
func (fb *Framebuffer) Init() error {
	w, h := uint32(fb.dev.Width()), uint32(fb.dev.Height())
	if w == 0 || h == 0 {
		return fmt.Errorf("framebuffer: device has no mode set")
	}

	handle, pitch, size, fbID, err := fb.dev.CreateDumbBuffer(w, h)
	if err != nil {
		return fmt.Errorf("framebuffer: create dumb buffer: %w", err)
	}

	offset, err := fb.dev.MapOffset(handle)
	if err != nil {
		fb.dev.DestroyDumbBuffer(handle)
		return fmt.Errorf("framebuffer: map offset: %w", err)
	}

	fb.dev.AddRef()

	fb.width, fb.height, fb.pitch = w, h, pitch
	fb.handle, fb.fbID, fb.size, fb.mapOffset = handle, fbID, size, offset

	mmW, mmH := fb.dev.MMSize()
	fb.scaling = scalingFactor(fb.dev.ReadEDID(), fb.dev.ModeClockKHz(), w, h, mmW, mmH)

	return nil
}

// SetMode forwards the mode-set request to the device, submitting this
// framebuffer's fb id.
func (fb *Framebuffer) SetMode() error {
	return fb.dev.SetMode(fb.fbID)
}

// Lock returns the mapped 32-bit pixel slice, mapping it on the 0->1
// lock-count transition.
func (fb *Framebuffer) Lock() ([]uint32, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.lockCount == 0 {
		data, err := unix.Mmap(fb.dev.FD(), int64(fb.mapOffset), int(fb.size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return nil, fmt.Errorf("framebuffer: mmap: %w", err)
		}
		fb.pixels = bytesToUint32(data)
	}
	fb.lockCount++
	return fb.pixels, nil
}

// Unlock decrements the lock count; on the 1->0 transition it unmaps the
// buffer and discards the regions recorded by MarkDirty; no dirty-region
// notification is sent to the kernel. Unlocking without a
// matching prior Lock is an error, logged by the caller, and does not
// unmap (per §7's unbalanced-locking taxonomy).
func (fb *Framebuffer) Unlock() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.lockCount == 0 {
		return fmt.Errorf("framebuffer: unlock without matching lock")
	}
	fb.lockCount--
	if fb.lockCount > 0 {
		return nil
	}

	raw := uint32SliceToBytes(fb.pixels)
	err := unix.Munmap(raw)
	fb.pixels = nil
	fb.dirty = fb.dirty[:0]
	return err
}

// MarkDirty records a region that changed since the last flush. The
// region is consumed (and otherwise ignored) on the next Unlock.
func (fb *Framebuffer) MarkDirty(r Rect) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.dirty = append(fb.dirty, r)
}

// GetWidth, GetHeight, GetPitch and GetScaling are the accessors named
// in §4.B.
func (fb *Framebuffer) GetWidth() int    { return int(fb.width) }
func (fb *Framebuffer) GetHeight() int   { return int(fb.height) }
func (fb *Framebuffer) GetPitch() int    { return int(fb.pitch) }
func (fb *Framebuffer) GetScaling() int  { return fb.scaling }

// Destroy removes the fb, frees the dumb buffer, and releases the
// device reference.
func (fb *Framebuffer) Destroy() error {
	fb.mu.Lock()
	if fb.lockCount > 0 {
		if raw := uint32SliceToBytes(fb.pixels); raw != nil {
			unix.Munmap(raw)
		}
		fb.pixels = nil
		fb.lockCount = 0
	}
	fb.mu.Unlock()

	fb.dev.RemoveFBNow(fb.fbID)
	err := fb.dev.DestroyDumbBuffer(fb.handle)
	fb.dev.DelRef()
	return err
}
