//go:build linux

package input

import "golang.org/x/sys/unix"

// evIOCGrab is EVIOCGRAB, computed via the same _IOC encoding used by
// the DRM ioctls in package display: dir=write(1), size=sizeof(int)=4,
// type='E'=0x45, nr=0x90. This matches the well-known kernel constant
// 0x40044590.
const evIOCGrab = (1 << 30) | (4 << 16) | (0x45 << 8) | 0x90

func grab(fd int) error {
	return unix.IoctlSetInt(fd, evIOCGrab, 1)
}

func ungrab(fd int) error {
	return unix.IoctlSetInt(fd, evIOCGrab, 0)
}
