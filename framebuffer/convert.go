//go:build linux

package framebuffer

import "unsafe"

// bytesToUint32 reinterprets an mmap'd byte slice as a slice of 32-bit
// BGRA pixels without copying, matching the dumb buffer's native pixel
// format (DRM_FORMAT_XRGB8888 on the wire, treated as packed uint32 host
// words here).
func bytesToUint32(b []byte) []uint32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// uint32SliceToBytes is the inverse of bytesToUint32, needed to hand the
// original byte slice back to unix.Munmap.
func uint32SliceToBytes(p []uint32) []byte {
	if len(p) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&p[0])), len(p)*4)
}
