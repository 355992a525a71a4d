//go:build linux

package input

import (
	"bytes"
	"unsafe"
)

// ptr reinterprets the address of a byte within an inotify read buffer
// as a pointer, for overlaying the kernel's struct inotify_event.
func ptr(b *byte) unsafe.Pointer {
	return unsafe.Pointer(b)
}

// cstring trims a NUL-padded fixed-size name field from an inotify
// event record down to its Go string content.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
