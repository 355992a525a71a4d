//go:build linux

package display

import "golang.org/x/sys/unix"

// driDir is where DRM card/render nodes appear. There is no hotplug
// chardev fd on the DRM device itself, so, the same way the input package
// watches /dev/input, an inotify watch on the directory reports DRM nodes
// being created or deleted. A connector change on a node that stays in
// place produces no event.
const driDir = "/dev/dri"

// WatchHotplug opens an inotify watch on driDir so the main loop can
// gate a display rescan on an actual node add/remove instead of
// rescanning on every poll iteration.
func WatchHotplug() (int, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK)
	if err != nil {
		return -1, err
	}
	if _, err := unix.InotifyAddWatch(fd, driDir, unix.IN_CREATE|unix.IN_DELETE); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// DrainHotplugEvents discards pending inotify events on fd. The main
// loop only needs to know that something changed, not what.
func DrainHotplugEvents(fd int) {
	buf := make([]byte, 4096)
	unix.Read(fd, buf)
}
