//go:build linux

package input

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// device is one grabbed evdev node.
type device struct {
	path string
	f    *os.File
}

// openDevice opens devname read-only, performs the grab-then-ungrab
// liveness check from §4.F (an immediate grab failure means another
// process already owns the device), and returns it ungrabbed; Manager.add
// grabs it again when the manager is in the foreground.
func openDevice(devname string) (*device, error) {
	f, err := os.OpenFile(devname, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	fd := int(f.Fd())

	if err := grab(fd); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: busy: %w", devname, err)
	}
	ungrab(fd)

	return &device{path: devname, f: f}, nil
}

// Grab re-acquires exclusive access, used when the agent returns to the
// foreground after a Ctrl+Alt+F1 handoff.
func (d *device) Grab() error {
	return grab(int(d.f.Fd()))
}

// Ungrab releases exclusive access without closing the node, used when
// the agent backgrounds itself for the compositor.
func (d *device) Ungrab() error {
	return ungrab(int(d.f.Fd()))
}

func (d *device) Close() error {
	return d.f.Close()
}

// ReadEvent blocks for the next input_event record and decodes it. It
// returns ok=false (with a nil error) for event types other than
// EV_KEY, which the caller should simply loop past.
func (d *device) ReadEvent() (KeyEvent, bool, error) {
	buf := make([]byte, rawInputEventSize)
	n, err := unix.Read(int(d.f.Fd()), buf)
	if err != nil {
		return KeyEvent{}, false, err
	}
	if n < rawInputEventSize {
		return KeyEvent{}, false, fmt.Errorf("%s: short read (%d bytes)", d.path, n)
	}
	ev, ok := decodeEvent(buf)
	ev.Path = d.path
	return ev, ok, nil
}
