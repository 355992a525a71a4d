//go:build linux

package input

import (
	"errors"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
)

// devDir is where evdev character devices appear; frecon has no libudev
// binding available in this stack, so hotplug is tracked the same way
// as the rest of the corpus watches directories: an inotify watch.
const devDir = "/dev/input"

// Manager is the "device-enumeration bus" of §4.F: it enumerates evdev
// nodes, grabs them, and watches devDir for hotplug add/remove.
type Manager struct {
	mu      sync.Mutex
	devices map[string]*device
	inotify int
	grabbed bool
}

// NewManager creates a Manager and performs the initial enumeration
// scan plus the inotify watch setup. Devices start grabbed.
func NewManager() (*Manager, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}
	if _, err := unix.InotifyAddWatch(fd, devDir, unix.IN_CREATE|unix.IN_DELETE); err != nil {
		unix.Close(fd)
		return nil, err
	}

	m := &Manager{devices: make(map[string]*device), inotify: fd, grabbed: true}
	m.scan()
	return m, nil
}

func (m *Manager) scan() {
	matches, err := filepath.Glob(filepath.Join(devDir, "event*"))
	if err != nil {
		return
	}
	sort.Strings(matches)
	for _, path := range matches {
		m.add(path)
	}
}

// add opens and grabs devname, skipping duplicates (same path) and
// devices already held by another process, per §4.F's discovery rule.
func (m *Manager) add(devname string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.devices[devname]; exists {
		return
	}
	dev, err := openDevice(devname)
	if err != nil {
		logx.WithFields(share.Fields{"device": devname, "error": err.Error()}).Warn("skipping input device")
		return
	}
	if m.grabbed {
		dev.Grab()
	}
	m.devices[devname] = dev
}

func (m *Manager) remove(devname string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev, ok := m.devices[devname]
	if !ok {
		return
	}
	dev.Close()
	delete(m.devices, devname)
}

// EnumerationFD returns the inotify descriptor for the main loop's
// readiness set.
func (m *Manager) EnumerationFD() int { return m.inotify }

// DeviceFDs returns the currently grabbed devices' file descriptors
// paired with their path, for the main loop's readiness set.
func (m *Manager) DeviceFDs() map[int]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int]string, len(m.devices))
	for path, dev := range m.devices {
		out[int(dev.f.Fd())] = path
	}
	return out
}

// HandleEnumerationReadable drains pending inotify events and adds or
// removes devices accordingly.
func (m *Manager) HandleEnumerationReadable() {
	buf := make([]byte, 4096)
	n, err := unix.Read(m.inotify, buf)
	if err != nil || n <= 0 {
		return
	}
	offset := 0
	for offset+unix.SizeofInotifyEvent <= n {
		raw := (*unix.InotifyEvent)(ptr(&buf[offset]))
		nameLen := int(raw.Len)
		nameStart := offset + unix.SizeofInotifyEvent
		name := ""
		if nameLen > 0 {
			name = cstring(buf[nameStart : nameStart+nameLen])
		}
		offset = nameStart + nameLen

		if name == "" {
			continue
		}
		path := filepath.Join(devDir, name)
		switch {
		case raw.Mask&unix.IN_CREATE != 0:
			m.add(path)
		case raw.Mask&unix.IN_DELETE != 0:
			m.remove(path)
		}
	}
}

// HandleDeviceReadable reads and decodes one event from the device at
// fd, applying §4.F's input-device error taxonomy: EINTR/EAGAIN are
// transient (returned as ok=false with no error for the caller to
// retry next iteration); ENODEV means the device vanished and is
// silently dropped; anything else is logged and the device is dropped.
func (m *Manager) HandleDeviceReadable(fd int, path string) (KeyEvent, bool) {
	m.mu.Lock()
	dev := m.devices[path]
	m.mu.Unlock()
	if dev == nil {
		return KeyEvent{}, false
	}

	ev, ok, err := dev.ReadEvent()
	if err == nil {
		return ev, ok
	}

	if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
		return KeyEvent{}, false
	}
	if errors.Is(err, unix.ENODEV) {
		m.remove(path)
		return KeyEvent{}, false
	}
	logx.WithFields(share.Fields{"device": path, "error": err.Error()}).Warn("input device error, removing")
	m.remove(path)
	return KeyEvent{}, false
}

// Background ungrabs every device, used on Ctrl+Alt+F1 handoff to the
// compositor.
func (m *Manager) Background() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grabbed = false
	for _, dev := range m.devices {
		dev.Ungrab()
	}
}

// Foreground re-grabs every device, used when frecon regains the
// display.
func (m *Manager) Foreground() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grabbed = true
	for _, dev := range m.devices {
		dev.Grab()
	}
}

// Close releases every device and the inotify watch.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for path, dev := range m.devices {
		dev.Close()
		delete(m.devices, path)
	}
	return unix.Close(m.inotify)
}
