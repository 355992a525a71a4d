//go:build linux

package mainloop

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/linuxconsole/frecon/display"
	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/logx"
	"github.com/linuxconsole/frecon/term"
)

// RunIteration performs one pass of §4.I's main loop algorithm: build
// the readiness set from the input manager's fds and every live
// terminal's PTY, poll with the given timeout in milliseconds (a negative
// value blocks until an fd is ready, 0 returns without waiting),
// then dispatch in order: input, PTY bridges. Returns -1 when the
// current terminal's child has exited and it was the splash slot (the
// caller destroys the splash and decides what happens next); 0
// otherwise.
func (l *Loop) RunIteration(timeoutMillis int) (int, error) {
	pollFds, index := l.buildPollSet()
	if len(pollFds) == 0 {
		return 0, nil
	}

	n, err := unix.Poll(pollFds, timeoutMillis)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, nil
		}
		return -1, err
	}
	if n == 0 {
		return 0, nil
	}

	for _, pfd := range pollFds {
		if pfd.Revents == 0 {
			continue
		}
		entry := index[int(pfd.Fd)]
		switch entry.class {
		case fdEnumeration:
			l.inputMgr.HandleEnumerationReadable()
		case fdInputDevice:
			l.dispatchInputReadable(int(pfd.Fd), entry.path)
		case fdPTY:
			l.dispatchPTYReadable(entry.pty)
		case fdHotplug:
			display.DrainHotplugEvents(int(pfd.Fd))
			l.checkHotplug()
		}
	}

	return l.postDispatchHousekeeping()
}

type fdClass int

const (
	fdEnumeration fdClass = iota
	fdInputDevice
	fdPTY
	fdHotplug
)

type fdEntry struct {
	class fdClass
	path  string
	pty   *term.Terminal
}

// buildPollSet assembles the readiness set of step 1 of §4.I: the bus
// is not included here since godbus services its socket on its own
// goroutine (see the Loop doc comment).
func (l *Loop) buildPollSet() ([]unix.PollFd, map[int]fdEntry) {
	var pollFds []unix.PollFd
	index := make(map[int]fdEntry)

	if l.inputMgr != nil {
		efd := l.inputMgr.EnumerationFD()
		pollFds = append(pollFds, unix.PollFd{Fd: int32(efd), Events: unix.POLLIN})
		index[efd] = fdEntry{class: fdEnumeration}

		for fd, path := range l.inputMgr.DeviceFDs() {
			pollFds = append(pollFds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
			index[fd] = fdEntry{class: fdInputDevice, path: path}
		}
	}

	if l.hotplugFD >= 0 {
		pollFds = append(pollFds, unix.PollFd{Fd: int32(l.hotplugFD), Events: unix.POLLIN})
		index[l.hotplugFD] = fdEntry{class: fdHotplug}
	}

	l.mu.Lock()
	l.table.Each(func(i int, t *term.Terminal) {
		if f := t.PTYFile(); f != nil {
			fd := int(f.Fd())
			pollFds = append(pollFds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
			index[fd] = fdEntry{class: fdPTY, pty: t}
		}
	})
	l.mu.Unlock()

	return pollFds, index
}

func (l *Loop) dispatchInputReadable(fd int, path string) {
	ev, ok := l.inputMgr.HandleDeviceReadable(fd, path)
	if !ok {
		return
	}
	forward, keysym, unicode := l.dispatcher.Dispatch(ev.Code, ev.Value)
	if !forward {
		return
	}
	l.mu.Lock()
	cur := l.table.GetCurrent()
	l.mu.Unlock()
	if cur == nil || !cur.Active() {
		return
	}
	cur.HandleKey(keysym, ev.Value, l.dispatcher.Modifiers(), unicode)
	l.NotifyUserActivity()
}

func (l *Loop) dispatchPTYReadable(t *term.Terminal) {
	buf := make([]byte, 4096)
	n, err := t.PTYFile().Read(buf)
	if err != nil {
		return
	}
	t.FeedPTYData(buf[:n])
}

// postDispatchHousekeeping implements §4.I step 4: if the current
// terminal's child has exited, either signal splash teardown or
// replace it with a fresh interactive terminal.
func (l *Loop) postDispatchHousekeeping() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.table.GetCurrent()
	if cur == nil || !cur.IsChildDone() {
		return 0, nil
	}

	if l.table.CurrentIndex() == l.table.SplashIndex() {
		return -1, nil
	}

	idx := l.table.CurrentIndex()
	cfg := cur.Config()
	cfg.Interactive = true
	replacement := term.New(cfg)
	if err := replacement.Init(); err != nil {
		logx.WithFields(share.Fields{"vt": idx + 1, "error": err.Error()}).Warn("failed to respawn interactive terminal")
		return 0, nil
	}
	if err := l.table.Replace(idx, replacement); err != nil {
		logx.WithFields(share.Fields{"vt": idx + 1, "error": err.Error()}).Warn("failed to close exited terminal")
	}
	l.table.SetCurrentToTerm(replacement)
	replacement.ResetAge()
	if err := replacement.Activate(); err != nil {
		logx.WithFields(share.Fields{"vt": idx + 1, "error": err.Error()}).Warn("failed to activate respawned terminal")
	}

	return 0, nil
}
