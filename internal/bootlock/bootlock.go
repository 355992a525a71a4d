// Package bootlock guards against two console agent instances running
// at once: both would fight over /dev/dri and the evdev devices.
package bootlock

import (
	"fmt"

	"github.com/gofrs/flock"
)

// Lock wraps an advisory file lock under /run so only one frecon
// process owns the console at a time, per §9's single-instance
// requirement.
type Lock struct {
	fl *flock.Flock
}

// Acquire attempts a non-blocking lock on /run/<name>.lock. It returns
// an error immediately if another instance already holds it rather
// than waiting, since a stuck second instance should fail fast and let
// whatever launched it (init, session manager) decide what to do.
func Acquire(name string) (*Lock, error) {
	path := fmt.Sprintf("/run/%s.lock", name)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("bootlock: lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("bootlock: %s already held by another instance", path)
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. Safe to call on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
