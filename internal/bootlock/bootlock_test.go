package bootlock

import (
	"os"
	"testing"
)

func TestAcquireRejectsSecondHolder(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("requires permission to create files under /run")
	}
	name := "frecon-test-bootlock"
	first, err := Acquire(name)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	if _, err := Acquire(name); err == nil {
		t.Fatalf("expected second Acquire to fail while first holds the lock")
	}
}

func TestReleaseOnNilIsNoOp(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Fatalf("Release on nil Lock: %v", err)
	}
}
