package writer

import (
	"strings"
	"testing"
	"time"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/internal/testutil"
)

func TestConsoleWriterFormatsLevelAndMessage(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	w := NewConsoleWriter(buf, false)

	err := w.Write(&share.Entry{Level: share.LevelWarn, Message: "low battery", Timestamp: time.Now()})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := strings.TrimSpace(buf.String())
	want := "[WARN] low battery"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConsoleWriterAppendsFields(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	w := NewConsoleWriter(buf, false)

	if err := w.Write(&share.Entry{Level: share.LevelError, Message: "vt switch failed", Fields: share.Fields{"vt": 2}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := strings.TrimSpace(buf.String())
	want := "[ERROR] vt switch failed vt=2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestConsoleWriterUncoloredWithoutForceColor(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	w := NewConsoleWriter(buf, false)
	if w.color {
		t.Fatalf("a plain buffer should never be detected as a color terminal")
	}
}

func TestConsoleWriterColorsWhenForced(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	w := NewConsoleWriter(buf, true)

	if err := w.Write(&share.Entry{Level: share.LevelError, Message: "boom"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), ansiRed) {
		t.Fatalf("expected ANSI color code in forced-color output, got %q", buf.String())
	}
}
