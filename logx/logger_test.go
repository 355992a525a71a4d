package logx

import (
	"strings"
	"testing"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/internal/testutil"
	"github.com/linuxconsole/frecon/writer"
)

func newTestLogger(buf *testutil.SafeBuffer, level share.Level) *Logger {
	return New(LogOptions{Level: level, Output: writer.NewConsoleWriter(buf, false)})
}

func TestLoggerInfo(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newTestLogger(buf, share.LevelInfo)

	logger.Info("hello")

	got := strings.TrimSpace(buf.String())
	if got != "[INFO] hello" {
		t.Fatalf("got %q, want %q", got, "[INFO] hello")
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newTestLogger(buf, share.LevelWarn)

	logger.Info("should not appear")
	logger.Debug("should not appear either")
	logger.Warn("should appear")

	got := buf.String()
	if strings.Contains(got, "should not appear") {
		t.Fatalf("expected info/debug to be filtered out, got %q", got)
	}
	if !strings.Contains(got, "should appear") {
		t.Fatalf("expected warn to pass the filter, got %q", got)
	}
}

func TestLoggerAddWriterFansOutToBoth(t *testing.T) {
	first := &testutil.SafeBuffer{}
	second := &testutil.SafeBuffer{}
	logger := newTestLogger(first, share.LevelInfo)
	logger.AddWriter(writer.NewConsoleWriter(second, false))

	logger.Error("boom")

	if !strings.Contains(first.String(), "boom") {
		t.Fatalf("expected first writer to receive the entry")
	}
	if !strings.Contains(second.String(), "boom") {
		t.Fatalf("expected second writer to receive the entry")
	}
}

func TestWithFieldsAttachesFieldsToEntry(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := newTestLogger(buf, share.LevelInfo)

	logger.WithFields(share.Fields{"vt": 2}).Warn("vt switch failed")

	got := strings.TrimSpace(buf.String())
	if got != "[WARN] vt switch failed vt=2" {
		t.Fatalf("got %q", got)
	}
}

func TestPackageLevelFunctionsUseGlobalLogger(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	globalMu.Lock()
	prev := globalLogger
	globalLogger = newTestLogger(buf, share.LevelInfo)
	globalMu.Unlock()
	defer func() {
		globalMu.Lock()
		globalLogger = prev
		globalMu.Unlock()
	}()

	Info("global info")
	WithFields(share.Fields{"k": "v"}).Error("global error")

	got := buf.String()
	if !strings.Contains(got, "[INFO] global info") {
		t.Fatalf("expected global Info to reach the swapped-in logger, got %q", got)
	}
	if !strings.Contains(got, "[ERROR] global error k=v") {
		t.Fatalf("expected global WithFields chain to reach the swapped-in logger, got %q", got)
	}
}
