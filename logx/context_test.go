package logx

import (
	"strings"
	"testing"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/internal/testutil"
	"github.com/linuxconsole/frecon/writer"
)

func TestContextWithFieldsMergesWithoutClobbering(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	logger := New(LogOptions{Level: share.LevelInfo, Output: writer.NewConsoleWriter(buf, false)})

	base := logger.WithFields(share.Fields{"vt": 2})
	base.WithFields(share.Fields{"error": "boom"}).Error("failed")

	got := buf.String()
	if !strings.Contains(got, "vt=2") || !strings.Contains(got, "error=boom") {
		t.Fatalf("expected both base and chained fields present, got %q", got)
	}

	buf.Reset()
	base.Warn("unrelated")
	if strings.Contains(buf.String(), "error=") {
		t.Fatalf("chaining WithFields should not mutate the original context, got %q", buf.String())
	}
}
