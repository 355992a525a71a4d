// Package writer holds the console log sink. The daemon's kernel-ring-
// buffer sink lives next to it in internal/kmsg rather than here, since
// it answers to a different contract (no color, a kernel priority
// prefix) than anything console output needs.
package writer

import (
	"fmt"
	"io"
	"sync"

	"github.com/linuxconsole/frecon/internal/share"
	"golang.org/x/term"
)

// ansi color codes for each level's badge, dropped entirely when the
// output isn't a color-capable terminal.
const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiCyan    = "\033[36m"
	ansiYellow  = "\033[33m"
	ansiRed     = "\033[31m"
	ansiBoldRed = "\033[1;31m"
)

func colorFor(l share.Level) string {
	switch l {
	case share.LevelTrace, share.LevelDebug:
		return ansiGray
	case share.LevelInfo:
		return ansiCyan
	case share.LevelWarn:
		return ansiYellow
	case share.LevelError:
		return ansiRed
	default:
		return ansiBoldRed
	}
}

// ConsoleWriter formats entries as "[LEVEL] message key=val ..." and
// writes them to out, coloring the level badge when out is a terminal.
type ConsoleWriter struct {
	out   io.Writer
	color bool
	mu    sync.Mutex
}

// NewConsoleWriter wraps out. Color is auto-detected via isatty unless
// forceColor overrides it (used by tests and --force-color-style flags
// elsewhere in the corpus).
func NewConsoleWriter(out io.Writer, forceColor bool) *ConsoleWriter {
	colorOn := forceColor
	if !colorOn {
		if f, ok := out.(interface{ Fd() uintptr }); ok {
			colorOn = term.IsTerminal(int(f.Fd()))
		}
	}
	return &ConsoleWriter{out: out, color: colorOn}
}

func (w *ConsoleWriter) Write(entry *share.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	badge := entry.Level.String()
	if w.color {
		badge = colorFor(entry.Level) + badge + ansiReset
	}

	if _, err := fmt.Fprintf(w.out, "[%s] %s", badge, entry.Message); err != nil {
		return err
	}
	for k, v := range entry.Fields {
		if _, err := fmt.Fprintf(w.out, " %s=%v", k, v); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w.out)
	return err
}

func (w *ConsoleWriter) Close() error { return nil }
