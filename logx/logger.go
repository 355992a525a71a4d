// Package logx is the agent's structured logger: a small Logger that
// fans each Entry out to every registered share.Writer (a console sink
// by default, plus the daemon's /dev/kmsg sink once main wires it),
// filtering by minimum level first.
package logx

import (
	"os"
	"sync"
	"time"

	"github.com/linuxconsole/frecon/internal/share"
	"github.com/linuxconsole/frecon/writer"
)

// LogOptions configures a Logger.
type LogOptions struct {
	Level  share.Level
	Output share.Writer
}

// DefaultOptions is what the process-wide logger starts with: info
// level, plain (non-color) console output on stdout.
func DefaultOptions() LogOptions {
	return LogOptions{Level: share.LevelInfo, Output: writer.NewConsoleWriter(os.Stdout, false)}
}

// Logger dispatches entries at or above its level to every registered
// writer.
type Logger struct {
	mu      sync.Mutex
	level   share.Level
	writers []share.Writer
}

// New creates a Logger from opts. A nil Output starts the logger with
// no writers, which AddWriter can populate later.
func New(opts LogOptions) *Logger {
	l := &Logger{level: opts.Level}
	if opts.Output != nil {
		l.writers = append(l.writers, opts.Output)
	}
	return l
}

// AddWriter registers an additional sink; every entry already at or
// above the logger's level is sent to it too.
func (l *Logger) AddWriter(w share.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writers = append(l.writers, w)
}

// WithFields starts a Context that carries fields into whichever level
// method is called on it.
func (l *Logger) WithFields(fields share.Fields) *Context {
	return &Context{logger: l, fields: fields}
}

func (l *Logger) log(level share.Level, msg string, fields share.Fields) {
	if level < l.level {
		return
	}
	entry := &share.Entry{Level: level, Message: msg, Fields: fields, Timestamp: time.Now()}

	l.mu.Lock()
	writers := l.writers
	l.mu.Unlock()

	for _, w := range writers {
		w.Write(entry)
	}
}

func (l *Logger) Debug(msg string) { l.log(share.LevelDebug, msg, nil) }
func (l *Logger) Info(msg string)  { l.log(share.LevelInfo, msg, nil) }
func (l *Logger) Warn(msg string)  { l.log(share.LevelWarn, msg, nil) }
func (l *Logger) Error(msg string) { l.log(share.LevelError, msg, nil) }
