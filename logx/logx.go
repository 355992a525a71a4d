package logx

import (
	"sync"

	"github.com/linuxconsole/frecon/internal/share"
)

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

func init() {
	globalLogger = New(DefaultOptions())
}

// GetLogger returns the process-wide Logger.
func GetLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// AddWriter registers an additional sink on the process-wide logger;
// main uses this to add the /dev/kmsg writer once it's open.
func AddWriter(w share.Writer) { GetLogger().AddWriter(w) }

// WithFields starts a Context on the process-wide logger.
func WithFields(fields share.Fields) *Context { return GetLogger().WithFields(fields) }

func Debug(msg string) { GetLogger().Debug(msg) }
func Info(msg string)  { GetLogger().Info(msg) }
func Warn(msg string)  { GetLogger().Warn(msg) }
func Error(msg string) { GetLogger().Error(msg) }
