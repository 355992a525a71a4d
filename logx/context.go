package logx

import "github.com/linuxconsole/frecon/internal/share"

// Context carries fields accumulated via WithFields until a level
// method turns them into an Entry.
type Context struct {
	logger *Logger
	fields share.Fields
}

// WithFields returns a new Context with fields merged on top of c's
// existing ones, letting callers chain calls without clobbering
// previously attached fields.
func (c *Context) WithFields(fields share.Fields) *Context {
	merged := make(share.Fields, len(c.fields)+len(fields))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Context{logger: c.logger, fields: merged}
}

func (c *Context) Debug(msg string) { c.logger.log(share.LevelDebug, msg, c.fields) }
func (c *Context) Info(msg string)  { c.logger.log(share.LevelInfo, msg, c.fields) }
func (c *Context) Warn(msg string)  { c.logger.log(share.LevelWarn, msg, c.fields) }
func (c *Context) Error(msg string) { c.logger.log(share.LevelError, msg, c.fields) }
