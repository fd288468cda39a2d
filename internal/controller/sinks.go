package controller

import "hy2core/pkg/hy2"

// SetLogSink installs the consumer's log handler; nil clears it.
func (c *Controller) SetLogSink(s hy2.LogSink) { c.sinks.SetLogSink(s) }

// SetEventSink installs the consumer's event handler; nil clears it.
func (c *Controller) SetEventSink(s hy2.EventSink) { c.sinks.SetEventSink(s) }

// SetLogLevel sets the log threshold for both the registry and the engine.
// Unknown levels are ignored.
func (c *Controller) SetLogLevel(level string) {
	lvl := hy2.NormalizeLevel(level)
	if !c.sinks.SetLogLevel(lvl) {
		c.log.Warn().Str("level", level).Msg("ignoring unknown log level")
		return
	}
	c.guard("set log level", func() { c.engine.SetLogLevel(lvl) })
	c.log.Debug().Str("level", lvl).Msg("log level changed")
}

// LogLevel returns the active threshold.
func (c *Controller) LogLevel() string { return c.sinks.LogLevel() }
