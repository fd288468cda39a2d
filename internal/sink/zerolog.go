package sink

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"hy2core/pkg/hy2"
)

// ZerologSink writes engine callbacks to a zerolog logger. It implements
// both hy2.LogSink and hy2.EventSink.
type ZerologSink struct {
	log zerolog.Logger
}

func NewZerologSink(l zerolog.Logger) *ZerologSink {
	return &ZerologSink{log: l.With().Str("source", "engine").Logger()}
}

func (z *ZerologSink) Log(level, msg string) {
	z.log.WithLevel(zerologLevel(level)).Msg(msg)
}

func (z *ZerologSink) OnEvent(name, data string) {
	ev := z.log.Info()
	switch name {
	case hy2.EventError, hy2.EventPanic:
		ev = z.log.Error()
	case hy2.EventWarning:
		ev = z.log.Warn()
	}
	if data != "" && json.Valid([]byte(data)) {
		ev = ev.RawJSON("data", []byte(data))
	} else {
		ev = ev.Str("data", data)
	}
	ev.Str("event", name).Msg("engine event")
}

func zerologLevel(level string) zerolog.Level {
	switch hy2.NormalizeLevel(level) {
	case hy2.LevelDebug:
		return zerolog.DebugLevel
	case hy2.LevelWarn:
		return zerolog.WarnLevel
	case hy2.LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
