package sink

import "hy2core/pkg/hy2"

// Tee combines several handlers into one. It lets a process install a single
// handler per slot while still feeding its own log and a live stream.
type Tee struct {
	Logs   []hy2.LogSink
	Events []hy2.EventSink
}

func (t Tee) Log(level, msg string) {
	for _, s := range t.Logs {
		if s != nil {
			s.Log(level, msg)
		}
	}
}

func (t Tee) OnEvent(name, data string) {
	for _, s := range t.Events {
		if s != nil {
			s.OnEvent(name, data)
		}
	}
}
